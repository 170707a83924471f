package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/lcharier/gestibat/internal/httpx"
	"github.com/lcharier/gestibat/internal/models"
	"github.com/lcharier/gestibat/internal/validation"
)

type ClientHandler struct {
	DB *gorm.DB
}

func NewClientHandler(db *gorm.DB) *ClientHandler { return &ClientHandler{DB: db} }

func idFromPath(r *http.Request) (uint, bool) {
	n, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	var clients []models.Client
	if err := h.DB.Order("nom").Find(&clients).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_clients", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, clients)
}

func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var c models.Client
	if err := h.DB.First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "client_not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_client", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.Client
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	v := validation.Violations{}
	validation.Required("nom", in.Nom, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	in.ID = 0
	if err := h.DB.Create(&in).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_client", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, in)
}

func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var c models.Client
	if err := h.DB.First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "client_not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_client", nil)
		return
	}
	var in models.Client
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	v := validation.Violations{}
	validation.Required("nom", in.Nom, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	in.ID = c.ID
	in.CreatedAt = c.CreatedAt
	if err := h.DB.Save(&in).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_client", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, in)
}

func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	res := h.DB.Delete(&models.Client{}, id)
	if res.Error != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_client", nil)
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "client_not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusNoContent, nil)
}
