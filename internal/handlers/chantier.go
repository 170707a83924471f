package handlers

import (
	"errors"
	"net/http"

	"github.com/lcharier/gestibat/internal/httpx"
	"github.com/lcharier/gestibat/internal/models"
	"github.com/lcharier/gestibat/internal/services"
	"github.com/lcharier/gestibat/internal/validation"
)

type ChantierHandler struct {
	Service *services.ChantierService
}

func NewChantierHandler(s *services.ChantierService) *ChantierHandler {
	return &ChantierHandler{Service: s}
}

func chantierError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrChantierIntrouvable):
		httpx.JSONError(w, http.StatusNotFound, "chantier_not_found", nil)
	case errors.Is(err, services.ErrDevisIntrouvable):
		httpx.JSONError(w, http.StatusNotFound, "devis_not_found", nil)
	case errors.Is(err, services.ErrCategorieDepense):
		httpx.JSONError(w, http.StatusBadRequest, "invalid_expense_category", nil)
	case errors.Is(err, services.ErrStatutInvalide):
		httpx.JSONError(w, http.StatusBadRequest, "invalid_status", nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

func (h *ChantierHandler) List(w http.ResponseWriter, r *http.Request) {
	chantiers, err := h.Service.Lister()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_chantiers", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, chantiers)
}

func (h *ChantierHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.Chantier
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
	c, err := h.Service.Creer(in)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_chantier", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *ChantierHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	c, err := h.Service.Charger(id)
	if err != nil {
		chantierError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *ChantierHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var in models.Chantier
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	c, err := h.Service.Modifier(id, in)
	if err != nil {
		chantierError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *ChantierHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := h.Service.Supprimer(id); err != nil {
		chantierError(w, err)
		return
	}
	httpx.JSON(w, http.StatusNoContent, nil)
}

// LinkDevis attaches a devis to the chantier's budget base.
func (h *ChantierHandler) LinkDevis(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var in struct {
		DevisID uint `json:"devis_id"`
	}
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err := h.Service.LierDevis(id, in.DevisID); err != nil {
		chantierError(w, err)
		return
	}
	httpx.JSON(w, http.StatusNoContent, nil)
}

func (h *ChantierHandler) AddPointage(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var in models.Pointage
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	v := validation.Violations{}
	validation.Required("ouvrier", in.Ouvrier, v)
	validation.PositiveFloat("heures", in.Heures, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	p, err := h.Service.AjouterPointage(id, in)
	if err != nil {
		chantierError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *ChantierHandler) DeletePointage(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := h.Service.SupprimerPointage(id); err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_pointage", nil)
		return
	}
	httpx.JSON(w, http.StatusNoContent, nil)
}

func (h *ChantierHandler) AddDepense(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var in models.Depense
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	v := validation.Violations{}
	validation.CategorieDepense("categorie", in.Categorie, v)
	validation.PositiveFloat("montant_ht", in.MontantHT, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	d, err := h.Service.AjouterDepense(id, in)
	if err != nil {
		chantierError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, d)
}

func (h *ChantierHandler) DeleteDepense(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := h.Service.SupprimerDepense(id); err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_depense", nil)
		return
	}
	httpx.JSON(w, http.StatusNoContent, nil)
}

// Suivi returns the budget vs realized comparison.
func (h *ChantierHandler) Suivi(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	suivi, err := h.Service.Suivi(id)
	if err != nil {
		chantierError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, suivi)
}
