package handlers

import (
	"errors"
	"net/http"

	"github.com/lcharier/gestibat/internal/httpx"
	"github.com/lcharier/gestibat/internal/models"
	"github.com/lcharier/gestibat/internal/services"
	"github.com/lcharier/gestibat/internal/validation"
)

type ArticleHandler struct {
	Service *services.CatalogueService
}

func NewArticleHandler(s *services.CatalogueService) *ArticleHandler {
	return &ArticleHandler{Service: s}
}

// List searches the catalog: ?q= filters by text, ?categorie= by category.
func (h *ArticleHandler) List(w http.ResponseWriter, r *http.Request) {
	categorie := models.Categorie(r.URL.Query().Get("categorie"))
	if categorie != "" && !categorie.Valide() {
		httpx.JSONError(w, http.StatusBadRequest, "unknown_category", nil)
		return
	}
	articles, err := h.Service.Rechercher(r.URL.Query().Get("q"), categorie)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_articles", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, articles)
}

func (h *ArticleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.Article
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	v := validation.Violations{}
	validation.Required("designation", in.Designation, v)
	validation.Categorie("categorie", in.Categorie, v)
	validation.NonNegativeFloat("prix_unitaire", in.PrixUnitaire, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	in.ID = 0
	a, err := h.Service.Ajouter(in)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_article", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, a)
}

func (h *ArticleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var in models.Article
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	v := validation.Violations{}
	validation.Required("designation", in.Designation, v)
	validation.Categorie("categorie", in.Categorie, v)
	validation.NonNegativeFloat("prix_unitaire", in.PrixUnitaire, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	a, err := h.Service.Modifier(id, in)
	if err != nil {
		if errors.Is(err, services.ErrArticleIntrouvable) {
			httpx.JSONError(w, http.StatusNotFound, "article_not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_article", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *ArticleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := h.Service.Supprimer(id); err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_article", nil)
		return
	}
	httpx.JSON(w, http.StatusNoContent, nil)
}

// Templates lists the reusable composite ouvrages.
func (h *ArticleHandler) Templates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.Service.ListerTemplates()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_templates", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, templates)
}

func (h *ArticleHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := h.Service.SupprimerTemplate(id); err != nil {
		if errors.Is(err, services.ErrTemplateIntrouvable) {
			httpx.JSONError(w, http.StatusNotFound, "template_not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_template", nil)
		return
	}
	httpx.JSON(w, http.StatusNoContent, nil)
}
