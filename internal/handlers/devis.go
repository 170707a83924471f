package handlers

import (
	"errors"
	"net/http"

	"github.com/lcharier/gestibat/internal/httpx"
	"github.com/lcharier/gestibat/internal/models"
	"github.com/lcharier/gestibat/internal/services"
	"github.com/lcharier/gestibat/internal/validation"
)

type DevisHandler struct {
	Service   *services.DevisService
	Catalogue *services.CatalogueService
}

func NewDevisHandler(s *services.DevisService, c *services.CatalogueService) *DevisHandler {
	return &DevisHandler{Service: s, Catalogue: c}
}

func devisError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrDevisIntrouvable):
		httpx.JSONError(w, http.StatusNotFound, "devis_not_found", nil)
	case errors.Is(err, services.ErrLotIntrouvable):
		httpx.JSONError(w, http.StatusNotFound, "lot_not_found", nil)
	case errors.Is(err, services.ErrOuvrageIntrouvable):
		httpx.JSONError(w, http.StatusNotFound, "ouvrage_not_found", nil)
	case errors.Is(err, services.ErrLigneIntrouvable):
		httpx.JSONError(w, http.StatusNotFound, "ligne_not_found", nil)
	case errors.Is(err, services.ErrArticleIntrouvable):
		httpx.JSONError(w, http.StatusNotFound, "article_not_found", nil)
	case errors.Is(err, services.ErrTemplateIntrouvable):
		httpx.JSONError(w, http.StatusNotFound, "template_not_found", nil)
	case errors.Is(err, services.ErrStatutInvalide):
		httpx.JSONError(w, http.StatusBadRequest, "invalid_status", nil)
	case errors.Is(err, services.ErrModeInvalide):
		httpx.JSONError(w, http.StatusBadRequest, "invalid_pricing_mode", nil)
	case errors.Is(err, services.ErrCompteurInvalide):
		httpx.JSONError(w, http.StatusBadRequest, "compteur_invalide", nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

func (h *DevisHandler) List(w http.ResponseWriter, r *http.Request) {
	devis, err := h.Service.Lister()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_devis", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, devis)
}

func (h *DevisHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ClientID    *uint  `json:"client_id"`
		Description string `json:"description"`
	}
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	d, err := h.Service.Creer(in.ClientID, in.Description)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_devis", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, d)
}

func (h *DevisHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	d, err := h.Service.Charger(id)
	if err != nil {
		devisError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *DevisHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var in models.Devis
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	d, err := h.Service.Modifier(id, in)
	if err != nil {
		devisError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *DevisHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := h.Service.Supprimer(id); err != nil {
		devisError(w, err)
		return
	}
	httpx.JSON(w, http.StatusNoContent, nil)
}

// UpdateNumero handles a manual reference edit; the shared counter follows.
func (h *DevisHandler) UpdateNumero(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var in struct {
		Numero int `json:"numero"`
	}
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	d, err := h.Service.ModifierNumero(id, in.Numero)
	if err != nil {
		devisError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *DevisHandler) Synthese(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	syn, err := h.Service.Synthese(id)
	if err != nil {
		devisError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, syn)
}

func (h *DevisHandler) AddLot(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var in struct {
		Titre string `json:"titre"`
	}
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	v := validation.Violations{}
	validation.Required("titre", in.Titre, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	lot, err := h.Service.AjouterLot(id, in.Titre)
	if err != nil {
		devisError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, lot)
}

func (h *DevisHandler) DeleteLot(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := h.Service.SupprimerLot(id); err != nil {
		devisError(w, err)
		return
	}
	httpx.JSON(w, http.StatusNoContent, nil)
}

func (h *DevisHandler) AddOuvrage(w http.ResponseWriter, r *http.Request) {
	lotID, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var in models.Ouvrage
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	v := validation.Violations{}
	validation.Required("designation", in.Designation, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	o, err := h.Service.AjouterOuvrage(lotID, in)
	if err != nil {
		devisError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, o)
}

// AddOuvrageFromTemplate instantiates a catalog template into the lot.
func (h *DevisHandler) AddOuvrageFromTemplate(w http.ResponseWriter, r *http.Request) {
	lotID, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var in struct {
		TemplateID uint `json:"template_id"`
	}
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	o, err := h.Service.InsererOuvrageDepuisTemplate(lotID, in.TemplateID)
	if err != nil {
		devisError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, o)
}

func (h *DevisHandler) DeleteOuvrage(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := h.Service.SupprimerOuvrage(id); err != nil {
		devisError(w, err)
		return
	}
	httpx.JSON(w, http.StatusNoContent, nil)
}

// ExportOuvrage saves a document ouvrage into the catalog as a template.
func (h *DevisHandler) ExportOuvrage(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var o models.Ouvrage
	if err := h.Service.DB.Preload("Lignes").First(&o, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "ouvrage_not_found", nil)
		return
	}
	t, err := h.Catalogue.ExporterOuvrage(&o)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_export_ouvrage", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, t)
}

func (h *DevisHandler) AddLigne(w http.ResponseWriter, r *http.Request) {
	ouvrageID, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	// TauxTVA is a pointer so an explicit "taux_tva": 0 survives decoding
	// instead of being stamped with the category default.
	var in struct {
		models.LigneDebourse
		TauxTVA *float64 `json:"taux_tva"`
	}
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	v := validation.Violations{}
	validation.Required("designation", in.Designation, v)
	validation.Categorie("categorie", in.Categorie, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	l, err := h.Service.AjouterLigne(ouvrageID, in.LigneDebourse, in.TauxTVA)
	if err != nil {
		devisError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, l)
}

// AddLigneFromArticle copies a catalog article into the ouvrage.
func (h *DevisHandler) AddLigneFromArticle(w http.ResponseWriter, r *http.Request) {
	ouvrageID, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var in struct {
		ArticleID uint `json:"article_id"`
	}
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	l, err := h.Service.AjouterLigneDepuisArticle(ouvrageID, in.ArticleID)
	if err != nil {
		devisError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, l)
}

// UpdateLigne edits a line. The response carries the saved line plus, when a
// linked catalog price drifted, the pending update the client must confirm or
// decline.
func (h *DevisHandler) UpdateLigne(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var in models.LigneDebourse
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	l, maj, err := h.Service.ModifierLigne(id, in)
	if err != nil {
		devisError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"ligne": l, "maj_catalogue": maj})
}

func (h *DevisHandler) DeleteLigne(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := h.Service.SupprimerLigne(id); err != nil {
		devisError(w, err)
		return
	}
	httpx.JSON(w, http.StatusNoContent, nil)
}

func (h *DevisHandler) ConfirmerMajCatalogue(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := h.Service.ConfirmerMajCatalogue(id); err != nil {
		devisError(w, err)
		return
	}
	httpx.JSON(w, http.StatusNoContent, nil)
}

func (h *DevisHandler) RefuserMajCatalogue(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := h.Service.RefuserMajCatalogue(id); err != nil {
		devisError(w, err)
		return
	}
	httpx.JSON(w, http.StatusNoContent, nil)
}
