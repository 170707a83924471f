package handlers

import (
	"net/http"

	"github.com/lcharier/gestibat/internal/httpx"
	"github.com/lcharier/gestibat/internal/models"
	"github.com/lcharier/gestibat/internal/services"
	"github.com/lcharier/gestibat/internal/validation"
)

type ParametresHandler struct {
	Service *services.ParametresService
}

func NewParametresHandler(s *services.ParametresService) *ParametresHandler {
	return &ParametresHandler{Service: s}
}

func (h *ParametresHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.Get()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_settings", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *ParametresHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in models.Parametres
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	v := validation.Violations{}
	validation.PositiveFloat("coefficients.mod", in.Coefficients.MOD, v)
	validation.PositiveFloat("coefficients.fourniture", in.Coefficients.Fourniture, v)
	validation.PositiveFloat("coefficients.materiel", in.Coefficients.Materiel, v)
	validation.PositiveFloat("coefficients.sous_traitance", in.Coefficients.SousTraitance, v)
	validation.NonNegativeFloat("cout_horaire_mo", in.CoutHoraireMO, v)
	validation.RangeFloat("coeff_improductivite", in.CoeffImproductivite, 0, 100, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	p, err := h.Service.Update(in)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_settings", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *ParametresHandler) SetCoefficient(w http.ResponseWriter, r *http.Request) {
	categorie := models.Categorie(r.PathValue("categorie"))
	if !categorie.Valide() {
		httpx.JSONError(w, http.StatusBadRequest, "unknown_category", nil)
		return
	}
	var in struct {
		Valeur float64 `json:"valeur"`
	}
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	v := validation.Violations{}
	validation.PositiveFloat("valeur", in.Valeur, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	p, err := h.Service.SetCoefficient(categorie, in.Valeur)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_settings", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *ParametresHandler) Reinitialiser(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.Reinitialiser()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_reset_settings", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

// CoutHoraire reports the payroll-derived hourly cost alongside the manual one.
// disponible=false means the payroll inputs are incomplete, which the UI must
// show as missing data rather than a zero cost.
func (h *ParametresHandler) CoutHoraire(w http.ResponseWriter, r *http.Request) {
	cout, ok, err := h.Service.CoutHoraireCalcule()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_settings", nil)
		return
	}
	resp := map[string]any{"disponible": ok}
	if ok {
		resp["cout_horaire"] = cout
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *ParametresHandler) RedefinirCompteurDevis(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Prochain int `json:"prochain"`
	}
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err := h.Service.RedefinirCompteurDevis(in.Prochain); err != nil {
		if err == services.ErrCompteurInvalide {
			httpx.JSONError(w, http.StatusBadRequest, "compteur_invalide", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_settings", nil)
		return
	}
	httpx.JSON(w, http.StatusNoContent, nil)
}
