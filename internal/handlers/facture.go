package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/lcharier/gestibat/internal/httpx"
	"github.com/lcharier/gestibat/internal/models"
	"github.com/lcharier/gestibat/internal/services"
)

type FactureHandler struct {
	Service *services.FactureService
	Vendeur services.Vendeur
}

func NewFactureHandler(s *services.FactureService, vendeur services.Vendeur) *FactureHandler {
	return &FactureHandler{Service: s, Vendeur: vendeur}
}

func factureError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrFactureIntrouvable):
		httpx.JSONError(w, http.StatusNotFound, "facture_not_found", nil)
	case errors.Is(err, services.ErrDevisIntrouvable):
		httpx.JSONError(w, http.StatusNotFound, "devis_not_found", nil)
	case errors.Is(err, services.ErrTypeFacture):
		httpx.JSONError(w, http.StatusBadRequest, "invalid_invoice_type", nil)
	case errors.Is(err, services.ErrMontantInvalide):
		httpx.JSONError(w, http.StatusBadRequest, "invalid_amount", nil)
	case errors.Is(err, services.ErrModeReglement):
		httpx.JSONError(w, http.StatusBadRequest, "invalid_payment_mode", nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

func (h *FactureHandler) List(w http.ResponseWriter, r *http.Request) {
	factures, err := h.Service.Lister()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_factures", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, factures)
}

func (h *FactureHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	f, err := h.Service.Charger(id)
	if err != nil {
		factureError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"facture":       f,
		"net_a_payer":   services.NetAPayer(f),
		"reste_a_payer": services.ResteAPayer(f),
	})
}

// GenerateFromDevis issues a new invoice against a quote.
func (h *FactureHandler) GenerateFromDevis(w http.ResponseWriter, r *http.Request) {
	devisID, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var in services.GenerationFacture
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	f, err := h.Service.GenererDepuisDevis(devisID, in)
	if err != nil {
		factureError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, f)
}

func (h *FactureHandler) ListByDevis(w http.ResponseWriter, r *http.Request) {
	devisID, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	factures, err := h.Service.ListerParDevis(devisID)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_factures", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, factures)
}

func (h *FactureHandler) AddReglement(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var in models.Reglement
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	f, err := h.Service.EnregistrerReglement(id, in)
	if err != nil {
		factureError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"facture":       f,
		"reste_a_payer": services.ResteAPayer(f),
	})
}

func (h *FactureHandler) Annuler(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	f, err := h.Service.Annuler(id)
	if err != nil {
		factureError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, f)
}

func (h *FactureHandler) LibererRetenue(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	f, err := h.Service.LibererRetenue(id)
	if err != nil {
		factureError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, f)
}

func (h *FactureHandler) PDF(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	f, err := h.Service.Charger(id)
	if err != nil {
		factureError(w, err)
		return
	}
	pdf, err := services.GenererPDF(f, h.Vendeur)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_generate_pdf", nil)
		return
	}
	httpx.Attachment(w, "application/pdf", fmt.Sprintf("facture_%s.pdf", f.Reference), pdf)
}

func (h *FactureHandler) FacturX(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	f, err := h.Service.Charger(id)
	if err != nil {
		factureError(w, err)
		return
	}
	xml, err := services.GenererFacturX(f, h.Vendeur)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_generate_facturx", nil)
		return
	}
	httpx.Attachment(w, "application/xml", fmt.Sprintf("factur-x_%s.xml", f.Reference), xml)
}
