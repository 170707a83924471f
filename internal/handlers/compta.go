package handlers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/lcharier/gestibat/internal/httpx"
	"github.com/lcharier/gestibat/internal/services"
)

type ComptaHandler struct {
	Service  *services.ComptaService
	Factures *services.FactureService
}

func NewComptaHandler(s *services.ComptaService, f *services.FactureService) *ComptaHandler {
	return &ComptaHandler{Service: s, Factures: f}
}

func (h *ComptaHandler) ecritures() ([]services.LigneEcriture, error) {
	factures, err := h.Factures.Lister()
	if err != nil {
		return nil, err
	}
	return h.Service.GenererEcritures(factures)
}

// Ecritures returns the sales journal as JSON for on-screen review.
func (h *ComptaHandler) Ecritures(w http.ResponseWriter, r *http.Request) {
	ecritures, err := h.ecritures()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_generate_journal", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, ecritures)
}

// ExportCSV downloads the journal in the semicolon-separated French layout.
func (h *ComptaHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	ecritures, err := h.ecritures()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_generate_journal", nil)
		return
	}
	var buf bytes.Buffer
	if err := services.EcrireCSV(&buf, ecritures); err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_write_csv", nil)
		return
	}
	filename := "export_compta_" + time.Now().Format("2006-01-02") + ".csv"
	httpx.Attachment(w, "text/csv; charset=utf-8", filename, buf.Bytes())
}

// ExportExcel downloads the journal as an .xlsx workbook.
func (h *ComptaHandler) ExportExcel(w http.ResponseWriter, r *http.Request) {
	ecritures, err := h.ecritures()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_generate_journal", nil)
		return
	}
	body, err := services.EcrireExcel(ecritures)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_write_excel", nil)
		return
	}
	filename := "export_compta_" + time.Now().Format("2006-01-02") + ".xlsx"
	httpx.Attachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", filename, body)
}
