package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lcharier/gestibat/internal/config"
	"github.com/lcharier/gestibat/internal/handlers"
	"github.com/lcharier/gestibat/internal/httpx"
	"github.com/lcharier/gestibat/internal/services"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB, cfg config.Config, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	parametresSvc := services.NewParametresService(db)
	catalogueSvc := services.NewCatalogueService(db)
	devisSvc := services.NewDevisService(db, parametresSvc, catalogueSvc)
	chantierSvc := services.NewChantierService(db, parametresSvc)
	factureSvc := services.NewFactureService(db, parametresSvc, devisSvc)
	comptaSvc := services.NewComptaService(parametresSvc, factureSvc)

	vendeur := services.Vendeur{Nom: cfg.EntrepriseNom, NumeroTVA: cfg.EntrepriseTVA}

	// --- Health endpoints ---
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Paramètres
	ph := handlers.NewParametresHandler(parametresSvc)
	mux.HandleFunc("GET /parametres", ph.Get)
	mux.HandleFunc("PUT /parametres", ph.Update)
	mux.HandleFunc("POST /parametres/reinitialiser", ph.Reinitialiser)
	mux.HandleFunc("PUT /parametres/coefficients/{categorie}", ph.SetCoefficient)
	mux.HandleFunc("GET /parametres/cout-horaire", ph.CoutHoraire)
	mux.HandleFunc("PUT /parametres/compteur-devis", ph.RedefinirCompteurDevis)

	// Clients
	ch := handlers.NewClientHandler(db)
	mux.HandleFunc("GET /clients", ch.List)
	mux.HandleFunc("POST /clients", ch.Create)
	mux.HandleFunc("GET /clients/{id}", ch.Get)
	mux.HandleFunc("PUT /clients/{id}", ch.Update)
	mux.HandleFunc("DELETE /clients/{id}", ch.Delete)

	// Catalogue
	ah := handlers.NewArticleHandler(catalogueSvc)
	mux.HandleFunc("GET /articles", ah.List)
	mux.HandleFunc("POST /articles", ah.Create)
	mux.HandleFunc("PUT /articles/{id}", ah.Update)
	mux.HandleFunc("DELETE /articles/{id}", ah.Delete)
	mux.HandleFunc("GET /ouvrages-types", ah.Templates)
	mux.HandleFunc("DELETE /ouvrages-types/{id}", ah.DeleteTemplate)

	// Devis
	dh := handlers.NewDevisHandler(devisSvc, catalogueSvc)
	mux.HandleFunc("GET /devis", dh.List)
	mux.HandleFunc("POST /devis", dh.Create)
	mux.HandleFunc("GET /devis/{id}", dh.Get)
	mux.HandleFunc("PUT /devis/{id}", dh.Update)
	mux.HandleFunc("DELETE /devis/{id}", dh.Delete)
	mux.HandleFunc("PUT /devis/{id}/numero", dh.UpdateNumero)
	mux.HandleFunc("GET /devis/{id}/synthese", dh.Synthese)
	mux.HandleFunc("POST /devis/{id}/lots", dh.AddLot)
	mux.HandleFunc("DELETE /lots/{id}", dh.DeleteLot)
	mux.HandleFunc("POST /lots/{id}/ouvrages", dh.AddOuvrage)
	mux.HandleFunc("POST /lots/{id}/ouvrages/template", dh.AddOuvrageFromTemplate)
	mux.HandleFunc("DELETE /ouvrages/{id}", dh.DeleteOuvrage)
	mux.HandleFunc("POST /ouvrages/{id}/exporter", dh.ExportOuvrage)
	mux.HandleFunc("POST /ouvrages/{id}/lignes", dh.AddLigne)
	mux.HandleFunc("POST /ouvrages/{id}/lignes/article", dh.AddLigneFromArticle)
	mux.HandleFunc("PUT /lignes/{id}", dh.UpdateLigne)
	mux.HandleFunc("DELETE /lignes/{id}", dh.DeleteLigne)
	mux.HandleFunc("POST /lignes/{id}/maj-catalogue/confirmer", dh.ConfirmerMajCatalogue)
	mux.HandleFunc("POST /lignes/{id}/maj-catalogue/refuser", dh.RefuserMajCatalogue)

	// Chantiers
	cth := handlers.NewChantierHandler(chantierSvc)
	mux.HandleFunc("GET /chantiers", cth.List)
	mux.HandleFunc("POST /chantiers", cth.Create)
	mux.HandleFunc("GET /chantiers/{id}", cth.Get)
	mux.HandleFunc("PUT /chantiers/{id}", cth.Update)
	mux.HandleFunc("DELETE /chantiers/{id}", cth.Delete)
	mux.HandleFunc("POST /chantiers/{id}/devis", cth.LinkDevis)
	mux.HandleFunc("POST /chantiers/{id}/pointages", cth.AddPointage)
	mux.HandleFunc("DELETE /pointages/{id}", cth.DeletePointage)
	mux.HandleFunc("POST /chantiers/{id}/depenses", cth.AddDepense)
	mux.HandleFunc("DELETE /depenses/{id}", cth.DeleteDepense)
	mux.HandleFunc("GET /chantiers/{id}/suivi", cth.Suivi)

	// Factures
	fh := handlers.NewFactureHandler(factureSvc, vendeur)
	mux.HandleFunc("GET /factures", fh.List)
	mux.HandleFunc("GET /factures/{id}", fh.Get)
	mux.HandleFunc("POST /devis/{id}/factures", fh.GenerateFromDevis)
	mux.HandleFunc("GET /devis/{id}/factures", fh.ListByDevis)
	mux.HandleFunc("POST /factures/{id}/reglements", fh.AddReglement)
	mux.HandleFunc("POST /factures/{id}/annuler", fh.Annuler)
	mux.HandleFunc("POST /factures/{id}/liberer-retenue", fh.LibererRetenue)
	mux.HandleFunc("GET /factures/{id}/pdf", fh.PDF)
	mux.HandleFunc("GET /factures/{id}/facturx", fh.FacturX)

	// Compta
	coh := handlers.NewComptaHandler(comptaSvc, factureSvc)
	mux.HandleFunc("GET /compta/ecritures", coh.Ecritures)
	mux.HandleFunc("GET /compta/export.csv", coh.ExportCSV)
	mux.HandleFunc("GET /compta/export.xlsx", coh.ExportExcel)

	return withRecover(withLogging(mux, logger), logger)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func withLogging(next http.Handler, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func withRecover(next http.Handler, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
				)
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
