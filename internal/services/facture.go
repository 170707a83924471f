package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/lcharier/gestibat/internal/models"
)

var (
	ErrFactureIntrouvable = errors.New("facture_introuvable")
	ErrTypeFacture        = errors.New("type_facture_invalide")
	ErrMontantInvalide    = errors.New("montant_invalide")
	ErrModeReglement      = errors.New("mode_reglement_invalide")
)

var modesReglement = map[string]bool{
	models.ReglementVirement:     true,
	models.ReglementCheque:       true,
	models.ReglementEspeces:      true,
	models.ReglementCB:           true,
	models.ReglementBilletAOrdre: true,
}

// GenerationFacture is the input of facture generation from a devis.
// Pourcentage and MontantFixe are exclusive; for SOLDE and GLOBALE the amount
// derives from the devis and both are ignored.
type GenerationFacture struct {
	Type            string  `json:"type"`
	Pourcentage     float64 `json:"pourcentage,omitempty"`
	MontantFixe     float64 `json:"montant_fixe,omitempty"`
	RetenueGarantie bool    `json:"retenue_garantie"`
	TauxRetenue     float64 `json:"taux_retenue,omitempty"`
	EcheanceJours   int     `json:"echeance_jours,omitempty"`
}

// FactureService generates and settles invoices downstream of accepted quotes.
type FactureService struct {
	DB         *gorm.DB
	Parametres *ParametresService
	Devis      *DevisService
}

func NewFactureService(db *gorm.DB, p *ParametresService, d *DevisService) *FactureService {
	return &FactureService{DB: db, Parametres: p, Devis: d}
}

func (s *FactureService) Charger(id uint) (*models.Facture, error) {
	var f models.Facture
	err := s.DB.
		Preload("AcomptesDeduits").
		Preload("Reglements", func(db *gorm.DB) *gorm.DB { return db.Order("date") }).
		First(&f, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFactureIntrouvable
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *FactureService) Lister() ([]models.Facture, error) {
	var factures []models.Facture
	err := s.DB.Preload("Reglements").Order("date_emission DESC").Find(&factures).Error
	if err != nil {
		return nil, err
	}
	return factures, nil
}

func (s *FactureService) ListerParDevis(devisID uint) ([]models.Facture, error) {
	var factures []models.Facture
	err := s.DB.Preload("Reglements").Where("devis_id = ?", devisID).Order("date_emission").Find(&factures).Error
	if err != nil {
		return nil, err
	}
	return factures, nil
}

// GenererDepuisDevis creates an invoice from a quote.
//   - ACOMPTE / AVANCEMENT: HT is a percentage of the quote's total HT, or a
//     fixed amount.
//   - SOLDE: HT is the quote total minus the deposits already invoiced, floored
//     at 0; each deducted deposit is recorded on the invoice.
//   - GLOBALE: HT is the full quote total.
//
// VAT uses the quote's own line-weighted effective rate so a mixed-rate quote
// invoices at the same blended rate it was sold at. The retention guarantee
// applies to SOLDE and GLOBALE only: its amount is a percentage of the full
// quote HT and its release date falls one year after issuance.
func (s *FactureService) GenererDepuisDevis(devisID uint, in GenerationFacture) (*models.Facture, error) {
	d, err := s.Devis.Charger(devisID)
	if err != nil {
		return nil, err
	}
	p, err := s.Parametres.Get()
	if err != nil {
		return nil, err
	}

	syn := CalculeSynthese(d)
	montantBase := syn.TotalVente
	tauxEffectif := p.TauxTVANormal
	if syn.TotalVente != 0 {
		tauxEffectif = syn.TotalTVA / syn.TotalVente * 100
	}

	var ht float64
	var acomptesDeduits []models.AcompteDeduit
	switch in.Type {
	case models.FactureAcompte, models.FactureAvancement:
		if in.MontantFixe > 0 {
			ht = in.MontantFixe
		} else {
			ht = montantBase * in.Pourcentage / 100
		}
		if ht <= 0 {
			return nil, ErrMontantInvalide
		}
	case models.FactureSolde:
		acomptes, err := s.acomptesEmis(devisID)
		if err != nil {
			return nil, err
		}
		var totalAcomptes float64
		for _, a := range acomptes {
			totalAcomptes += a.MontantHT
			acomptesDeduits = append(acomptesDeduits, models.AcompteDeduit{
				FactureAcompteID: a.ID,
				MontantDeduit:    a.MontantHT,
			})
		}
		ht = montantBase - totalAcomptes
		if ht < 0 {
			ht = 0
		}
	case models.FactureGlobale:
		ht = montantBase
	default:
		return nil, ErrTypeFacture
	}

	tva := ht * tauxEffectif / 100
	now := time.Now()
	echeance := in.EcheanceJours
	if echeance <= 0 {
		echeance = 30
	}

	numero, err := s.Parametres.ConsommerNumeroFacture()
	if err != nil {
		return nil, err
	}

	f := models.Facture{
		Reference:    ReferenceFacture(now.Year(), numero),
		Type:         in.Type,
		Statut:       models.FactureEmise,
		DevisID:      &d.ID,
		ClientID:     d.ClientID,
		DateEmission: now,
		DateEcheance: now.AddDate(0, 0, echeance),
		MontantHT:    ht,
		MontantTVA:   tva,
		MontantTTC:   ht + tva,
	}
	if d.Client != nil {
		f.ClientNom = d.Client.Nom
	}
	if in.RetenueGarantie && (in.Type == models.FactureSolde || in.Type == models.FactureGlobale) {
		liberation := now.AddDate(1, 0, 0)
		f.RetenueGarantie = true
		f.TauxRetenueGarantie = in.TauxRetenue
		f.MontantRetenueGarantie = montantBase * in.TauxRetenue / 100
		f.DateLiberationRetenue = &liberation
	}
	f.AcomptesDeduits = acomptesDeduits

	if err := s.DB.Create(&f).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *FactureService) acomptesEmis(devisID uint) ([]models.Facture, error) {
	var acomptes []models.Facture
	err := s.DB.
		Where("devis_id = ? AND type = ? AND statut <> ?", devisID, models.FactureAcompte, models.FactureAnnulee).
		Order("date_emission").
		Find(&acomptes).Error
	return acomptes, err
}

// NetAPayer is the amount the client actually owes on this invoice: TTC minus
// the retention held back until release.
func NetAPayer(f *models.Facture) float64 {
	net := f.MontantTTC
	if f.RetenueGarantie && !f.RetenueLiberee {
		net -= f.MontantRetenueGarantie
	}
	return net
}

// TotalRegle sums the recorded payments.
func TotalRegle(f *models.Facture) float64 {
	var total float64
	for _, r := range f.Reglements {
		total += r.Montant
	}
	return total
}

// ResteAPayer is the outstanding balance, floored at 0 for overpayments.
func ResteAPayer(f *models.Facture) float64 {
	reste := NetAPayer(f) - TotalRegle(f)
	if reste < 0 {
		return 0
	}
	return reste
}

// EnregistrerReglement records a payment and moves the invoice status to
// PAYEE_PARTIELLEMENT or PAYEE according to the running total.
func (s *FactureService) EnregistrerReglement(factureID uint, r models.Reglement) (*models.Facture, error) {
	f, err := s.Charger(factureID)
	if err != nil {
		return nil, err
	}
	if r.Montant <= 0 {
		return nil, ErrMontantInvalide
	}
	if !modesReglement[r.Mode] {
		return nil, ErrModeReglement
	}
	r.FactureID = f.ID
	if r.Date.IsZero() {
		r.Date = time.Now()
	}
	if err := s.DB.Create(&r).Error; err != nil {
		return nil, err
	}

	f.Reglements = append(f.Reglements, r)
	if TotalRegle(f) >= NetAPayer(f) {
		f.Statut = models.FacturePayee
	} else {
		f.Statut = models.FacturePayeePartiellement
	}
	if err := s.DB.Model(f).Update("statut", f.Statut).Error; err != nil {
		return nil, err
	}
	return f, nil
}

// LibererRetenue marks the retention guarantee as released. The retained
// amount then re-enters the outstanding balance.
func (s *FactureService) LibererRetenue(factureID uint) (*models.Facture, error) {
	f, err := s.Charger(factureID)
	if err != nil {
		return nil, err
	}
	if !f.RetenueGarantie {
		return nil, ErrFactureIntrouvable
	}
	f.RetenueLiberee = true
	if f.Statut == models.FacturePayee && ResteAPayer(f) > 0 {
		f.Statut = models.FacturePayeePartiellement
	}
	if err := s.DB.Save(f).Error; err != nil {
		return nil, err
	}
	return f, nil
}

// Annuler voids an invoice. Payments already recorded stay attached for audit.
func (s *FactureService) Annuler(factureID uint) (*models.Facture, error) {
	f, err := s.Charger(factureID)
	if err != nil {
		return nil, err
	}
	f.Statut = models.FactureAnnulee
	if err := s.DB.Model(f).Update("statut", f.Statut).Error; err != nil {
		return nil, err
	}
	return f, nil
}
