package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/lcharier/gestibat/internal/models"
)

// LigneEcriture is one accounting journal row in the layout the usual French
// packages import (EBP, Ciel, Sage, Cegid):
// Journal | Date | Compte | Libellé | Pièce | Débit | Crédit.
type LigneEcriture struct {
	Journal string  `json:"journal"`
	Date    string  `json:"date"` // DD/MM/YYYY
	Compte  string  `json:"compte"`
	Libelle string  `json:"libelle"`
	Piece   string  `json:"piece"`
	Debit   float64 `json:"debit"`
	Credit  float64 `json:"credit"`
}

const journalVentes = "VTE"

// ComptaService turns issued invoices into balanced sales-journal entries.
type ComptaService struct {
	Parametres *ParametresService
	Factures   *FactureService
}

func NewComptaService(p *ParametresService, f *FactureService) *ComptaService {
	return &ComptaService{Parametres: p, Factures: f}
}

// GenererEcritures emits up to three rows per invoice: client TTC at debit,
// sale HT at credit, VAT at credit when non-zero. Each invoice's rows balance
// by construction since TTC = HT + TVA.
func (s *ComptaService) GenererEcritures(factures []models.Facture) ([]LigneEcriture, error) {
	p, err := s.Parametres.Get()
	if err != nil {
		return nil, err
	}

	var ecritures []LigneEcriture
	for _, f := range factures {
		if f.Statut == models.FactureAnnulee || f.Statut == models.FactureBrouillon {
			continue
		}
		date := f.DateEmission.Format("02/01/2006")

		libelleClient := fmt.Sprintf("Facture %s - %s", f.Reference, f.ClientNom)
		if f.ClientNom == "" {
			libelleClient = fmt.Sprintf("Facture %s - Client", f.Reference)
		}
		ecritures = append(ecritures, LigneEcriture{
			Journal: journalVentes,
			Date:    date,
			Compte:  p.CompteClient,
			Libelle: libelleClient,
			Piece:   f.Reference,
			Debit:   f.MontantTTC,
		})
		ecritures = append(ecritures, LigneEcriture{
			Journal: journalVentes,
			Date:    date,
			Compte:  p.CompteVente,
			Libelle: "Vente " + f.Reference,
			Piece:   f.Reference,
			Credit:  f.MontantHT,
		})
		if f.MontantTVA > 0 {
			ecritures = append(ecritures, LigneEcriture{
				Journal: journalVentes,
				Date:    date,
				Compte:  p.CompteTVA,
				Libelle: "TVA " + f.Reference,
				Piece:   f.Reference,
				Credit:  f.MontantTVA,
			})
		}
	}
	return ecritures, nil
}

// montantFR formats an amount with a decimal comma, the convention the French
// accounting imports expect.
func montantFR(v float64) string {
	return strings.Replace(fmt.Sprintf("%.2f", v), ".", ",", 1)
}

// EcrireCSV streams the journal as semicolon-separated CSV.
func EcrireCSV(w io.Writer, ecritures []LigneEcriture) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write([]string{"Journal", "Date", "Compte", "Libelle", "Piece", "Debit", "Credit"}); err != nil {
		return err
	}
	for _, e := range ecritures {
		rec := []string{
			e.Journal,
			e.Date,
			e.Compte,
			e.Libelle,
			e.Piece,
			montantFR(e.Debit),
			montantFR(e.Credit),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
