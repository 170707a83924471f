package services

import (
	"sort"

	"github.com/lcharier/gestibat/internal/models"
)

// Synthese is the financial rollup of one devis. Every figure is defined for
// the empty document: sums are 0 and the guarded ratios (marge %, MBH) report 0
// instead of NaN when their denominator is 0.
type Synthese struct {
	TotalHeures float64 `json:"total_heures"`

	DebourseParCategorie map[models.Categorie]float64 `json:"debourse_par_categorie"`
	VenteParCategorie    map[models.Categorie]float64 `json:"vente_par_categorie"`

	TotalDebourse float64 `json:"total_debourse"`
	TotalVente    float64 `json:"total_vente"`

	Marge         float64 `json:"marge"`
	MargePourcent float64 `json:"marge_pourcent"`
	// Marge brute horaire: marge globale / heures MOD. L'indicateur de pilotage
	// central de l'application.
	MBH float64 `json:"mbh"`

	// Ventilation par taux, triée par taux croissant. Une map clé float64 ne
	// passe pas encoding/json.
	TVAParTaux []VentilationTVA `json:"tva_par_taux"`
	TotalTVA   float64          `json:"total_tva"`
	TotalTTC   float64          `json:"total_ttc"`
}

// VentilationTVA is the VAT collected at one rate.
type VentilationTVA struct {
	Taux    float64 `json:"taux"`
	Montant float64 `json:"montant"`
}

// TVAPour returns the VAT amount collected at the given rate, 0 when the
// document has no line at that rate.
func (s Synthese) TVAPour(taux float64) float64 {
	for _, v := range s.TVAParTaux {
		if v.Taux == taux {
			return v.Montant
		}
	}
	return 0
}

// SyntheseOuvrage is the déboursé / prix de vente pair displayed on each
// ouvrage row.
type SyntheseOuvrage struct {
	TotalDebourse float64 `json:"total_debourse"`
	TotalVente    float64 `json:"total_vente"`
}

// CalculeSynthese walks lots → ouvrages → lignes and aggregates. Grouping is
// purely organizational: the result only depends on the multiset of lines, so
// reordering sections or ouvrages never changes a total.
func CalculeSynthese(d *models.Devis) Synthese {
	s := Synthese{
		DebourseParCategorie: make(map[models.Categorie]float64, 4),
		VenteParCategorie:    make(map[models.Categorie]float64, 4),
	}
	tvaParTaux := make(map[float64]float64)
	for _, c := range models.Categories() {
		s.DebourseParCategorie[c] = 0
		s.VenteParCategorie[c] = 0
	}

	for _, lot := range d.Lots {
		for _, o := range lot.Ouvrages {
			for _, l := range o.Lignes {
				debourse := Debourse(l)
				vente := prixVentePourMode(l, d.ModeCalcul, d.Benefice)

				s.DebourseParCategorie[l.Categorie] += debourse
				s.VenteParCategorie[l.Categorie] += vente
				s.TotalDebourse += debourse
				s.TotalVente += vente

				if l.Categorie == models.CategorieMOD {
					s.TotalHeures += l.Quantite
				}
				tvaParTaux[l.TauxTVA] += MontantTVA(vente, l.TauxTVA)
			}
		}
	}

	s.Marge = s.TotalVente - s.TotalDebourse
	if s.TotalVente != 0 {
		s.MargePourcent = s.Marge / s.TotalVente * 100
	}
	if s.TotalHeures != 0 {
		s.MBH = s.Marge / s.TotalHeures
	}
	for taux, montant := range tvaParTaux {
		s.TVAParTaux = append(s.TVAParTaux, VentilationTVA{Taux: taux, Montant: montant})
		s.TotalTVA += montant
	}
	sort.Slice(s.TVAParTaux, func(i, j int) bool { return s.TVAParTaux[i].Taux < s.TVAParTaux[j].Taux })
	s.TotalTTC = s.TotalVente + s.TotalTVA
	return s
}

// CalculeSyntheseOuvrage totals one ouvrage's lines under the given document
// mode.
func CalculeSyntheseOuvrage(o *models.Ouvrage, mode string, beneficeGlobal float64) SyntheseOuvrage {
	var so SyntheseOuvrage
	for _, l := range o.Lignes {
		so.TotalDebourse += Debourse(l)
		so.TotalVente += prixVentePourMode(l, mode, beneficeGlobal)
	}
	return so
}

// CalculeSyntheseLot totals every ouvrage of a lot.
func CalculeSyntheseLot(lot *models.Lot, mode string, beneficeGlobal float64) SyntheseOuvrage {
	var sl SyntheseOuvrage
	for i := range lot.Ouvrages {
		so := CalculeSyntheseOuvrage(&lot.Ouvrages[i], mode, beneficeGlobal)
		sl.TotalDebourse += so.TotalDebourse
		sl.TotalVente += so.TotalVente
	}
	return sl
}
