// Package services holds the computational core: line pricing, document
// aggregation, chantier reporting and the export generators. The pricing and
// aggregation functions are pure; persistence lives in the *Service types.
package services

import "github.com/lcharier/gestibat/internal/models"

// Debourse is the raw cost of a line: quantité × prix unitaire déboursé.
// Negative or zero inputs flow through unchanged; validation is a presentation
// concern and the arithmetic must never fault.
func Debourse(l models.LigneDebourse) float64 {
	return l.Quantite * l.PrixUnitaire
}

// PrixVente is the sell price in COEFFICIENT mode: the coefficient alone turns
// raw cost into the client price.
func PrixVente(l models.LigneDebourse) float64 {
	return Debourse(l) * l.Coefficient
}

// PrixVenteMarge is the sell price in COEFFICIENT_MARGE mode: the coefficient
// covers charged cost, then a separate margin percentage is applied on top.
// The line-level override wins over the document's global bénéfice.
func PrixVenteMarge(l models.LigneDebourse, beneficeGlobal float64) float64 {
	benefice := beneficeGlobal
	if l.Benefice != nil {
		benefice = *l.Benefice
	}
	return Debourse(l) * l.Coefficient * (1 + benefice/100)
}

// MontantTVA computes the VAT amount on a sell price.
func MontantTVA(prixVente, tauxTVA float64) float64 {
	return prixVente * tauxTVA / 100
}

// prixVentePourMode dispatches on the document's pricing mode. The two modes
// stay numerically independent: a coefficient that already encodes the margin
// is never combined with a separate margin percentage.
func prixVentePourMode(l models.LigneDebourse, mode string, beneficeGlobal float64) float64 {
	if mode == models.ModeCoefficientMarge {
		return PrixVenteMarge(l, beneficeGlobal)
	}
	return PrixVente(l)
}

// CalculeCoutHoraire derives the average hourly labor cost from payroll inputs:
// masse salariale divided by productive hours, where productive hours discount
// the paid hours by the unproductivity percentage. ok is false when the inputs
// cannot produce a meaningful figure; callers must treat that as "insufficient
// data", never as zero.
func CalculeCoutHoraire(masseSalariale, heuresPayees, improductivitePct float64) (float64, bool) {
	if masseSalariale <= 0 || heuresPayees <= 0 {
		return 0, false
	}
	heuresProductives := heuresPayees * (1 - improductivitePct/100)
	if heuresProductives <= 0 {
		return 0, false
	}
	return masseSalariale / heuresProductives, true
}
