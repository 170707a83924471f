package services

import (
	"encoding/json"
	"testing"

	"github.com/lcharier/gestibat/internal/models"
)

// devisExemple is the reference document: one lot, one ouvrage, 8h of MOD at
// 23.50 ×1.15 and one supply at 310.20 ×1.10, both at 20% VAT.
func devisExemple() *models.Devis {
	return &models.Devis{
		ModeCalcul: models.ModeCoefficient,
		Lots: []models.Lot{{
			Titre: "Gros œuvre",
			Ouvrages: []models.Ouvrage{{
				Designation: "Mur de refend",
				Lignes: []models.LigneDebourse{
					{Designation: "Maçon", Quantite: 8, PrixUnitaire: 23.50, Categorie: models.CategorieMOD, Coefficient: 1.15, TauxTVA: 20},
					{Designation: "Fournitures", Quantite: 1, PrixUnitaire: 310.20, Categorie: models.CategorieFourniture, Coefficient: 1.10, TauxTVA: 20},
				},
			}},
		}},
	}
}

func TestCalculeSyntheseExemple(t *testing.T) {
	syn := CalculeSynthese(devisExemple())

	if !almostEqual(syn.DebourseParCategorie[models.CategorieMOD], 188.00) {
		t.Fatalf("debourse MOD = %v, want 188.00", syn.DebourseParCategorie[models.CategorieMOD])
	}
	if !almostEqual(syn.VenteParCategorie[models.CategorieMOD], 216.20) {
		t.Fatalf("vente MOD = %v, want 216.20", syn.VenteParCategorie[models.CategorieMOD])
	}
	if !almostEqual(syn.VenteParCategorie[models.CategorieFourniture], 341.22) {
		t.Fatalf("vente fourniture = %v, want 341.22", syn.VenteParCategorie[models.CategorieFourniture])
	}
	if !almostEqual(syn.TotalVente, 557.42) {
		t.Fatalf("total vente = %v, want 557.42", syn.TotalVente)
	}
	if syn.TotalHeures != 8 {
		t.Fatalf("total heures = %v, want 8", syn.TotalHeures)
	}
	if !almostEqual(syn.TotalDebourse, 498.20) {
		t.Fatalf("total debourse = %v, want 498.20", syn.TotalDebourse)
	}
	if !almostEqual(syn.Marge, 59.22) {
		t.Fatalf("marge = %v, want 59.22", syn.Marge)
	}
	if !almostEqual(syn.MBH, 7.4025) {
		t.Fatalf("mbh = %v, want 7.4025", syn.MBH)
	}
	if !almostEqual(syn.TotalTVA, 111.484) {
		t.Fatalf("total tva = %v, want 111.484", syn.TotalTVA)
	}
	if !almostEqual(syn.TotalTTC, 668.904) {
		t.Fatalf("total ttc = %v, want 668.904", syn.TotalTTC)
	}
}

func TestSyntheseDocumentVide(t *testing.T) {
	syn := CalculeSynthese(&models.Devis{ModeCalcul: models.ModeCoefficient})
	if syn.TotalVente != 0 || syn.TotalDebourse != 0 || syn.TotalTVA != 0 || syn.TotalTTC != 0 {
		t.Fatalf("empty document should total 0, got %+v", syn)
	}
	// zéro gardé, jamais NaN ni Inf
	if syn.MargePourcent != 0 {
		t.Fatalf("marge%% with 0 vente = %v, want 0", syn.MargePourcent)
	}
	if syn.MBH != 0 {
		t.Fatalf("mbh with 0 heures = %v, want 0", syn.MBH)
	}
}

func TestSyntheseSansMODGardeMBH(t *testing.T) {
	d := &models.Devis{
		ModeCalcul: models.ModeCoefficient,
		Lots: []models.Lot{{Ouvrages: []models.Ouvrage{{
			Lignes: []models.LigneDebourse{
				{Quantite: 5, PrixUnitaire: 100, Categorie: models.CategorieFourniture, Coefficient: 1.2, TauxTVA: 20},
			},
		}}}},
	}
	syn := CalculeSynthese(d)
	if syn.TotalHeures != 0 {
		t.Fatalf("heures = %v, want 0", syn.TotalHeures)
	}
	if syn.MBH != 0 {
		t.Fatalf("mbh = %v, want 0", syn.MBH)
	}
	if !almostEqual(syn.Marge, 100) {
		t.Fatalf("marge = %v, want 100", syn.Marge)
	}
}

// The rollup only depends on the multiset of lines, not on how they are
// grouped into lots and ouvrages.
func TestSyntheseIndependanteDuGroupement(t *testing.T) {
	lignes := []models.LigneDebourse{
		{Quantite: 8, PrixUnitaire: 23.50, Categorie: models.CategorieMOD, Coefficient: 1.15, TauxTVA: 20},
		{Quantite: 1, PrixUnitaire: 310.20, Categorie: models.CategorieFourniture, Coefficient: 1.10, TauxTVA: 20},
		{Quantite: 3, PrixUnitaire: 85, Categorie: models.CategorieMateriel, Coefficient: 1.05, TauxTVA: 20},
		{Quantite: 1, PrixUnitaire: 1850, Categorie: models.CategorieSousTraitance, Coefficient: 1.08, TauxTVA: 10},
	}

	groupe := &models.Devis{ModeCalcul: models.ModeCoefficient, Lots: []models.Lot{
		{Ouvrages: []models.Ouvrage{{Lignes: lignes}}},
	}}
	eclate := &models.Devis{ModeCalcul: models.ModeCoefficient, Lots: []models.Lot{
		{Ouvrages: []models.Ouvrage{{Lignes: lignes[:1]}, {Lignes: lignes[1:2]}}},
		{Ouvrages: []models.Ouvrage{{Lignes: lignes[2:]}}},
	}}

	a := CalculeSynthese(groupe)
	b := CalculeSynthese(eclate)
	if !almostEqual(a.TotalVente, b.TotalVente) || !almostEqual(a.TotalDebourse, b.TotalDebourse) {
		t.Fatalf("grouping changed totals: %v/%v vs %v/%v", a.TotalVente, a.TotalDebourse, b.TotalVente, b.TotalDebourse)
	}
	if !almostEqual(a.TotalTVA, b.TotalTVA) || !almostEqual(a.TotalTTC, b.TotalTTC) {
		t.Fatalf("grouping changed VAT: %v/%v vs %v/%v", a.TotalTVA, a.TotalTTC, b.TotalTVA, b.TotalTTC)
	}

	// totaux = somme des sous-totaux par catégorie
	var sommeVente, sommeDebourse float64
	for _, c := range models.Categories() {
		sommeVente += a.VenteParCategorie[c]
		sommeDebourse += a.DebourseParCategorie[c]
	}
	if !almostEqual(sommeVente, a.TotalVente) || !almostEqual(sommeDebourse, a.TotalDebourse) {
		t.Fatalf("category subtotals do not sum to totals")
	}
}

func TestSyntheseVentilationTVA(t *testing.T) {
	d := &models.Devis{
		ModeCalcul: models.ModeCoefficient,
		Lots: []models.Lot{{Ouvrages: []models.Ouvrage{{
			Lignes: []models.LigneDebourse{
				{Quantite: 1, PrixUnitaire: 100, Categorie: models.CategorieFourniture, Coefficient: 1, TauxTVA: 20},
				{Quantite: 1, PrixUnitaire: 200, Categorie: models.CategorieFourniture, Coefficient: 1, TauxTVA: 10},
				{Quantite: 1, PrixUnitaire: 50, Categorie: models.CategorieSousTraitance, Coefficient: 1, TauxTVA: 10},
				{Quantite: 1, PrixUnitaire: 40, Categorie: models.CategorieMateriel, Coefficient: 1, TauxTVA: 5.5},
			},
		}}}},
	}
	syn := CalculeSynthese(d)

	if !almostEqual(syn.TVAPour(20), 20) {
		t.Fatalf("tva 20%% = %v, want 20", syn.TVAPour(20))
	}
	if !almostEqual(syn.TVAPour(10), 25) {
		t.Fatalf("tva 10%% = %v, want 25", syn.TVAPour(10))
	}
	if !almostEqual(syn.TVAPour(5.5), 2.2) {
		t.Fatalf("tva 5.5%% = %v, want 2.2", syn.TVAPour(5.5))
	}
	// triée par taux croissant
	for i := 1; i < len(syn.TVAParTaux); i++ {
		if syn.TVAParTaux[i-1].Taux >= syn.TVAParTaux[i].Taux {
			t.Fatalf("ventilation not sorted: %+v", syn.TVAParTaux)
		}
	}

	var somme float64
	for _, v := range syn.TVAParTaux {
		somme += v.Montant
	}
	if !almostEqual(somme, syn.TotalTVA) {
		t.Fatalf("sum of rates %v != total tva %v", somme, syn.TotalTVA)
	}
	if !almostEqual(syn.TotalTTC, syn.TotalVente+syn.TotalTVA) {
		t.Fatalf("ttc %v != vente %v + tva %v", syn.TotalTTC, syn.TotalVente, syn.TotalTVA)
	}
}

func TestSyntheseModeCoefficientMarge(t *testing.T) {
	override := 20.0
	d := &models.Devis{
		ModeCalcul: models.ModeCoefficientMarge,
		Benefice:   10,
		Lots: []models.Lot{{Ouvrages: []models.Ouvrage{{
			Lignes: []models.LigneDebourse{
				{Quantite: 1, PrixUnitaire: 100, Categorie: models.CategorieFourniture, Coefficient: 1.1, TauxTVA: 20},
				{Quantite: 1, PrixUnitaire: 100, Categorie: models.CategorieFourniture, Coefficient: 1.1, TauxTVA: 20, Benefice: &override},
			},
		}}}},
	}
	syn := CalculeSynthese(d)
	// 110×1.10 + 110×1.20
	if !almostEqual(syn.TotalVente, 121+132) {
		t.Fatalf("total vente = %v, want 253", syn.TotalVente)
	}
}

func TestSyntheseSerialiseEnJSON(t *testing.T) {
	body, err := json.Marshal(CalculeSynthese(devisExemple()))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded struct {
		TVAParTaux []VentilationTVA `json:"tva_par_taux"`
		TotalTTC   float64          `json:"total_ttc"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(decoded.TVAParTaux) != 1 || decoded.TVAParTaux[0].Taux != 20 {
		t.Fatalf("ventilation = %+v, want one bucket at 20%%", decoded.TVAParTaux)
	}
	if !almostEqual(decoded.TVAParTaux[0].Montant, 111.484) {
		t.Fatalf("tva 20%% = %v, want 111.484", decoded.TVAParTaux[0].Montant)
	}
	if !almostEqual(decoded.TotalTTC, 668.904) {
		t.Fatalf("ttc = %v, want 668.904", decoded.TotalTTC)
	}
}
