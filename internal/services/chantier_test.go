package services

import (
	"testing"

	"github.com/lcharier/gestibat/internal/models"
)

func setupChantierAvecDevis(t *testing.T) (*ChantierService, *DevisService, *models.Chantier) {
	t.Helper()
	db := setupTestDB(t)
	parametres := NewParametresService(db)
	catalogue := NewCatalogueService(db)
	devisSvc := NewDevisService(db, parametres, catalogue)
	chantierSvc := NewChantierService(db, parametres)

	d, err := devisSvc.Creer(nil, "maison individuelle")
	if err != nil {
		t.Fatalf("create devis: %v", err)
	}
	lot, _ := devisSvc.AjouterLot(d.ID, "Gros œuvre")
	o, _ := devisSvc.AjouterOuvrage(lot.ID, models.Ouvrage{Designation: "Fondations"})
	lignes := []models.LigneDebourse{
		{Designation: "Maçon", Quantite: 8, PrixUnitaire: 23.50, Categorie: models.CategorieMOD},
		{Designation: "Béton", Quantite: 1, PrixUnitaire: 310.20, Categorie: models.CategorieFourniture},
	}
	for _, l := range lignes {
		if _, err := devisSvc.AjouterLigne(o.ID, l, nil); err != nil {
			t.Fatalf("add line: %v", err)
		}
	}

	c, err := chantierSvc.Creer(models.Chantier{Nom: "Chantier Dupont"})
	if err != nil {
		t.Fatalf("create chantier: %v", err)
	}
	if err := chantierSvc.LierDevis(c.ID, d.ID); err != nil {
		t.Fatalf("link devis: %v", err)
	}
	c, err = chantierSvc.Charger(c.ID)
	if err != nil {
		t.Fatalf("reload chantier: %v", err)
	}
	return chantierSvc, devisSvc, c
}

func TestCalculeBudgetDepuisSynthese(t *testing.T) {
	chantierSvc, _, c := setupChantierAvecDevis(t)

	budget, err := chantierSvc.CalculeBudget(c)
	if err != nil {
		t.Fatalf("budget: %v", err)
	}
	// 188×1.15 + 310.20×1.10
	if !almostEqual(budget.TotalVenteHT, 557.42) {
		t.Fatalf("budget vente = %v, want 557.42", budget.TotalVenteHT)
	}
	// les heures viennent des lignes MOD du devis, pas d'une constante
	if budget.HeuresVisees != 8 {
		t.Fatalf("heures visées = %v, want 8", budget.HeuresVisees)
	}
	if !almostEqual(budget.VenteParCategorie[models.CategorieMOD], 216.20) {
		t.Fatalf("budget MOD = %v, want 216.20", budget.VenteParCategorie[models.CategorieMOD])
	}
}

func TestCalculeBudgetSansDevisEstZero(t *testing.T) {
	db := setupTestDB(t)
	chantierSvc := NewChantierService(db, NewParametresService(db))
	c, err := chantierSvc.Creer(models.Chantier{Nom: "Chantier vide"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	c, _ = chantierSvc.Charger(c.ID)

	budget, err := chantierSvc.CalculeBudget(c)
	if err != nil {
		t.Fatalf("budget: %v", err)
	}
	if budget.TotalVenteHT != 0 || budget.HeuresVisees != 0 {
		t.Fatalf("empty chantier budget should be zero, got %+v", budget)
	}
}

func TestCalculeReelAvecDefauts(t *testing.T) {
	chantierSvc, _, c := setupChantierAvecDevis(t)

	if _, err := chantierSvc.AjouterPointage(c.ID, models.Pointage{Ouvrier: "Karim", Heures: 12}); err != nil {
		t.Fatalf("pointage: %v", err)
	}
	if _, err := chantierSvc.AjouterDepense(c.ID, models.Depense{Categorie: models.CategorieFourniture, MontantHT: 200}); err != nil {
		t.Fatalf("depense: %v", err)
	}
	c, _ = chantierSvc.Charger(c.ID)

	budget, _ := chantierSvc.CalculeBudget(c)
	reel, err := chantierSvc.CalculeReel(c, budget)
	if err != nil {
		t.Fatalf("reel: %v", err)
	}
	// 12h × 23.50 × 1.15
	if !almostEqual(reel.CoutParCategorie[models.CategorieMOD], 12*23.50*1.15) {
		t.Fatalf("cout MOD = %v", reel.CoutParCategorie[models.CategorieMOD])
	}
	// 200 × 1.10
	if !almostEqual(reel.CoutParCategorie[models.CategorieFourniture], 220) {
		t.Fatalf("cout fourniture = %v, want 220", reel.CoutParCategorie[models.CategorieFourniture])
	}
	attendu := 12*23.50*1.15 + 220
	if !almostEqual(reel.TotalPrixRevient, attendu) {
		t.Fatalf("prix revient = %v, want %v", reel.TotalPrixRevient, attendu)
	}
	if !almostEqual(reel.MargeNette, budget.TotalVenteHT-attendu) {
		t.Fatalf("marge nette = %v", reel.MargeNette)
	}
}

func TestCalculeReelSurchargesChantier(t *testing.T) {
	chantierSvc, _, c := setupChantierAvecDevis(t)

	taux := 28.0
	coeffMOD := 1.30
	coeffFourniture := 1.25
	c.Surcharges = models.SurchargesChantier{
		TauxHoraire: &taux,
		MOD:         &coeffMOD,
		Fourniture:  &coeffFourniture,
	}
	if _, err := chantierSvc.Modifier(c.ID, *c); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := chantierSvc.AjouterPointage(c.ID, models.Pointage{Ouvrier: "Léa", Heures: 10}); err != nil {
		t.Fatalf("pointage: %v", err)
	}
	if _, err := chantierSvc.AjouterDepense(c.ID, models.Depense{Categorie: models.CategorieFourniture, MontantHT: 100}); err != nil {
		t.Fatalf("depense: %v", err)
	}
	if _, err := chantierSvc.AjouterDepense(c.ID, models.Depense{Categorie: models.CategorieMateriel, MontantHT: 100}); err != nil {
		t.Fatalf("depense: %v", err)
	}
	c, _ = chantierSvc.Charger(c.ID)

	reel, err := chantierSvc.CalculeReel(c, BudgetChantier{})
	if err != nil {
		t.Fatalf("reel: %v", err)
	}
	// surcharges chantier: 10 × 28 × 1.30
	if !almostEqual(reel.CoutParCategorie[models.CategorieMOD], 364) {
		t.Fatalf("cout MOD = %v, want 364", reel.CoutParCategorie[models.CategorieMOD])
	}
	if !almostEqual(reel.CoutParCategorie[models.CategorieFourniture], 125) {
		t.Fatalf("cout fourniture = %v, want 125", reel.CoutParCategorie[models.CategorieFourniture])
	}
	// pas de surcharge matériel: retombe sur le défaut global 1.05
	if !almostEqual(reel.CoutParCategorie[models.CategorieMateriel], 105) {
		t.Fatalf("cout materiel = %v, want 105", reel.CoutParCategorie[models.CategorieMateriel])
	}
	// budget vide: marge négative, jamais une faute
	if !almostEqual(reel.MargeNette, -(364 + 125 + 105)) {
		t.Fatalf("marge nette = %v", reel.MargeNette)
	}
	if reel.MargePourcent != 0 {
		t.Fatalf("marge%% with zero budget must stay 0, got %v", reel.MargePourcent)
	}
}

func TestDepenseMODRefusee(t *testing.T) {
	chantierSvc, _, c := setupChantierAvecDevis(t)
	if _, err := chantierSvc.AjouterDepense(c.ID, models.Depense{Categorie: models.CategorieMOD, MontantHT: 50}); err != ErrCategorieDepense {
		t.Fatalf("expected ErrCategorieDepense, got %v", err)
	}
}

func TestBudgetRepartitionParDefaut(t *testing.T) {
	db := setupTestDB(t)
	parametres := NewParametresService(db)
	chantierSvc := NewChantierService(db, parametres)

	// devis sans lignes mais avec un total HT en cache: ventilation standard
	d := models.Devis{Reference: "DEV-2026-099", Numero: 99, Statut: models.DevisAccepte, ModeCalcul: models.ModeCoefficient, TotalHT: 1000}
	if err := db.Create(&d).Error; err != nil {
		t.Fatalf("seed devis: %v", err)
	}
	c, _ := chantierSvc.Creer(models.Chantier{Nom: "Chantier forfaitaire"})
	if err := chantierSvc.LierDevis(c.ID, d.ID); err != nil {
		t.Fatalf("link: %v", err)
	}
	c, _ = chantierSvc.Charger(c.ID)

	budget, err := chantierSvc.CalculeBudget(c)
	if err != nil {
		t.Fatalf("budget: %v", err)
	}
	if !almostEqual(budget.TotalVenteHT, 1000) {
		t.Fatalf("total = %v, want 1000", budget.TotalVenteHT)
	}
	if !almostEqual(budget.VenteParCategorie[models.CategorieMOD], 400) ||
		!almostEqual(budget.VenteParCategorie[models.CategorieFourniture], 350) ||
		!almostEqual(budget.VenteParCategorie[models.CategorieMateriel], 150) ||
		!almostEqual(budget.VenteParCategorie[models.CategorieSousTraitance], 100) {
		t.Fatalf("fallback split wrong: %+v", budget.VenteParCategorie)
	}
	// pas de détail de lignes: aucune heure visée inventée
	if budget.HeuresVisees != 0 {
		t.Fatalf("heures visées = %v, want 0", budget.HeuresVisees)
	}
}
