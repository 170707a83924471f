package services

import (
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lcharier/gestibat/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.Parametres{}, &models.Client{}, &models.Article{},
		&models.OuvrageTemplate{}, &models.OuvrageTemplateLigne{},
		&models.Devis{}, &models.Lot{}, &models.Ouvrage{}, &models.LigneDebourse{},
		&models.Chantier{}, &models.Pointage{}, &models.Depense{},
		&models.Facture{}, &models.AcompteDeduit{}, &models.Reglement{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestParametresGetCreeLesDefauts(t *testing.T) {
	svc := NewParametresService(setupTestDB(t))
	p, err := svc.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.Coefficients.MOD != 1.15 || p.Coefficients.Fourniture != 1.10 {
		t.Fatalf("unexpected default coefficients: %+v", p.Coefficients)
	}
	if p.CoutHoraireMO != 23.50 {
		t.Fatalf("cout horaire = %v, want 23.50", p.CoutHoraireMO)
	}
	if p.DevisNumeroActuel != 1 || p.FactureNumeroActuel != 1 {
		t.Fatalf("counters should start at 1: %+v", p)
	}

	// second Get must not create a second row
	if _, err := svc.Get(); err != nil {
		t.Fatalf("second get: %v", err)
	}
	var count int64
	svc.DB.Model(&models.Parametres{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 settings row, got %d", count)
	}
}

func TestConsommerNumeroDevis(t *testing.T) {
	svc := NewParametresService(setupTestDB(t))

	n1, err := svc.ConsommerNumeroDevis()
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	n2, err := svc.ConsommerNumeroDevis()
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if n1 != 1 || n2 != 2 {
		t.Fatalf("expected 1 then 2, got %d then %d", n1, n2)
	}

	if err := svc.RedefinirCompteurDevis(50); err != nil {
		t.Fatalf("rewind: %v", err)
	}
	n3, err := svc.ConsommerNumeroDevis()
	if err != nil {
		t.Fatalf("consume after rewind: %v", err)
	}
	if n3 != 50 {
		t.Fatalf("expected 50 after rewind, got %d", n3)
	}

	if err := svc.RedefinirCompteurDevis(0); err != ErrCompteurInvalide {
		t.Fatalf("rewind to 0 should fail, got %v", err)
	}
}

func TestSetCoefficientNeModifiePasLesSnapshots(t *testing.T) {
	db := setupTestDB(t)
	svc := NewParametresService(db)
	devisSvc := NewDevisService(db, svc, NewCatalogueService(db))

	d, err := devisSvc.Creer(nil, "extension garage")
	if err != nil {
		t.Fatalf("create devis: %v", err)
	}
	if d.Coefficients.MOD != 1.15 {
		t.Fatalf("snapshot MOD = %v, want 1.15", d.Coefficients.MOD)
	}

	if _, err := svc.SetCoefficient(models.CategorieMOD, 1.40); err != nil {
		t.Fatalf("set coefficient: %v", err)
	}

	reloaded, err := devisSvc.Charger(d.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Coefficients.MOD != 1.15 {
		t.Fatalf("existing snapshot changed to %v, want 1.15", reloaded.Coefficients.MOD)
	}

	apres, err := devisSvc.Creer(nil, "devis après changement")
	if err != nil {
		t.Fatalf("create second devis: %v", err)
	}
	if apres.Coefficients.MOD != 1.40 {
		t.Fatalf("new snapshot MOD = %v, want 1.40", apres.Coefficients.MOD)
	}
}

func TestReferenceDevis(t *testing.T) {
	if got := ReferenceDevis(2026, 7); got != "DEV-2026-007" {
		t.Fatalf("reference = %q, want DEV-2026-007", got)
	}
	if got := ReferenceFacture(2026, 123); got != "FAC-2026-123" {
		t.Fatalf("reference = %q, want FAC-2026-123", got)
	}
}

func TestCoutHoraireCalcule(t *testing.T) {
	svc := NewParametresService(setupTestDB(t))
	// defaults have no payroll mass: undefined, not zero
	_, ok, err := svc.CoutHoraireCalcule()
	if err != nil {
		t.Fatalf("cout horaire: %v", err)
	}
	if ok {
		t.Fatalf("expected undefined with empty payroll inputs")
	}

	p, _ := svc.Get()
	p.MasseSalariale = 170000
	p.HeuresPayees = 8000
	if _, err := svc.Update(*p); err != nil {
		t.Fatalf("update: %v", err)
	}
	cout, ok, err := svc.CoutHoraireCalcule()
	if err != nil || !ok {
		t.Fatalf("expected defined cost, ok=%v err=%v", ok, err)
	}
	if !almostEqual(cout, 170000/(8000*0.85)) {
		t.Fatalf("cout = %v", cout)
	}
}
