package db

import (
	"fmt"
	"os"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lcharier/gestibat/internal/models"
)

// Connect opens the database named by the DSN. A postgres:// DSN selects the
// postgres driver; anything else is treated as a sqlite path, the single-user
// default.
func Connect(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_DSN est vide, vérifiez la configuration de l'environnement")
	}
	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}
	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}
	return db, nil
}

// Migrate creates or updates the schema for every domain model.
func Migrate(db *gorm.DB) error {
	modelsToMigrate := []interface{}{
		&models.Parametres{},
		&models.Client{},
		&models.Article{},
		&models.OuvrageTemplate{},
		&models.OuvrageTemplateLigne{},
		&models.Devis{},
		&models.Lot{},
		&models.Ouvrage{},
		&models.LigneDebourse{},
		&models.Chantier{},
		&models.Pointage{},
		&models.Depense{},
		&models.Facture{},
		&models.AcompteDeduit{},
		&models.Reglement{},
	}
	for _, m := range modelsToMigrate {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

// ConnectAndMigrate is the startup path: connect, migrate, optionally seed a
// starter catalog when DB_SEED=1|true|yes.
func ConnectAndMigrate(dsn string) (*gorm.DB, error) {
	db, err := Connect(dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	if v := strings.ToLower(os.Getenv("DB_SEED")); v == "1" || v == "true" || v == "yes" {
		Seed(db)
	}
	return db, nil
}

// Seed inserts a small starter catalog so a fresh install has something to
// search. Existing references are left alone.
func Seed(db *gorm.DB) {
	articles := []models.Article{
		{Reference: "ART-MOD001", Designation: "Heure maçon qualifié", Unite: "h", PrixUnitaire: 26.00, Categorie: models.CategorieMOD, Famille: "Maçonnerie"},
		{Reference: "ART-MOD002", Designation: "Heure manœuvre", Unite: "h", PrixUnitaire: 19.50, Categorie: models.CategorieMOD, Famille: "Maçonnerie"},
		{Reference: "ART-FOU001", Designation: "Sac ciment 35kg", Unite: "u", PrixUnitaire: 8.90, Categorie: models.CategorieFourniture, Famille: "Maçonnerie"},
		{Reference: "ART-FOU002", Designation: "Parpaing 20x20x50", Unite: "u", PrixUnitaire: 1.45, Categorie: models.CategorieFourniture, Famille: "Maçonnerie"},
		{Reference: "ART-MAT001", Designation: "Location mini-pelle 2,5T", Unite: "j", PrixUnitaire: 210.00, Categorie: models.CategorieMateriel, Famille: "Location"},
		{Reference: "ART-MAT002", Designation: "Location échafaudage", Unite: "sem", PrixUnitaire: 85.00, Categorie: models.CategorieMateriel, Famille: "Location"},
		{Reference: "ART-STR001", Designation: "Forfait plomberie salle d'eau", Unite: "fft", PrixUnitaire: 1850.00, Categorie: models.CategorieSousTraitance, Famille: "Plomberie"},
	}
	for _, a := range articles {
		var existing models.Article
		if err := db.Where("reference = ?", a.Reference).First(&existing).Error; err == gorm.ErrRecordNotFound {
			db.Create(&a)
		}
	}

	template := models.OuvrageTemplate{
		Reference:   "OUV-MUR001",
		Designation: "Mur parpaing 20cm, enduit deux faces",
		Unite:       "m²",
		Lignes: []models.OuvrageTemplateLigne{
			{Designation: "Heure maçon qualifié", Unite: "h", Quantite: 1.2, PrixUnitaire: 26.00, Categorie: models.CategorieMOD, Position: 0},
			{Designation: "Parpaing 20x20x50", Unite: "u", Quantite: 10, PrixUnitaire: 1.45, Categorie: models.CategorieFourniture, Position: 1},
			{Designation: "Sac ciment 35kg", Unite: "u", Quantite: 0.5, PrixUnitaire: 8.90, Categorie: models.CategorieFourniture, Position: 2},
		},
	}
	var existing models.OuvrageTemplate
	if err := db.Where("reference = ?", template.Reference).First(&existing).Error; err == gorm.ErrRecordNotFound {
		db.Create(&template)
	}
}
