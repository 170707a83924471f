package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/lcharier/gestibat/internal/models"
)

var ErrCompteurInvalide = errors.New("compteur_invalide")

// ParametresService owns the single Parametres row. Every mutation writes
// through immediately; readers always see the persisted state.
type ParametresService struct{ DB *gorm.DB }

func NewParametresService(db *gorm.DB) *ParametresService { return &ParametresService{DB: db} }

// Get loads the settings row, creating it with defaults on first call.
func (s *ParametresService) Get() (*models.Parametres, error) {
	var p models.Parametres
	err := s.DB.First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		p = models.ParametresParDefaut()
		if err := s.DB.Create(&p).Error; err != nil {
			return nil, err
		}
		return &p, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SetCoefficient updates one global default coefficient. Existing documents
// keep their snapshot; only documents created afterwards see the new value.
func (s *ParametresService) SetCoefficient(c models.Categorie, valeur float64) (*models.Parametres, error) {
	p, err := s.Get()
	if err != nil {
		return nil, err
	}
	p.Coefficients.Definir(c, valeur)
	if err := s.DB.Save(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces the mutable settings fields wholesale. Counters are excluded:
// they only move through ConsommerNumero* and RedefinirCompteur*.
func (s *ParametresService) Update(in models.Parametres) (*models.Parametres, error) {
	p, err := s.Get()
	if err != nil {
		return nil, err
	}
	p.Coefficients = in.Coefficients
	p.CoutHoraireMO = in.CoutHoraireMO
	p.BeneficeParDefaut = in.BeneficeParDefaut
	p.MasseSalariale = in.MasseSalariale
	p.HeuresPayees = in.HeuresPayees
	p.CoeffImproductivite = in.CoeffImproductivite
	p.TauxTVANormal = in.TauxTVANormal
	p.TauxTVAReduit = in.TauxTVAReduit
	p.CompteClient = in.CompteClient
	p.CompteBanque = in.CompteBanque
	p.CompteVente = in.CompteVente
	p.CompteTVA = in.CompteTVA
	if err := s.DB.Save(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// Reinitialiser restores every default value. Counters are reset too: this is
// the factory-reset operation, not a settings edit.
func (s *ParametresService) Reinitialiser() (*models.Parametres, error) {
	p, err := s.Get()
	if err != nil {
		return nil, err
	}
	id := p.ID
	*p = models.ParametresParDefaut()
	p.ID = id
	if err := s.DB.Save(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// ConsommerNumeroDevis returns the current quote number and advances the
// counter, atomically with respect to other consumers on the same connection.
func (s *ParametresService) ConsommerNumeroDevis() (int, error) {
	var numero int
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var p models.Parametres
		if err := tx.First(&p).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			p = models.ParametresParDefaut()
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
		}
		numero = p.DevisNumeroActuel
		p.DevisNumeroActuel++
		return tx.Save(&p).Error
	})
	return numero, err
}

// RedefinirCompteurDevis repositions the counter without consuming a number.
// Called after a manual reference edit so the next automatic number follows
// the highest one in use.
func (s *ParametresService) RedefinirCompteurDevis(prochain int) error {
	if prochain < 1 {
		return ErrCompteurInvalide
	}
	p, err := s.Get()
	if err != nil {
		return err
	}
	p.DevisNumeroActuel = prochain
	return s.DB.Save(p).Error
}

// ConsommerNumeroFacture mirrors the devis counter for invoices.
func (s *ParametresService) ConsommerNumeroFacture() (int, error) {
	var numero int
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var p models.Parametres
		if err := tx.First(&p).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			p = models.ParametresParDefaut()
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
		}
		numero = p.FactureNumeroActuel
		p.FactureNumeroActuel++
		return tx.Save(&p).Error
	})
	return numero, err
}

// RedefinirCompteurFacture repositions the invoice counter.
func (s *ParametresService) RedefinirCompteurFacture(prochain int) error {
	if prochain < 1 {
		return ErrCompteurInvalide
	}
	p, err := s.Get()
	if err != nil {
		return err
	}
	p.FactureNumeroActuel = prochain
	return s.DB.Save(p).Error
}

// CoutHoraireCalcule exposes the payroll-derived hourly cost next to the
// manually set one. ok is false when the payroll inputs are incomplete.
func (s *ParametresService) CoutHoraireCalcule() (float64, bool, error) {
	p, err := s.Get()
	if err != nil {
		return 0, false, err
	}
	cout, ok := CalculeCoutHoraire(p.MasseSalariale, p.HeuresPayees, p.CoeffImproductivite)
	return cout, ok, nil
}

// ReferenceDevis formats the printable reference for a quote number.
func ReferenceDevis(annee, numero int) string {
	return fmt.Sprintf("DEV-%d-%03d", annee, numero)
}

// ReferenceFacture formats the printable reference for an invoice number.
func ReferenceFacture(annee, numero int) string {
	return fmt.Sprintf("FAC-%d-%03d", annee, numero)
}
