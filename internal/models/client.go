package models

import (
	"time"

	"gorm.io/gorm"
)

// Client domain model. Adresse de facturation obligatoire, adresse de chantier
// optionnelle (reprise de la facturation quand absente).
type Client struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Nom       string `gorm:"not null" json:"nom"`
	Email     string `json:"email,omitempty"`
	Telephone string `json:"telephone,omitempty"`

	AdresseFacturation    string `json:"adresse_facturation"`
	CodePostalFacturation string `gorm:"size:10" json:"code_postal_facturation"`
	VilleFacturation      string `json:"ville_facturation"`

	AdresseChantier    string `json:"adresse_chantier,omitempty"`
	CodePostalChantier string `gorm:"size:10" json:"code_postal_chantier,omitempty"`
	VilleChantier      string `json:"ville_chantier,omitempty"`

	Notes string `json:"notes,omitempty"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
