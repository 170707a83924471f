package models

import (
	"time"

	"gorm.io/gorm"
)

// Article is a reusable priced line template. Documents copy its values at pick
// time (copy-not-link): editing the article later never touches a devis, except
// through the explicit price back-propagation confirmed by the user.
type Article struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Reference    string    `gorm:"size:40;not null;uniqueIndex" json:"reference"`
	Designation  string    `gorm:"not null" json:"designation"`
	Description  string    `json:"description,omitempty"`
	Unite        string    `gorm:"size:16" json:"unite"`
	PrixUnitaire float64   `gorm:"not null" json:"prix_unitaire"`
	Categorie    Categorie `gorm:"size:20;not null;index" json:"categorie"`
	Famille      string    `gorm:"size:60" json:"famille,omitempty"` // ex: Maçonnerie, Location

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	CreatedAt time.Time      `json:"-"`
	UpdatedAt time.Time      `json:"-"`
}

// OuvrageTemplate is a reusable composite work package: an ordered set of
// template lines priced per unit of the ouvrage.
type OuvrageTemplate struct {
	ID          uint                    `gorm:"primaryKey" json:"id"`
	Reference   string                  `gorm:"size:40;not null;uniqueIndex" json:"reference"`
	Designation string                  `gorm:"not null" json:"designation"`
	Unite       string                  `gorm:"size:16" json:"unite"`
	Description string                  `json:"description,omitempty"`
	Lignes      []OuvrageTemplateLigne  `gorm:"foreignKey:TemplateID;constraint:OnDelete:CASCADE" json:"lignes"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	CreatedAt time.Time      `json:"-"`
	UpdatedAt time.Time      `json:"-"`
}

// OuvrageTemplateLigne carries no coefficient: the document's own snapshot is
// applied when the template is instantiated.
type OuvrageTemplateLigne struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	TemplateID   uint      `gorm:"not null;index" json:"-"`
	Designation  string    `gorm:"not null" json:"designation"`
	Unite        string    `gorm:"size:16" json:"unite"`
	Quantite     float64   `json:"quantite"`
	PrixUnitaire float64   `json:"prix_unitaire"`
	Categorie    Categorie `gorm:"size:20;not null" json:"categorie"`
	ArticleID    *uint     `json:"article_id,omitempty"`
	Position     int       `json:"position"`
}
