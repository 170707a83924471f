package models

import "time"

const (
	ChantierEnCours = "EN_COURS"
	ChantierTermine = "TERMINE"
)

// SurchargesChantier optionally overrides the global coefficients and hourly
// rate for one job site. Nil fields fall back to the Parametres defaults.
type SurchargesChantier struct {
	MOD           *float64 `gorm:"column:surcharge_mod" json:"mod,omitempty"`
	Fourniture    *float64 `gorm:"column:surcharge_fourniture" json:"fourniture,omitempty"`
	Materiel      *float64 `gorm:"column:surcharge_materiel" json:"materiel,omitempty"`
	SousTraitance *float64 `gorm:"column:surcharge_sous_traitance" json:"sous_traitance,omitempty"`
	TauxHoraire   *float64 `gorm:"column:surcharge_taux_horaire" json:"taux_horaire,omitempty"`
}

// Chantier tracks realized time and expenses against the devis linked to it.
type Chantier struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Nom         string    `gorm:"not null" json:"nom"`
	Description string    `json:"description,omitempty"`
	ClientID    *uint     `json:"client_id,omitempty"`
	DateDebut   time.Time `json:"date_debut"`
	Statut      string    `gorm:"size:20;not null;default:'EN_COURS'" json:"statut"`

	// Devis rattachés, base du budget prévu.
	Devis []Devis `gorm:"many2many:chantier_devis" json:"devis,omitempty"`

	Pointages []Pointage `gorm:"foreignKey:ChantierID;constraint:OnDelete:CASCADE" json:"pointages"`
	Depenses  []Depense  `gorm:"foreignKey:ChantierID;constraint:OnDelete:CASCADE" json:"depenses"`

	Surcharges SurchargesChantier `gorm:"embedded" json:"surcharges"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Pointage is one logged block of worker hours.
type Pointage struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ChantierID  uint      `gorm:"not null;index" json:"-"`
	Date        time.Time `json:"date"`
	Ouvrier     string    `gorm:"not null" json:"ouvrier"`
	Heures      float64   `json:"heures"`
	Commentaire string    `json:"commentaire,omitempty"`
}

// Depense is one logged purchase. Categorie is restricted to the non-labor
// categories; labor reality comes from pointages.
type Depense struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ChantierID  uint      `gorm:"not null;index" json:"-"`
	Date        time.Time `json:"date"`
	Categorie   Categorie `gorm:"size:20;not null" json:"categorie"`
	MontantHT   float64   `json:"montant_ht"`
	Fournisseur string    `json:"fournisseur,omitempty"`
	Reference   string    `json:"reference,omitempty"` // n° BL, facture fournisseur
	Commentaire string    `json:"commentaire,omitempty"`
}
