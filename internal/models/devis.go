package models

import "time"

// Devis status values. Transitions are free: the allowed set is the only rule.
const (
	DevisEtude   = "ETUDE"
	DevisRemis   = "REMIS"
	DevisAccepte = "ACCEPTE"
	DevisRefuse  = "REFUSE"
	DevisAnnule  = "ANNULE"
)

// Pricing modes. COEFFICIENT sells at deboursé × coefficient; COEFFICIENT_MARGE
// additionally applies a margin percentage on top (global, overridable per
// line). The two modes are computed by separate code paths and never mixed.
const (
	ModeCoefficient      = "COEFFICIENT"
	ModeCoefficientMarge = "COEFFICIENT_MARGE"
)

// Devis (quote) is the root aggregate: ordered Lots containing ordered Ouvrages
// containing deboursé lines, plus a coefficient snapshot taken from the global
// defaults at creation time and mutable independently afterwards.
type Devis struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Reference string `gorm:"size:30;not null;uniqueIndex" json:"reference"`
	// Numeric portion of the reference, allocated from the Parametres counter.
	Numero int    `gorm:"not null" json:"numero"`
	Statut string `gorm:"size:20;not null;default:'ETUDE'" json:"statut"`

	ClientID *uint   `json:"client_id,omitempty"`
	Client   *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	Description  string    `json:"description"`
	DateEmission time.Time `json:"date_emission"`
	DateValidite time.Time `json:"date_validite"`

	Lots []Lot `gorm:"foreignKey:DevisID;constraint:OnDelete:CASCADE" json:"lots"`

	Coefficients CoefficientSet `gorm:"embedded" json:"coefficients"`
	// Bénéfice global en % (mode COEFFICIENT_MARGE uniquement).
	Benefice   float64 `json:"benefice"`
	ModeCalcul string  `gorm:"size:30;not null;default:'COEFFICIENT'" json:"mode_calcul"`

	// Cache du total HT, recalculé à chaque sauvegarde. Les exports listent les
	// devis sans recharger toutes les lignes.
	TotalHT float64 `json:"total_ht"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Lot is a purely organizational named grouping of ouvrages.
type Lot struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	DevisID  uint      `gorm:"not null;index" json:"-"`
	Titre    string    `gorm:"not null" json:"titre"`
	Position int       `json:"position"`
	Ouvrages []Ouvrage `gorm:"foreignKey:LotID;constraint:OnDelete:CASCADE" json:"ouvrages"`
}

// Ouvrage is a unit-priced work package. Its economics derive entirely from its
// lines; PrixUnitaire is the displayed unit price, Quantite the sold quantity.
type Ouvrage struct {
	ID           uint     `gorm:"primaryKey" json:"id"`
	LotID        uint     `gorm:"not null;index" json:"-"`
	Designation  string   `gorm:"not null" json:"designation"`
	Quantite     float64  `json:"quantite"`
	Unite        string   `gorm:"size:16" json:"unite"`
	PrixUnitaire float64  `json:"prix_unitaire"`
	Notes        []string `gorm:"serializer:json" json:"notes,omitempty"`
	Position     int      `json:"position"`

	Lignes []LigneDebourse `gorm:"foreignKey:OuvrageID;constraint:OnDelete:CASCADE" json:"lignes"`
}

// LigneDebourse is the atomic priced entry. The coefficient is copied from the
// owning devis' snapshot at creation and overridable per line; the VAT rate
// defaults by category. ArticleID is a weak reference to the catalog entry the
// line was copied from; PrixOrigine records the catalog price at copy time and
// only serves to detect drift (§ catalog sync protocol).
type LigneDebourse struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OuvrageID   uint      `gorm:"not null;index" json:"-"`
	Designation string    `gorm:"not null" json:"designation"`
	Unite       string    `gorm:"size:16" json:"unite"`
	Quantite    float64   `json:"quantite"`
	// Déboursé sec unitaire. Pour la MOD, Quantite s'interprète en heures.
	PrixUnitaire float64   `json:"prix_unitaire"`
	Categorie    Categorie `gorm:"size:20;not null" json:"categorie"`
	Coefficient  float64   `json:"coefficient"`
	TauxTVA      float64   `json:"taux_tva"`
	// Surcharge de bénéfice par ligne (mode COEFFICIENT_MARGE); nil = bénéfice
	// global du devis.
	Benefice *float64 `json:"benefice,omitempty"`

	ArticleID   *uint    `json:"article_id,omitempty"`
	PrixOrigine *float64 `json:"prix_origine,omitempty"`

	Position int `json:"position"`
}
