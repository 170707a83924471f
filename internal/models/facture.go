package models

import "time"

const (
	FactureAcompte    = "ACOMPTE"
	FactureAvancement = "AVANCEMENT"
	FactureSolde      = "SOLDE"
	FactureGlobale    = "GLOBALE"
)

const (
	FactureBrouillon          = "BROUILLON"
	FactureEmise              = "EMISE"
	FacturePayeePartiellement = "PAYEE_PARTIELLEMENT"
	FacturePayee              = "PAYEE"
	FactureAnnulee            = "ANNULEE"
)

// Facture carries fully-computed amounts: the services compute HT/TVA/TTC once
// at generation time and exporters consume them as-is.
type Facture struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Reference string `gorm:"size:30;not null;uniqueIndex" json:"reference"`
	Type      string `gorm:"size:20;not null" json:"type"`
	Statut    string `gorm:"size:30;not null;default:'EMISE'" json:"statut"`

	DevisID    *uint `json:"devis_id,omitempty"`
	ChantierID *uint `json:"chantier_id,omitempty"`
	ClientID   *uint `json:"client_id,omitempty"`
	// Dénormalisé pour les exports, comme sur le document imprimé.
	ClientNom string `json:"client_nom"`

	DateEmission time.Time `json:"date_emission"`
	DateEcheance time.Time `json:"date_echeance"`

	MontantHT  float64 `json:"montant_ht"`
	MontantTVA float64 `json:"montant_tva"`
	MontantTTC float64 `json:"montant_ttc"`

	// Retenue de garantie, en pratique 5% du marché, libérée un an après
	// l'émission de la facture de solde.
	RetenueGarantie        bool       `json:"retenue_garantie"`
	TauxRetenueGarantie    float64    `json:"taux_retenue_garantie,omitempty"`
	MontantRetenueGarantie float64    `json:"montant_retenue_garantie,omitempty"`
	DateLiberationRetenue  *time.Time `json:"date_liberation_retenue,omitempty"`
	RetenueLiberee         bool       `json:"retenue_liberee"`

	AcomptesDeduits []AcompteDeduit `gorm:"foreignKey:FactureID;constraint:OnDelete:CASCADE" json:"acomptes_deduits,omitempty"`

	Reglements []Reglement `gorm:"foreignKey:FactureID;constraint:OnDelete:CASCADE" json:"reglements,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AcompteDeduit records a (possibly partial) deduction of a previously issued
// deposit invoice on a progress or final invoice.
type AcompteDeduit struct {
	ID               uint    `gorm:"primaryKey" json:"id"`
	FactureID        uint    `gorm:"not null;index" json:"-"`
	FactureAcompteID uint    `gorm:"not null" json:"facture_acompte_id"`
	MontantDeduit    float64 `json:"montant_deduit"`
}
