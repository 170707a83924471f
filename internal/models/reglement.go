package models

import "time"

const (
	ReglementVirement     = "VIREMENT"
	ReglementCheque       = "CHEQUE"
	ReglementEspeces      = "ESPECES"
	ReglementCB           = "CB"
	ReglementBilletAOrdre = "BILLETS_A_ORDRE"
)

// Reglement is a payment received against a facture.
type Reglement struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FactureID uint      `gorm:"not null;index" json:"facture_id"`
	Date      time.Time `json:"date"`
	Montant   float64   `json:"montant"`
	Mode      string    `gorm:"size:20;not null" json:"mode"`
	// Ex: numéro de chèque ou identifiant de virement.
	ReferenceExterne string `json:"reference_externe,omitempty"`
	Notes            string `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
