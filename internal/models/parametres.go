package models

import "time"

// Parametres is the single source of truth for defaults consumed at document
// creation time. Exactly one row exists; it is created with hard-coded defaults
// on first run and every mutation is persisted immediately.
type Parametres struct {
	ID uint `gorm:"primaryKey" json:"-"`

	Coefficients CoefficientSet `gorm:"embedded" json:"coefficients"`

	// Coût horaire moyen MOD appliqué par défaut aux pointages.
	CoutHoraireMO float64 `json:"cout_horaire_mo"`
	// Pourcentage de bénéfice par défaut (mode coefficient + marge).
	BeneficeParDefaut float64 `json:"benefice_par_defaut"`

	// Entrées du calcul du coût horaire (masse salariale N-1).
	MasseSalariale      float64 `json:"masse_salariale"`
	HeuresPayees        float64 `json:"heures_payees"`
	CoeffImproductivite float64 `json:"coeff_improductivite"` // en %

	// Taux de TVA par défaut. La sous-traitance part sur le taux réduit, le
	// reste sur le taux normal; les deux restent éditables par ligne.
	TauxTVANormal float64 `json:"taux_tva_normal"`
	TauxTVAReduit float64 `json:"taux_tva_reduit"`

	// Comptes comptables par défaut pour l'export des écritures.
	CompteClient string `json:"compte_client"`
	CompteBanque string `json:"compte_banque"`
	CompteVente  string `json:"compte_vente"`
	CompteTVA    string `json:"compte_tva"`

	// Numérotation des devis: numéro de départ configuré et prochain numéro à
	// attribuer. Le compteur n'avance que via ConsommerNumeroDevis.
	DevisNumeroInitial int `json:"devis_numero_initial"`
	DevisNumeroActuel  int `json:"devis_numero_actuel"`

	// Numérotation des factures, même protocole.
	FactureNumeroActuel int `json:"facture_numero_actuel"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// ParametresParDefaut returns the first-run row.
func ParametresParDefaut() Parametres {
	return Parametres{
		Coefficients:        CoefficientsParDefaut(),
		CoutHoraireMO:       23.50,
		BeneficeParDefaut:   10,
		CoeffImproductivite: 15,
		TauxTVANormal:       20,
		TauxTVAReduit:       10,
		CompteClient:        "411000",
		CompteBanque:        "512000",
		CompteVente:         "704000",
		CompteTVA:           "445710",
		DevisNumeroInitial:  1,
		DevisNumeroActuel:   1,
		FactureNumeroActuel: 1,
	}
}

// TauxTVAPour returns the default VAT rate for a category.
func (p *Parametres) TauxTVAPour(c Categorie) float64 {
	switch c {
	case CategorieSousTraitance:
		return p.TauxTVAReduit
	case CategorieMOD, CategorieFourniture, CategorieMateriel:
		return p.TauxTVANormal
	}
	return p.TauxTVANormal
}
