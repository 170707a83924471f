package models

// Categorie classifies a deboursé line. The set is closed: every coefficient or
// VAT-default lookup switches exhaustively over these four values so that adding
// a category is a compile-checked change.
type Categorie string

const (
	CategorieMOD           Categorie = "MOD"            // main d'œuvre directe
	CategorieFourniture    Categorie = "FOURNITURE"     // fournitures / matériaux
	CategorieMateriel      Categorie = "MATERIEL"       // matériel / location
	CategorieSousTraitance Categorie = "SOUS_TRAITANCE" // sous-traitance
)

// Categories returns the categories in display order.
func Categories() []Categorie {
	return []Categorie{CategorieMOD, CategorieFourniture, CategorieMateriel, CategorieSousTraitance}
}

func (c Categorie) Valide() bool {
	switch c {
	case CategorieMOD, CategorieFourniture, CategorieMateriel, CategorieSousTraitance:
		return true
	}
	return false
}

// CategoriesDepense lists the categories allowed on a chantier expense entry.
// Labor is tracked through pointages, never through expenses.
func CategoriesDepense() []Categorie {
	return []Categorie{CategorieFourniture, CategorieMateriel, CategorieSousTraitance}
}

// CoefficientSet maps each category to its cost-to-price multiplier. It is
// embedded both in Parametres (the global defaults) and in Devis (a snapshot
// taken at creation time): editing the defaults never changes existing devis.
type CoefficientSet struct {
	MOD           float64 `gorm:"column:coeff_mod" json:"mod"`
	Fourniture    float64 `gorm:"column:coeff_fourniture" json:"fourniture"`
	Materiel      float64 `gorm:"column:coeff_materiel" json:"materiel"`
	SousTraitance float64 `gorm:"column:coeff_sous_traitance" json:"sous_traitance"`
}

// CoefficientsParDefaut are the first-run defaults.
func CoefficientsParDefaut() CoefficientSet {
	return CoefficientSet{MOD: 1.15, Fourniture: 1.10, Materiel: 1.05, SousTraitance: 1.08}
}

// Pour returns the coefficient for a category. Unknown categories resolve to 1
// so a stale document still computes instead of faulting.
func (s CoefficientSet) Pour(c Categorie) float64 {
	switch c {
	case CategorieMOD:
		return s.MOD
	case CategorieFourniture:
		return s.Fourniture
	case CategorieMateriel:
		return s.Materiel
	case CategorieSousTraitance:
		return s.SousTraitance
	}
	return 1
}

// Definir overwrites one entry. Validation (finite, positive) is the caller's
// concern; range clamping belongs to the UI.
func (s *CoefficientSet) Definir(c Categorie, valeur float64) {
	switch c {
	case CategorieMOD:
		s.MOD = valeur
	case CategorieFourniture:
		s.Fourniture = valeur
	case CategorieMateriel:
		s.Materiel = valeur
	case CategorieSousTraitance:
		s.SousTraitance = valeur
	}
}
