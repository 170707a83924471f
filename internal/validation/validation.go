package validation

import (
	"strings"

	"github.com/lcharier/gestibat/internal/models"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func PositiveFloat(field string, val float64, v Violations) {
	if val <= 0 {
		v[field] = "must_be_positive"
	}
}

func NonNegativeFloat(field string, val float64, v Violations) {
	if val < 0 {
		v[field] = "must_not_be_negative"
	}
}

func RangeFloat(field string, val, minVal, maxVal float64, v Violations) {
	if val < minVal || val > maxVal {
		v[field] = "out_of_range"
	}
}

// Domain validators
func Categorie(field string, c models.Categorie, v Violations) {
	if !c.Valide() {
		v[field] = "unknown_category"
	}
}

func CategorieDepense(field string, c models.Categorie, v Violations) {
	for _, allowed := range models.CategoriesDepense() {
		if c == allowed {
			return
		}
	}
	v[field] = "labor_not_allowed"
}
