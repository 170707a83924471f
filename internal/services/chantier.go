package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/lcharier/gestibat/internal/models"
)

var (
	ErrChantierIntrouvable = errors.New("chantier_introuvable")
	ErrCategorieDepense    = errors.New("categorie_depense_invalide")
)

// BudgetChantier is the planned side of the comparison, aggregated from the
// syntheses of every linked devis.
type BudgetChantier struct {
	TotalVenteHT      float64                      `json:"total_vente_ht"`
	HeuresVisees      float64                      `json:"heures_visees"`
	VenteParCategorie map[models.Categorie]float64 `json:"vente_par_categorie"`
}

// ReelChantier is the realized side: logged hours valued at the effective
// hourly rate and labor coefficient, logged expenses marked up by the effective
// coefficient of their category.
type ReelChantier struct {
	HeuresPointees   float64                      `json:"heures_pointees"`
	CoutParCategorie map[models.Categorie]float64 `json:"cout_par_categorie"`
	TotalPrixRevient float64                      `json:"total_prix_revient"`
	MargeNette       float64                      `json:"marge_nette"`
	MargePourcent    float64                      `json:"marge_pourcent"`
}

// SuiviChantier pairs both sides for the comparison view.
type SuiviChantier struct {
	Budget BudgetChantier `json:"budget"`
	Reel   ReelChantier   `json:"reel"`
}

// Fallback split applied to a linked devis whose line detail is gone and only
// the cached TotalHT survives.
var repartitionParDefaut = map[models.Categorie]float64{
	models.CategorieMOD:           0.40,
	models.CategorieFourniture:    0.35,
	models.CategorieMateriel:      0.15,
	models.CategorieSousTraitance: 0.10,
}

// ChantierService tracks realized time and expenses against linked quotes.
type ChantierService struct {
	DB         *gorm.DB
	Parametres *ParametresService
}

func NewChantierService(db *gorm.DB, p *ParametresService) *ChantierService {
	return &ChantierService{DB: db, Parametres: p}
}

func (s *ChantierService) Creer(c models.Chantier) (*models.Chantier, error) {
	if c.Statut == "" {
		c.Statut = models.ChantierEnCours
	}
	if c.DateDebut.IsZero() {
		c.DateDebut = time.Now()
	}
	if err := s.DB.Create(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *ChantierService) Charger(id uint) (*models.Chantier, error) {
	var c models.Chantier
	err := s.DB.
		Preload("Devis").
		Preload("Pointages", func(db *gorm.DB) *gorm.DB { return db.Order("date") }).
		Preload("Depenses", func(db *gorm.DB) *gorm.DB { return db.Order("date") }).
		First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChantierIntrouvable
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *ChantierService) Lister() ([]models.Chantier, error) {
	var chantiers []models.Chantier
	if err := s.DB.Preload("Devis").Order("date_debut DESC").Find(&chantiers).Error; err != nil {
		return nil, err
	}
	return chantiers, nil
}

func (s *ChantierService) Modifier(id uint, in models.Chantier) (*models.Chantier, error) {
	c, err := s.Charger(id)
	if err != nil {
		return nil, err
	}
	if in.Statut != models.ChantierEnCours && in.Statut != models.ChantierTermine {
		return nil, ErrStatutInvalide
	}
	c.Nom = in.Nom
	c.Description = in.Description
	c.ClientID = in.ClientID
	c.DateDebut = in.DateDebut
	c.Statut = in.Statut
	c.Surcharges = in.Surcharges
	if err := s.DB.Save(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ChantierService) Supprimer(id uint) error {
	res := s.DB.Select("Pointages", "Depenses").Delete(&models.Chantier{ID: id})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrChantierIntrouvable
	}
	return nil
}

// LierDevis attaches a quote to the chantier's budget base.
func (s *ChantierService) LierDevis(chantierID, devisID uint) error {
	c, err := s.Charger(chantierID)
	if err != nil {
		return err
	}
	var d models.Devis
	if err := s.DB.First(&d, devisID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDevisIntrouvable
		}
		return err
	}
	return s.DB.Model(c).Association("Devis").Append(&d)
}

func (s *ChantierService) AjouterPointage(chantierID uint, p models.Pointage) (*models.Pointage, error) {
	if _, err := s.Charger(chantierID); err != nil {
		return nil, err
	}
	p.ChantierID = chantierID
	if p.Date.IsZero() {
		p.Date = time.Now()
	}
	if err := s.DB.Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ChantierService) SupprimerPointage(id uint) error {
	return s.DB.Delete(&models.Pointage{}, id).Error
}

func (s *ChantierService) AjouterDepense(chantierID uint, d models.Depense) (*models.Depense, error) {
	if _, err := s.Charger(chantierID); err != nil {
		return nil, err
	}
	valide := false
	for _, cat := range models.CategoriesDepense() {
		if d.Categorie == cat {
			valide = true
			break
		}
	}
	if !valide {
		return nil, ErrCategorieDepense
	}
	d.ChantierID = chantierID
	if d.Date.IsZero() {
		d.Date = time.Now()
	}
	if err := s.DB.Create(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *ChantierService) SupprimerDepense(id uint) error {
	return s.DB.Delete(&models.Depense{}, id).Error
}

// coefficientEffectif resolves chantier override then global default.
func coefficientEffectif(c *models.Chantier, p *models.Parametres, cat models.Categorie) float64 {
	var surcharge *float64
	switch cat {
	case models.CategorieMOD:
		surcharge = c.Surcharges.MOD
	case models.CategorieFourniture:
		surcharge = c.Surcharges.Fourniture
	case models.CategorieMateriel:
		surcharge = c.Surcharges.Materiel
	case models.CategorieSousTraitance:
		surcharge = c.Surcharges.SousTraitance
	}
	if surcharge != nil {
		return *surcharge
	}
	return p.Coefficients.Pour(cat)
}

// CalculeBudget aggregates the syntheses of every linked devis. A devis whose
// line detail still exists contributes its exact category breakdown and labor
// hours; one reduced to its cached TotalHT falls back to a standard split with
// no hour contribution.
func (s *ChantierService) CalculeBudget(c *models.Chantier) (BudgetChantier, error) {
	b := BudgetChantier{VenteParCategorie: make(map[models.Categorie]float64, 4)}
	for _, cat := range models.Categories() {
		b.VenteParCategorie[cat] = 0
	}
	for _, lien := range c.Devis {
		var d models.Devis
		err := s.DB.
			Preload("Lots.Ouvrages.Lignes").
			First(&d, lien.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return b, err
		}
		syn := CalculeSynthese(&d)
		if syn.TotalVente != 0 {
			b.TotalVenteHT += syn.TotalVente
			b.HeuresVisees += syn.TotalHeures
			for cat, v := range syn.VenteParCategorie {
				b.VenteParCategorie[cat] += v
			}
			continue
		}
		b.TotalVenteHT += d.TotalHT
		for cat, part := range repartitionParDefaut {
			b.VenteParCategorie[cat] += d.TotalHT * part
		}
	}
	return b, nil
}

// CalculeReel values the logged data. Labor: pointed hours × effective hourly
// rate × effective labor coefficient. Expenses: montant HT × the effective
// coefficient of their category. Empty logs yield zeros, never an error.
func (s *ChantierService) CalculeReel(c *models.Chantier, budget BudgetChantier) (ReelChantier, error) {
	p, err := s.Parametres.Get()
	if err != nil {
		return ReelChantier{}, err
	}
	r := ReelChantier{CoutParCategorie: make(map[models.Categorie]float64, 4)}
	for _, cat := range models.Categories() {
		r.CoutParCategorie[cat] = 0
	}

	tauxHoraire := p.CoutHoraireMO
	if c.Surcharges.TauxHoraire != nil {
		tauxHoraire = *c.Surcharges.TauxHoraire
	}
	for _, pt := range c.Pointages {
		r.HeuresPointees += pt.Heures
	}
	r.CoutParCategorie[models.CategorieMOD] = r.HeuresPointees * tauxHoraire * coefficientEffectif(c, p, models.CategorieMOD)

	for _, d := range c.Depenses {
		r.CoutParCategorie[d.Categorie] += d.MontantHT * coefficientEffectif(c, p, d.Categorie)
	}

	for _, v := range r.CoutParCategorie {
		r.TotalPrixRevient += v
	}
	r.MargeNette = budget.TotalVenteHT - r.TotalPrixRevient
	if budget.TotalVenteHT != 0 {
		r.MargePourcent = r.MargeNette / budget.TotalVenteHT * 100
	}
	return r, nil
}

// Suivi assembles the budget-vs-realized comparison for one chantier.
func (s *ChantierService) Suivi(id uint) (*SuiviChantier, error) {
	c, err := s.Charger(id)
	if err != nil {
		return nil, err
	}
	budget, err := s.CalculeBudget(c)
	if err != nil {
		return nil, err
	}
	reel, err := s.CalculeReel(c, budget)
	if err != nil {
		return nil, err
	}
	return &SuiviChantier{Budget: budget, Reel: reel}, nil
}
