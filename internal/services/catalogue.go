package services

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lcharier/gestibat/internal/models"
)

var (
	ErrArticleIntrouvable  = errors.New("article_introuvable")
	ErrTemplateIntrouvable = errors.New("template_introuvable")
)

// CatalogueService manages the article library and the ouvrage templates.
type CatalogueService struct{ DB *gorm.DB }

func NewCatalogueService(db *gorm.DB) *CatalogueService { return &CatalogueService{DB: db} }

// nouvelleReference builds a short unique catalog reference like ART-3f2504e0.
func nouvelleReference(prefixe string) string {
	return prefixe + "-" + uuid.NewString()[:8]
}

// Rechercher filters articles by free text (designation, reference,
// description, famille) and optionally by category. Empty filters list
// everything.
func (s *CatalogueService) Rechercher(texte string, categorie models.Categorie) ([]models.Article, error) {
	q := s.DB.Model(&models.Article{}).Order("designation")
	if texte != "" {
		motif := "%" + strings.ToLower(texte) + "%"
		q = q.Where("lower(designation) LIKE ? OR lower(reference) LIKE ? OR lower(description) LIKE ? OR lower(famille) LIKE ?", motif, motif, motif, motif)
	}
	if categorie != "" {
		q = q.Where("categorie = ?", categorie)
	}
	var articles []models.Article
	if err := q.Find(&articles).Error; err != nil {
		return nil, err
	}
	return articles, nil
}

// Ajouter creates an article. A reference is generated when none is supplied.
func (s *CatalogueService) Ajouter(a models.Article) (*models.Article, error) {
	if a.Reference == "" {
		a.Reference = nouvelleReference("ART")
	}
	if err := s.DB.Create(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// Modifier updates the descriptive fields and price of an article. Documents
// holding copies of the old values are untouched; their drift markers light up
// through the devis edit path.
func (s *CatalogueService) Modifier(id uint, in models.Article) (*models.Article, error) {
	var a models.Article
	if err := s.DB.First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleIntrouvable
		}
		return nil, err
	}
	a.Designation = in.Designation
	a.Description = in.Description
	a.Unite = in.Unite
	a.PrixUnitaire = in.PrixUnitaire
	a.Categorie = in.Categorie
	a.Famille = in.Famille
	if err := s.DB.Save(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// ModifierPrix updates only the catalog price. Used by the drift confirmation
// path and by direct catalog edits.
func (s *CatalogueService) ModifierPrix(id uint, prix float64) error {
	res := s.DB.Model(&models.Article{}).Where("id = ?", id).Update("prix_unitaire", prix)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrArticleIntrouvable
	}
	return nil
}

// Supprimer soft-deletes an article. Existing document lines keep their copied
// values and their weak ArticleID, which from then on resolves to nothing.
func (s *CatalogueService) Supprimer(id uint) error {
	return s.DB.Delete(&models.Article{}, id).Error
}

// ListerTemplates returns the ouvrage templates with their lines.
func (s *CatalogueService) ListerTemplates() ([]models.OuvrageTemplate, error) {
	var templates []models.OuvrageTemplate
	err := s.DB.Preload("Lignes", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	}).Order("designation").Find(&templates).Error
	if err != nil {
		return nil, err
	}
	return templates, nil
}

// SupprimerTemplate soft-deletes an ouvrage template with its lines.
func (s *CatalogueService) SupprimerTemplate(id uint) error {
	res := s.DB.Select("Lignes").Delete(&models.OuvrageTemplate{ID: id})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTemplateIntrouvable
	}
	return nil
}

// ExporterOuvrage saves a devis ouvrage as a reusable template. Coefficients
// and VAT rates are deliberately not captured: they belong to the document the
// template will later be instantiated into.
func (s *CatalogueService) ExporterOuvrage(o *models.Ouvrage) (*models.OuvrageTemplate, error) {
	t := models.OuvrageTemplate{
		Reference:   nouvelleReference("OUV"),
		Designation: o.Designation,
		Unite:       o.Unite,
	}
	for i, l := range o.Lignes {
		t.Lignes = append(t.Lignes, models.OuvrageTemplateLigne{
			Designation:  l.Designation,
			Unite:        l.Unite,
			Quantite:     l.Quantite,
			PrixUnitaire: l.PrixUnitaire,
			Categorie:    l.Categorie,
			ArticleID:    l.ArticleID,
			Position:     i,
		})
	}
	if err := s.DB.Create(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// InstancierOuvrage expands a template into a new ouvrage for the given devis:
// each template line gets the document's snapshot coefficient and default VAT
// rate for its category, plus a drift marker when it points at an article.
func (s *CatalogueService) InstancierOuvrage(templateID uint, d *models.Devis, p *models.Parametres) (*models.Ouvrage, error) {
	var t models.OuvrageTemplate
	err := s.DB.Preload("Lignes", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	}).First(&t, templateID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTemplateIntrouvable
	}
	if err != nil {
		return nil, err
	}

	o := models.Ouvrage{
		Designation: t.Designation,
		Unite:       t.Unite,
		Quantite:    1,
	}
	for i, tl := range t.Lignes {
		l := models.LigneDebourse{
			Designation:  tl.Designation,
			Unite:        tl.Unite,
			Quantite:     tl.Quantite,
			PrixUnitaire: tl.PrixUnitaire,
			Categorie:    tl.Categorie,
			Coefficient:  d.Coefficients.Pour(tl.Categorie),
			TauxTVA:      p.TauxTVAPour(tl.Categorie),
			ArticleID:    tl.ArticleID,
			Position:     i,
		}
		if tl.ArticleID != nil {
			prix := tl.PrixUnitaire
			l.PrixOrigine = &prix
		}
		o.Lignes = append(o.Lignes, l)
	}
	return &o, nil
}

// LigneDepuisArticle copies an article into a new document line, stamping the
// snapshot coefficient, the category's default VAT rate and the drift marker.
func LigneDepuisArticle(a *models.Article, d *models.Devis, p *models.Parametres) models.LigneDebourse {
	prix := a.PrixUnitaire
	return models.LigneDebourse{
		Designation:  a.Designation,
		Unite:        a.Unite,
		Quantite:     1,
		PrixUnitaire: a.PrixUnitaire,
		Categorie:    a.Categorie,
		Coefficient:  d.Coefficients.Pour(a.Categorie),
		TauxTVA:      p.TauxTVAPour(a.Categorie),
		ArticleID:    &a.ID,
		PrixOrigine:  &prix,
	}
}
