package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/lcharier/gestibat/internal/models"
)

var (
	ErrDevisIntrouvable   = errors.New("devis_introuvable")
	ErrLotIntrouvable     = errors.New("lot_introuvable")
	ErrOuvrageIntrouvable = errors.New("ouvrage_introuvable")
	ErrLigneIntrouvable   = errors.New("ligne_introuvable")
	ErrStatutInvalide     = errors.New("statut_invalide")
	ErrModeInvalide       = errors.New("mode_invalide")
)

var statutsDevis = map[string]bool{
	models.DevisEtude:   true,
	models.DevisRemis:   true,
	models.DevisAccepte: true,
	models.DevisRefuse:  true,
	models.DevisAnnule:  true,
}

// MajPrixCatalogue is a pending catalog back-propagation: the document line
// already carries the new price, the catalog article still carries the old one.
// The caller surfaces it to the user and answers through ConfirmerMajCatalogue
// or RefuserMajCatalogue.
type MajPrixCatalogue struct {
	LigneID     uint    `json:"ligne_id"`
	ArticleID   uint    `json:"article_id"`
	Designation string  `json:"designation"`
	AncienPrix  float64 `json:"ancien_prix"`
	NouveauPrix float64 `json:"nouveau_prix"`
}

// DevisService owns the quote aggregate and its numbering.
type DevisService struct {
	DB         *gorm.DB
	Parametres *ParametresService
	Catalogue  *CatalogueService
}

func NewDevisService(db *gorm.DB, p *ParametresService, c *CatalogueService) *DevisService {
	return &DevisService{DB: db, Parametres: p, Catalogue: c}
}

// Creer builds a new quote: number consumed from the counter, coefficient
// snapshot and default bénéfice copied from the current global settings.
func (s *DevisService) Creer(clientID *uint, description string) (*models.Devis, error) {
	p, err := s.Parametres.Get()
	if err != nil {
		return nil, err
	}
	numero, err := s.Parametres.ConsommerNumeroDevis()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	d := models.Devis{
		Reference:    ReferenceDevis(now.Year(), numero),
		Numero:       numero,
		Statut:       models.DevisEtude,
		ClientID:     clientID,
		Description:  description,
		DateEmission: now,
		DateValidite: now.AddDate(0, 3, 0),
		Coefficients: p.Coefficients,
		Benefice:     p.BeneficeParDefaut,
		ModeCalcul:   models.ModeCoefficient,
	}
	if err := s.DB.Create(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// Charger loads the full aggregate, lines ordered by position.
func (s *DevisService) Charger(id uint) (*models.Devis, error) {
	var d models.Devis
	err := s.DB.
		Preload("Client").
		Preload("Lots", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Lots.Ouvrages", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Lots.Ouvrages.Lignes", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		First(&d, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDevisIntrouvable
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Lister returns the quotes without their line detail, newest first.
func (s *DevisService) Lister() ([]models.Devis, error) {
	var devis []models.Devis
	if err := s.DB.Preload("Client").Order("created_at DESC").Find(&devis).Error; err != nil {
		return nil, err
	}
	return devis, nil
}

// Modifier updates the header fields of a quote.
func (s *DevisService) Modifier(id uint, in models.Devis) (*models.Devis, error) {
	d, err := s.Charger(id)
	if err != nil {
		return nil, err
	}
	if !statutsDevis[in.Statut] {
		return nil, ErrStatutInvalide
	}
	if in.ModeCalcul != models.ModeCoefficient && in.ModeCalcul != models.ModeCoefficientMarge {
		return nil, ErrModeInvalide
	}
	d.Statut = in.Statut
	d.ClientID = in.ClientID
	d.Description = in.Description
	d.DateEmission = in.DateEmission
	d.DateValidite = in.DateValidite
	d.Coefficients = in.Coefficients
	d.Benefice = in.Benefice
	d.ModeCalcul = in.ModeCalcul
	if err := s.sauverEtRecalculer(d); err != nil {
		return nil, err
	}
	return d, nil
}

// ModifierNumero sets a manual reference number. The counter is repositioned
// just past it so the next automatic number never collides; no number is
// consumed.
func (s *DevisService) ModifierNumero(id uint, numero int) (*models.Devis, error) {
	if numero < 1 {
		return nil, ErrCompteurInvalide
	}
	d, err := s.Charger(id)
	if err != nil {
		return nil, err
	}
	d.Numero = numero
	d.Reference = ReferenceDevis(d.DateEmission.Year(), numero)
	if err := s.DB.Save(d).Error; err != nil {
		return nil, err
	}
	if err := s.Parametres.RedefinirCompteurDevis(numero + 1); err != nil {
		return nil, err
	}
	return d, nil
}

// Supprimer removes the quote and, through the cascade, its whole tree.
func (s *DevisService) Supprimer(id uint) error {
	res := s.DB.Select("Lots").Delete(&models.Devis{ID: id})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDevisIntrouvable
	}
	return nil
}

// Synthese recomputes the financial rollup of a quote.
func (s *DevisService) Synthese(id uint) (*Synthese, error) {
	d, err := s.Charger(id)
	if err != nil {
		return nil, err
	}
	syn := CalculeSynthese(d)
	return &syn, nil
}

// AjouterLot appends a section at the end of the quote.
func (s *DevisService) AjouterLot(devisID uint, titre string) (*models.Lot, error) {
	d, err := s.Charger(devisID)
	if err != nil {
		return nil, err
	}
	lot := models.Lot{DevisID: d.ID, Titre: titre, Position: len(d.Lots)}
	if err := s.DB.Create(&lot).Error; err != nil {
		return nil, err
	}
	return &lot, nil
}

// AjouterOuvrage appends an empty ouvrage to a lot.
func (s *DevisService) AjouterOuvrage(lotID uint, o models.Ouvrage) (*models.Ouvrage, error) {
	var lot models.Lot
	if err := s.DB.Preload("Ouvrages").First(&lot, lotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLotIntrouvable
		}
		return nil, err
	}
	o.LotID = lot.ID
	o.Position = len(lot.Ouvrages)
	if o.Quantite == 0 {
		o.Quantite = 1
	}
	if err := s.DB.Create(&o).Error; err != nil {
		return nil, err
	}
	if err := s.recalculerPourLot(lot.ID); err != nil {
		return nil, err
	}
	return &o, nil
}

// AjouterLigne appends a deboursé line to an ouvrage. When no coefficient is
// supplied the owning quote's snapshot is stamped in. tauxTVA is the
// explicitly requested VAT rate; nil falls back to the line's own value or,
// when that is zero, to the category default, so a genuine 0% rate (export,
// autoliquidation) stays expressible at creation.
func (s *DevisService) AjouterLigne(ouvrageID uint, l models.LigneDebourse, tauxTVA *float64) (*models.LigneDebourse, error) {
	var o models.Ouvrage
	if err := s.DB.Preload("Lignes").First(&o, ouvrageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOuvrageIntrouvable
		}
		return nil, err
	}
	d, err := s.devisPourLot(o.LotID)
	if err != nil {
		return nil, err
	}
	if !l.Categorie.Valide() {
		return nil, errors.New("categorie_invalide")
	}
	if l.Coefficient == 0 {
		l.Coefficient = d.Coefficients.Pour(l.Categorie)
	}
	if tauxTVA != nil {
		l.TauxTVA = *tauxTVA
	} else if l.TauxTVA == 0 {
		p, err := s.Parametres.Get()
		if err != nil {
			return nil, err
		}
		l.TauxTVA = p.TauxTVAPour(l.Categorie)
	}
	l.OuvrageID = o.ID
	l.Position = len(o.Lignes)
	if err := s.DB.Create(&l).Error; err != nil {
		return nil, err
	}
	if err := s.recalculer(d.ID); err != nil {
		return nil, err
	}
	return &l, nil
}

// AjouterLigneDepuisArticle copies a catalog article into a new line.
func (s *DevisService) AjouterLigneDepuisArticle(ouvrageID, articleID uint) (*models.LigneDebourse, error) {
	var a models.Article
	if err := s.DB.First(&a, articleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleIntrouvable
		}
		return nil, err
	}
	var o models.Ouvrage
	if err := s.DB.Preload("Lignes").First(&o, ouvrageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOuvrageIntrouvable
		}
		return nil, err
	}
	d, err := s.devisPourLot(o.LotID)
	if err != nil {
		return nil, err
	}
	p, err := s.Parametres.Get()
	if err != nil {
		return nil, err
	}
	l := LigneDepuisArticle(&a, d, p)
	l.OuvrageID = o.ID
	l.Position = len(o.Lignes)
	if err := s.DB.Create(&l).Error; err != nil {
		return nil, err
	}
	if err := s.recalculer(d.ID); err != nil {
		return nil, err
	}
	return &l, nil
}

// InsererOuvrageDepuisTemplate instantiates a catalog template into a lot.
func (s *DevisService) InsererOuvrageDepuisTemplate(lotID, templateID uint) (*models.Ouvrage, error) {
	var lot models.Lot
	if err := s.DB.Preload("Ouvrages").First(&lot, lotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLotIntrouvable
		}
		return nil, err
	}
	d, err := s.devisPourLot(lot.ID)
	if err != nil {
		return nil, err
	}
	p, err := s.Parametres.Get()
	if err != nil {
		return nil, err
	}
	o, err := s.Catalogue.InstancierOuvrage(templateID, d, p)
	if err != nil {
		return nil, err
	}
	o.LotID = lot.ID
	o.Position = len(lot.Ouvrages)
	if err := s.DB.Create(o).Error; err != nil {
		return nil, err
	}
	if err := s.recalculer(d.ID); err != nil {
		return nil, err
	}
	return o, nil
}

// ModifierLigne updates a line. Only a unit price change on a line still linked
// to a catalog article triggers the back-propagation question; every other
// field edits silently. The returned MajPrixCatalogue is nil when nothing is
// pending.
func (s *DevisService) ModifierLigne(ligneID uint, in models.LigneDebourse) (*models.LigneDebourse, *MajPrixCatalogue, error) {
	var l models.LigneDebourse
	if err := s.DB.First(&l, ligneID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrLigneIntrouvable
		}
		return nil, nil, err
	}

	var maj *MajPrixCatalogue
	if l.ArticleID != nil && l.PrixOrigine != nil &&
		in.PrixUnitaire != l.PrixUnitaire && in.PrixUnitaire != *l.PrixOrigine {
		maj = &MajPrixCatalogue{
			LigneID:     l.ID,
			ArticleID:   *l.ArticleID,
			Designation: l.Designation,
			AncienPrix:  *l.PrixOrigine,
			NouveauPrix: in.PrixUnitaire,
		}
	}

	l.Designation = in.Designation
	l.Unite = in.Unite
	l.Quantite = in.Quantite
	l.PrixUnitaire = in.PrixUnitaire
	if in.Categorie.Valide() {
		l.Categorie = in.Categorie
	}
	if in.Coefficient > 0 {
		l.Coefficient = in.Coefficient
	}
	l.TauxTVA = in.TauxTVA
	l.Benefice = in.Benefice
	if err := s.DB.Save(&l).Error; err != nil {
		return nil, nil, err
	}
	if err := s.recalculerPourLigne(&l); err != nil {
		return nil, nil, err
	}
	return &l, maj, nil
}

// ConfirmerMajCatalogue applies a pending back-propagation: the catalog article
// takes the line's new price and the drift marker realigns so the same edit is
// not asked about again.
func (s *DevisService) ConfirmerMajCatalogue(ligneID uint) error {
	var l models.LigneDebourse
	if err := s.DB.First(&l, ligneID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLigneIntrouvable
		}
		return err
	}
	if l.ArticleID == nil {
		return ErrArticleIntrouvable
	}
	if err := s.Catalogue.ModifierPrix(*l.ArticleID, l.PrixUnitaire); err != nil {
		return err
	}
	prix := l.PrixUnitaire
	l.PrixOrigine = &prix
	return s.DB.Save(&l).Error
}

// RefuserMajCatalogue declines a pending back-propagation. The line keeps its
// new price, the catalog keeps its old one, and the marker realigns so the
// question is only asked again after a further edit.
func (s *DevisService) RefuserMajCatalogue(ligneID uint) error {
	var l models.LigneDebourse
	if err := s.DB.First(&l, ligneID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLigneIntrouvable
		}
		return err
	}
	prix := l.PrixUnitaire
	l.PrixOrigine = &prix
	return s.DB.Save(&l).Error
}

// SupprimerLigne removes a line and refreshes the cached total.
func (s *DevisService) SupprimerLigne(ligneID uint) error {
	var l models.LigneDebourse
	if err := s.DB.First(&l, ligneID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLigneIntrouvable
		}
		return err
	}
	if err := s.DB.Delete(&l).Error; err != nil {
		return err
	}
	return s.recalculerPourLigne(&l)
}

// SupprimerOuvrage removes an ouvrage and its lines.
func (s *DevisService) SupprimerOuvrage(ouvrageID uint) error {
	var o models.Ouvrage
	if err := s.DB.First(&o, ouvrageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOuvrageIntrouvable
		}
		return err
	}
	if err := s.DB.Select("Lignes").Delete(&o).Error; err != nil {
		return err
	}
	return s.recalculerPourLot(o.LotID)
}

// SupprimerLot removes a section and everything under it.
func (s *DevisService) SupprimerLot(lotID uint) error {
	var lot models.Lot
	if err := s.DB.First(&lot, lotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLotIntrouvable
		}
		return err
	}
	if err := s.DB.Select("Ouvrages").Delete(&lot).Error; err != nil {
		return err
	}
	return s.recalculer(lot.DevisID)
}

func (s *DevisService) devisPourLot(lotID uint) (*models.Devis, error) {
	var lot models.Lot
	if err := s.DB.First(&lot, lotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLotIntrouvable
		}
		return nil, err
	}
	return s.Charger(lot.DevisID)
}

func (s *DevisService) recalculerPourLigne(l *models.LigneDebourse) error {
	var o models.Ouvrage
	if err := s.DB.First(&o, l.OuvrageID).Error; err != nil {
		return err
	}
	return s.recalculerPourLot(o.LotID)
}

func (s *DevisService) recalculerPourLot(lotID uint) error {
	var lot models.Lot
	if err := s.DB.First(&lot, lotID).Error; err != nil {
		return err
	}
	return s.recalculer(lot.DevisID)
}

// recalculer refreshes the cached TotalHT from the current lines.
func (s *DevisService) recalculer(devisID uint) error {
	d, err := s.Charger(devisID)
	if err != nil {
		return err
	}
	return s.sauverEtRecalculer(d)
}

func (s *DevisService) sauverEtRecalculer(d *models.Devis) error {
	syn := CalculeSynthese(d)
	d.TotalHT = syn.TotalVente
	return s.DB.Omit("Lots").Save(d).Error
}
