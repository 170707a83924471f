package services

import (
	"testing"

	"github.com/lcharier/gestibat/internal/models"
)

func setupDevisAvecLigneArticle(t *testing.T) (*DevisService, *CatalogueService, *models.Article, *models.LigneDebourse) {
	t.Helper()
	db := setupTestDB(t)
	parametres := NewParametresService(db)
	catalogue := NewCatalogueService(db)
	devis := NewDevisService(db, parametres, catalogue)

	a, err := catalogue.Ajouter(models.Article{
		Designation:  "Sac ciment 35kg",
		Unite:        "u",
		PrixUnitaire: 8.90,
		Categorie:    models.CategorieFourniture,
	})
	if err != nil {
		t.Fatalf("add article: %v", err)
	}

	d, err := devis.Creer(nil, "dalle béton")
	if err != nil {
		t.Fatalf("create devis: %v", err)
	}
	lot, err := devis.AjouterLot(d.ID, "Maçonnerie")
	if err != nil {
		t.Fatalf("add lot: %v", err)
	}
	o, err := devis.AjouterOuvrage(lot.ID, models.Ouvrage{Designation: "Dalle 20m²"})
	if err != nil {
		t.Fatalf("add ouvrage: %v", err)
	}
	l, err := devis.AjouterLigneDepuisArticle(o.ID, a.ID)
	if err != nil {
		t.Fatalf("add ligne from article: %v", err)
	}
	return devis, catalogue, a, l
}

func TestCreerDevisNumerotation(t *testing.T) {
	db := setupTestDB(t)
	parametres := NewParametresService(db)
	devis := NewDevisService(db, parametres, NewCatalogueService(db))

	d1, err := devis.Creer(nil, "premier")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	d2, err := devis.Creer(nil, "second")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if d1.Numero != 1 || d2.Numero != 2 {
		t.Fatalf("expected numbers 1,2 got %d,%d", d1.Numero, d2.Numero)
	}
	if d1.Reference == d2.Reference {
		t.Fatalf("references must be distinct, both %q", d1.Reference)
	}
	if d1.Statut != models.DevisEtude {
		t.Fatalf("new devis status = %q, want ETUDE", d1.Statut)
	}
}

func TestModifierNumeroRepositionneLeCompteur(t *testing.T) {
	db := setupTestDB(t)
	parametres := NewParametresService(db)
	devis := NewDevisService(db, parametres, NewCatalogueService(db))

	d, err := devis.Creer(nil, "devis")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := devis.ModifierNumero(d.ID, 41); err != nil {
		t.Fatalf("edit numero: %v", err)
	}

	// le prochain devis suit le numéro manuel, sans trou ni collision
	suivant, err := devis.Creer(nil, "suivant")
	if err != nil {
		t.Fatalf("create after edit: %v", err)
	}
	if suivant.Numero != 42 {
		t.Fatalf("next number = %d, want 42", suivant.Numero)
	}
}

func TestLigneDepuisArticleStampeLesDefauts(t *testing.T) {
	_, _, a, l := setupDevisAvecLigneArticle(t)

	if l.Coefficient != 1.10 {
		t.Fatalf("coefficient = %v, want snapshot fourniture 1.10", l.Coefficient)
	}
	if l.TauxTVA != 20 {
		t.Fatalf("taux tva = %v, want 20", l.TauxTVA)
	}
	if l.ArticleID == nil || *l.ArticleID != a.ID {
		t.Fatalf("expected weak reference to article %d", a.ID)
	}
	if l.PrixOrigine == nil || *l.PrixOrigine != 8.90 {
		t.Fatalf("prix origine = %v, want 8.90", l.PrixOrigine)
	}
}

func TestAjouterLigneTauxZeroExplicite(t *testing.T) {
	db := setupTestDB(t)
	parametres := NewParametresService(db)
	devis := NewDevisService(db, parametres, NewCatalogueService(db))

	d, err := devis.Creer(nil, "chantier export")
	if err != nil {
		t.Fatalf("create devis: %v", err)
	}
	lot, _ := devis.AjouterLot(d.ID, "Lot unique")
	o, _ := devis.AjouterOuvrage(lot.ID, models.Ouvrage{Designation: "Ouvrage"})

	// sans taux demandé: défaut de la catégorie
	l, err := devis.AjouterLigne(o.ID, models.LigneDebourse{
		Designation: "Fourniture standard", Quantite: 1, PrixUnitaire: 100, Categorie: models.CategorieFourniture,
	}, nil)
	if err != nil {
		t.Fatalf("add line: %v", err)
	}
	if l.TauxTVA != 20 {
		t.Fatalf("taux tva = %v, want default 20", l.TauxTVA)
	}

	// taux zéro demandé explicitement: conservé tel quel
	zero := 0.0
	l, err = devis.AjouterLigne(o.ID, models.LigneDebourse{
		Designation: "Fourniture exonérée", Quantite: 1, PrixUnitaire: 100, Categorie: models.CategorieFourniture,
	}, &zero)
	if err != nil {
		t.Fatalf("add exempt line: %v", err)
	}
	if l.TauxTVA != 0 {
		t.Fatalf("taux tva = %v, want explicit 0", l.TauxTVA)
	}
}

func TestDriftCatalogueDeclencheUneSeuleFois(t *testing.T) {
	devis, _, _, l := setupDevisAvecLigneArticle(t)

	edit := *l
	edit.PrixUnitaire = 9.40
	maj1, pending, err := devis.ModifierLigne(l.ID, edit)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if pending == nil {
		t.Fatalf("expected pending catalog update")
	}
	if pending.AncienPrix != 8.90 || pending.NouveauPrix != 9.40 {
		t.Fatalf("pending = %+v", pending)
	}
	// la ligne prend toujours la nouvelle valeur
	if maj1.PrixUnitaire != 9.40 {
		t.Fatalf("line price = %v, want 9.40", maj1.PrixUnitaire)
	}
}

func TestDriftEditionAutreChampNeDeclenchePas(t *testing.T) {
	devis, _, _, l := setupDevisAvecLigneArticle(t)

	edit := *l
	edit.Quantite = 12
	edit.Coefficient = 1.3
	edit.TauxTVA = 10
	_, pending, err := devis.ModifierLigne(l.ID, edit)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if pending != nil {
		t.Fatalf("quantity/coefficient/vat edits must not trigger the protocol")
	}
}

func TestDriftConfirmerPropageAuCatalogue(t *testing.T) {
	devis, catalogue, a, l := setupDevisAvecLigneArticle(t)

	edit := *l
	edit.PrixUnitaire = 9.40
	saved, pending, err := devis.ModifierLigne(l.ID, edit)
	if err != nil || pending == nil {
		t.Fatalf("edit: err=%v pending=%v", err, pending)
	}
	if err := devis.ConfirmerMajCatalogue(saved.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	articles, err := catalogue.Rechercher("ciment", "")
	if err != nil || len(articles) != 1 {
		t.Fatalf("search: err=%v n=%d", err, len(articles))
	}
	if articles[0].ID != a.ID || articles[0].PrixUnitaire != 9.40 {
		t.Fatalf("catalog price = %v, want 9.40 on article %d", articles[0].PrixUnitaire, a.ID)
	}

	// le marqueur est réaligné: rééditer un autre champ ne re-déclenche pas
	var relue models.LigneDebourse
	if err := devis.DB.First(&relue, saved.ID).Error; err != nil {
		t.Fatalf("reload line: %v", err)
	}
	edit2 := relue
	edit2.Quantite = 3
	_, pending2, err := devis.ModifierLigne(relue.ID, edit2)
	if err != nil {
		t.Fatalf("second edit: %v", err)
	}
	if pending2 != nil {
		t.Fatalf("confirmed drift must not re-trigger")
	}
}

func TestDriftRefuserLaisseLeCatalogue(t *testing.T) {
	devis, _, a, l := setupDevisAvecLigneArticle(t)

	edit := *l
	edit.PrixUnitaire = 7.50
	saved, pending, err := devis.ModifierLigne(l.ID, edit)
	if err != nil || pending == nil {
		t.Fatalf("edit: err=%v pending=%v", err, pending)
	}
	if err := devis.RefuserMajCatalogue(saved.ID); err != nil {
		t.Fatalf("decline: %v", err)
	}

	var article models.Article
	if err := devis.DB.First(&article, a.ID).Error; err != nil {
		t.Fatalf("reload article: %v", err)
	}
	if article.PrixUnitaire != 8.90 {
		t.Fatalf("catalog price = %v, want unchanged 8.90", article.PrixUnitaire)
	}

	var relue models.LigneDebourse
	if err := devis.DB.First(&relue, saved.ID).Error; err != nil {
		t.Fatalf("reload line: %v", err)
	}
	if relue.PrixUnitaire != 7.50 {
		t.Fatalf("line keeps edited price, got %v", relue.PrixUnitaire)
	}
	if relue.PrixOrigine == nil || *relue.PrixOrigine != 7.50 {
		t.Fatalf("marker must realign to 7.50, got %v", relue.PrixOrigine)
	}
}

func TestTotalHTMisEnCache(t *testing.T) {
	devis, _, _, l := setupDevisAvecLigneArticle(t)

	var o models.Ouvrage
	if err := devis.DB.First(&o, l.OuvrageID).Error; err != nil {
		t.Fatalf("load ouvrage: %v", err)
	}
	var lot models.Lot
	if err := devis.DB.First(&lot, o.LotID).Error; err != nil {
		t.Fatalf("load lot: %v", err)
	}
	d, err := devis.Charger(lot.DevisID)
	if err != nil {
		t.Fatalf("load devis: %v", err)
	}
	// 1 × 8.90 × 1.10
	if !almostEqual(d.TotalHT, 9.79) {
		t.Fatalf("cached total HT = %v, want 9.79", d.TotalHT)
	}
}

func TestInstancierOuvrageDepuisTemplate(t *testing.T) {
	db := setupTestDB(t)
	parametres := NewParametresService(db)
	catalogue := NewCatalogueService(db)
	devis := NewDevisService(db, parametres, catalogue)

	template := models.OuvrageTemplate{
		Reference:   "OUV-TEST01",
		Designation: "Cloison placo",
		Unite:       "m²",
		Lignes: []models.OuvrageTemplateLigne{
			{Designation: "Pose", Unite: "h", Quantite: 0.5, PrixUnitaire: 24, Categorie: models.CategorieMOD, Position: 0},
			{Designation: "Plaque BA13", Unite: "u", Quantite: 1, PrixUnitaire: 6.2, Categorie: models.CategorieFourniture, Position: 1},
		},
	}
	if err := db.Create(&template).Error; err != nil {
		t.Fatalf("seed template: %v", err)
	}

	d, _ := devis.Creer(nil, "rénovation")
	lot, _ := devis.AjouterLot(d.ID, "Plâtrerie")
	o, err := devis.InsererOuvrageDepuisTemplate(lot.ID, template.ID)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	if len(o.Lignes) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(o.Lignes))
	}
	// coefficients du snapshot du devis, pas du template
	if o.Lignes[0].Coefficient != 1.15 || o.Lignes[1].Coefficient != 1.10 {
		t.Fatalf("coefficients = %v/%v, want 1.15/1.10", o.Lignes[0].Coefficient, o.Lignes[1].Coefficient)
	}
}
