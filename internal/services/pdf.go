package services

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/lcharier/gestibat/internal/models"
)

func libelleFacture(t string) string {
	switch t {
	case models.FactureAcompte:
		return "FACTURE D'ACOMPTE"
	case models.FactureAvancement:
		return "FACTURE D'AVANCEMENT"
	case models.FactureSolde:
		return "FACTURE DE SOLDE"
	}
	return "FACTURE"
}

func euros(v float64) string {
	return fmt.Sprintf("%.2f €", v)
}

// GenererPDF renders the printable summary of one invoice: header, amounts
// table down to the net à payer, retention release note and the mandatory
// late-payment mentions.
func GenererPDF(f *models.Facture, vendeur Vendeur) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build()

	m := maroto.New(cfg)

	enteteFacture(m, f, vendeur)
	tableauMontants(m, f)
	mentionsFacture(m, f)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func enteteFacture(m core.Maroto, f *models.Facture, vendeur Vendeur) {
	m.AddRows(
		row.New(10).Add(
			col.New(6).Add(
				text.New(vendeur.Nom, props.Text{Size: 12, Style: fontstyle.Bold}),
			),
			col.New(6).Add(
				text.New(f.ClientNom, props.Text{Size: 11, Align: align.Right}),
			),
		),
		row.New(6),
		row.New(10).Add(
			col.New(12).Add(
				text.New(fmt.Sprintf("%s N° %s", libelleFacture(f.Type), f.Reference), props.Text{
					Size:  14,
					Style: fontstyle.Bold,
				}),
			),
		),
		row.New(6).Add(
			col.New(12).Add(
				text.New("Date d'émission: "+f.DateEmission.Format("02/01/2006"), props.Text{Size: 9}),
			),
		),
	)
	if !f.DateEcheance.IsZero() {
		m.AddRows(row.New(6).Add(
			col.New(12).Add(
				text.New("Date d'échéance: "+f.DateEcheance.Format("02/01/2006"), props.Text{Size: 9}),
			),
		))
	}
	m.AddRows(row.New(6))
}

func ligneMontant(m core.Maroto, libelle, montant string, gras bool) {
	style := fontstyle.Normal
	if gras {
		style = fontstyle.Bold
	}
	m.AddRows(row.New(7).Add(
		col.New(8).Add(text.New(libelle, props.Text{Size: 10, Style: style})),
		col.New(4).Add(text.New(montant, props.Text{Size: 10, Style: style, Align: align.Right})),
	))
}

func tableauMontants(m core.Maroto, f *models.Facture) {
	headerBg := &props.Color{Red: 59, Green: 130, Blue: 246}
	m.AddRows(row.New(8).Add(
		col.New(8).WithStyle(&props.Cell{BackgroundColor: headerBg}).Add(
			text.New("Désignation", props.Text{Size: 10, Style: fontstyle.Bold, Color: &props.Color{Red: 255, Green: 255, Blue: 255}}),
		),
		col.New(4).WithStyle(&props.Cell{BackgroundColor: headerBg}).Add(
			text.New("Montant", props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right, Color: &props.Color{Red: 255, Green: 255, Blue: 255}}),
		),
	))

	ligneMontant(m, "Total HT", euros(f.MontantHT), false)
	ligneMontant(m, "Total TVA", euros(f.MontantTVA), false)
	ligneMontant(m, "Total TTC", euros(f.MontantTTC), false)
	if f.RetenueGarantie && f.MontantRetenueGarantie > 0 {
		ligneMontant(m, fmt.Sprintf("Retenue de garantie (%.0f%%)", f.TauxRetenueGarantie), "- "+euros(f.MontantRetenueGarantie), false)
	}
	for _, ac := range f.AcomptesDeduits {
		ligneMontant(m, "Acompte déduit (déjà soustrait du HT)", euros(ac.MontantDeduit), false)
	}
	ligneMontant(m, "NET À PAYER", euros(NetAPayer(f)), true)
}

func mentionsFacture(m core.Maroto, f *models.Facture) {
	m.AddRows(row.New(10))
	gris := &props.Color{Red: 100, Green: 100, Blue: 100}
	if f.RetenueGarantie && f.DateLiberationRetenue != nil {
		m.AddRows(row.New(5).Add(col.New(12).Add(
			text.New(
				"Une retenue de garantie a été appliquée. Date de libération théorique : "+f.DateLiberationRetenue.Format("02/01/2006"),
				props.Text{Size: 8, Color: gris},
			),
		)))
	}
	m.AddRows(
		row.New(5).Add(col.New(12).Add(
			text.New("En cas de retard de paiement, une pénalité de 3 fois le taux d'intérêt légal sera appliquée.", props.Text{Size: 8, Color: gris}),
		)),
		row.New(5).Add(col.New(12).Add(
			text.New("Indemnité forfaitaire pour frais de recouvrement : 40 euros.", props.Text{Size: 8, Color: gris}),
		)),
	)
}
