package services

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"text/template"

	"github.com/lcharier/gestibat/internal/models"
)

// Vendeur identifies the issuing company on electronic invoices.
type Vendeur struct {
	Nom       string
	NumeroTVA string
	Pays      string
}

// Profil minimum de la norme EN 16931, schéma CrossIndustryInvoice (CII).
// TypeCode 380 = facture commerciale; format de date 102 = YYYYMMDD.
const facturxTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<rsm:CrossIndustryInvoice xmlns:rsm="urn:un:unece:uncefact:data:standard:CrossIndustryInvoice:100"
    xmlns:qdt="urn:un:unece:uncefact:data:standard:QualifiedDataType:100"
    xmlns:ram="urn:un:unece:uncefact:data:standard:ReusableAggregateBusinessInformationEntity:100"
    xmlns:udt="urn:un:unece:uncefact:data:standard:UnqualifiedDataType:100">
    <rsm:ExchangedDocumentContext>
        <ram:GuidelineSpecifiedDocumentContextParameter>
            <ram:ID>urn:factur-x.eu:1p0:minimum</ram:ID>
        </ram:GuidelineSpecifiedDocumentContextParameter>
    </rsm:ExchangedDocumentContext>
    <rsm:ExchangedDocument>
        <ram:ID>{{.Reference}}</ram:ID>
        <ram:TypeCode>380</ram:TypeCode>
        <ram:IssueDateTime>
            <udt:DateTimeString format="102">{{.DateEmission}}</udt:DateTimeString>
        </ram:IssueDateTime>
    </rsm:ExchangedDocument>
    <rsm:SupplyChainTradeTransaction>
        <ram:ApplicableHeaderTradeAgreement>
            <ram:SellerTradeParty>
                <ram:Name>{{.VendeurNom}}</ram:Name>
                <ram:PostalTradeAddress>
                    <ram:CountryID>{{.VendeurPays}}</ram:CountryID>
                </ram:PostalTradeAddress>
                <ram:SpecifiedTaxRegistration>
                    <ram:ID schemeID="VA">{{.VendeurTVA}}</ram:ID>
                </ram:SpecifiedTaxRegistration>
            </ram:SellerTradeParty>
            <ram:BuyerTradeParty>
                <ram:Name>{{.ClientNom}}</ram:Name>
                <ram:PostalTradeAddress>
                    <ram:CountryID>FR</ram:CountryID>
                </ram:PostalTradeAddress>
            </ram:BuyerTradeParty>
        </ram:ApplicableHeaderTradeAgreement>
        <ram:ApplicableHeaderTradeDelivery>
        </ram:ApplicableHeaderTradeDelivery>
        <ram:ApplicableHeaderTradeSettlement>
            <ram:InvoiceCurrencyCode>EUR</ram:InvoiceCurrencyCode>
            <ram:SpecifiedTradeSettlementHeaderMonetarySummation>
                <ram:LineTotalAmount>{{.MontantHT}}</ram:LineTotalAmount>
                <ram:TaxBasisTotalAmount>{{.MontantHT}}</ram:TaxBasisTotalAmount>
                <ram:TaxTotalAmount currencyID="EUR">{{.MontantTVA}}</ram:TaxTotalAmount>
                <ram:GrandTotalAmount>{{.MontantTTC}}</ram:GrandTotalAmount>
                <ram:DuePayableAmount>{{.ResteAPayer}}</ram:DuePayableAmount>
            </ram:SpecifiedTradeSettlementHeaderMonetarySummation>
        </ram:ApplicableHeaderTradeSettlement>
    </rsm:SupplyChainTradeTransaction>
</rsm:CrossIndustryInvoice>
`

var facturxTmpl = template.Must(template.New("facturx").Parse(facturxTemplate))

// xmlEscape protège les champs libres (noms de client notamment) avant
// interpolation dans le gabarit CII.
func xmlEscape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

type facturxData struct {
	Reference    string
	DateEmission string
	VendeurNom   string
	VendeurTVA   string
	VendeurPays  string
	ClientNom    string
	MontantHT    string
	MontantTVA   string
	MontantTTC   string
	ResteAPayer  string
}

// GenererFacturX renders the CII XML for one invoice. The output is meant to
// be embedded as an attachment inside a PDF/A-3; serving the bare XML is
// enough for the accounting chain.
func GenererFacturX(f *models.Facture, vendeur Vendeur) ([]byte, error) {
	if vendeur.Pays == "" {
		vendeur.Pays = "FR"
	}
	data := facturxData{
		Reference:    xmlEscape(f.Reference),
		DateEmission: f.DateEmission.Format("20060102"),
		VendeurNom:   xmlEscape(vendeur.Nom),
		VendeurTVA:   xmlEscape(vendeur.NumeroTVA),
		VendeurPays:  vendeur.Pays,
		ClientNom:    xmlEscape(f.ClientNom),
		MontantHT:    fmt.Sprintf("%.2f", f.MontantHT),
		MontantTVA:   fmt.Sprintf("%.2f", f.MontantTVA),
		MontantTTC:   fmt.Sprintf("%.2f", f.MontantTTC),
		ResteAPayer:  fmt.Sprintf("%.2f", ResteAPayer(f)),
	}
	var buf bytes.Buffer
	if err := facturxTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render factur-x: %w", err)
	}
	return buf.Bytes(), nil
}
