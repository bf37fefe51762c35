package documents

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	marotocfg "github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/acmetrans/mgcp/internal/view"
)

// PDF rendering backend built on maroto.

func newPDF() core.Maroto {
	cfg := marotocfg.NewBuilder().
		WithLeftMargin(15).
		WithRightMargin(15).
		Build()
	return maroto.New(cfg)
}

func header(m core.Maroto, title, subtitle string) {
	m.AddRow(12, text.NewCol(12, "ACME TRANS", props.Text{Size: 16, Style: fontstyle.Bold, Align: align.Center}))
	m.AddRow(8, text.NewCol(12, title, props.Text{Size: 12, Style: fontstyle.Bold, Align: align.Center}))
	if subtitle != "" {
		m.AddRow(6, text.NewCol(12, subtitle, props.Text{Size: 9, Align: align.Center}))
	}
	m.AddRow(4, line.NewCol(12))
}

func labelRow(m core.Maroto, label, value string) {
	m.AddRow(6,
		text.NewCol(4, label, props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(8, value, props.Text{Size: 9}),
	)
}

func textBlock(m core.Maroto, title, body string) {
	m.AddRow(8, text.NewCol(12, title, props.Text{Size: 10, Style: fontstyle.Bold}))
	m.AddRow(24, text.NewCol(12, body, props.Text{Size: 8}))
}

func proposalPDF(ctx docContext) ([]byte, error) {
	m := newPDF()
	header(m, "Propuesta de Servicio de Transporte", fmt.Sprintf("%s — versión %d — %s", ctx.Number, ctx.Version, ctx.Date))

	labelRow(m, "Cliente", ctx.ClientName)
	labelRow(m, "Email", ctx.ClientEmail)
	if ctx.ServiceType != "" {
		labelRow(m, "Tipo de servicio", ctx.ServiceType)
	}
	if ctx.Origin != "" || ctx.Destination != "" {
		labelRow(m, "Ruta", fmt.Sprintf("%s → %s (%.0f km, %.1f h)", ctx.Origin, ctx.Destination, ctx.DistanceKM, ctx.EstimatedHours))
	}
	if ctx.TruckType != "" {
		labelRow(m, "Carga", fmt.Sprintf("%.0f kg / %.1f m3 — %d camión(es) %s", ctx.WeightKG, ctx.VolumeM3, ctx.TruckCount, ctx.TruckType))
	}
	if ctx.DepartureDate != "" {
		labelRow(m, "Fechas", ctx.DepartureDate+" a "+ctx.ReturnDate)
	}
	labelRow(m, "Descripción", ctx.ServiceDescription)

	m.AddRow(4, line.NewCol(12))
	labelRow(m, "Costo directo", view.FormatCLP(ctx.DirectCost))
	labelRow(m, "Costo indirecto", view.FormatCLP(ctx.IndirectCost))
	labelRow(m, fmt.Sprintf("Utilidad (%.1f%%)", ctx.ProfitPercentage), view.FormatCLP(ctx.ProfitAmount))
	m.AddRow(8,
		text.NewCol(4, "PRECIO FINAL", props.Text{Size: 11, Style: fontstyle.Bold}),
		text.NewCol(8, view.FormatCLP(ctx.FinalPrice), props.Text{Size: 11, Style: fontstyle.Bold}),
	)

	labelRow(m, "Vigencia", fmt.Sprintf("%d horas (expira %s)", ctx.ValidityHours, ctx.ExpiresAt))
	textBlock(m, "Condiciones de pago", ctx.PaymentTerms)
	textBlock(m, "Términos y condiciones", ctx.Terms)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

func contractPDF(ctx docContext) ([]byte, error) {
	m := newPDF()
	header(m, "Contrato de Servicio de Transporte", fmt.Sprintf("%s — %s", ctx.ContractNumber, ctx.Date))

	labelRow(m, "Propuesta", ctx.Number)
	labelRow(m, "Cliente", ctx.ClientName)
	if ctx.Origin != "" || ctx.Destination != "" {
		labelRow(m, "Ruta", fmt.Sprintf("%s → %s (%.0f km)", ctx.Origin, ctx.Destination, ctx.DistanceKM))
	}
	if ctx.DepartureDate != "" {
		labelRow(m, "Fechas", ctx.DepartureDate+" a "+ctx.ReturnDate)
	}
	labelRow(m, "Precio acordado", view.FormatCLP(ctx.FinalPrice))

	textBlock(m, "Condiciones de pago", ctx.PaymentTerms)
	textBlock(m, "Términos y condiciones", ctx.Terms)

	m.AddRow(4, line.NewCol(12))
	if ctx.Signed {
		labelRow(m, "Firmado por", ctx.Signature)
		labelRow(m, "Por ACME TRANS", "Gerencia Comercial")
	} else {
		labelRow(m, "Firma del cliente", "PENDIENTE")
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}
