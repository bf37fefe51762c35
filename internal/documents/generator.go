package documents

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/acmetrans/mgcp/internal/config"
	"github.com/acmetrans/mgcp/internal/models"
	"github.com/acmetrans/mgcp/internal/services"
	"github.com/acmetrans/mgcp/internal/view"
)

// Generator renders proposal and contract snapshots to disk and records them
// as GeneratedDocument rows. It implements services.DocumentGenerator.
//
// Two backends share the same context: html goes through the view template
// cache, pdf through maroto. The artifact directory is flat and filenames are
// deterministic, so re-rendering a given proposal version lands on the same
// path.
type Generator struct {
	Dir     string
	Format  string // "html" or "pdf"
	Pricing config.Pricing
}

func NewGenerator(dir, format string, pricing config.Pricing) *Generator {
	if format != "pdf" {
		format = "html"
	}
	return &Generator{Dir: dir, Format: format, Pricing: pricing}
}

// docContext is the flattened rendering input for both backends.
type docContext struct {
	Number         string
	ContractNumber string
	Version        int
	Date           string

	ClientName  string
	ClientEmail string

	ServiceType        string
	ServiceDescription string
	Origin             string
	Destination        string
	DistanceKM         float64
	EstimatedHours     float64
	WeightKG           float64
	VolumeM3           float64
	TruckType          string
	TruckCount         int
	DepartureDate      string
	ReturnDate         string

	FuelCost         float64
	TollCost         float64
	PerDiemCost      float64
	LodgingCost      float64
	BaseRate         float64
	DirectCost       float64
	IndirectCost     float64
	ProfitPercentage float64
	ProfitAmount     float64
	FinalPrice       float64

	ValidityHours int
	ExpiresAt     string
	PaymentTerms  string
	Terms         string

	Signed    bool
	Signature string
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02/01/2006")
}

func (g *Generator) buildContext(tx *gorm.DB, p *models.Proposal) (docContext, error) {
	client := p.Client
	if client.ID == "" {
		if err := tx.First(&client, "id = ?", p.ClientID).Error; err != nil {
			return docContext{}, err
		}
	}
	ctx := docContext{
		Number:             p.Number,
		ContractNumber:     "CONT-" + p.Number,
		Version:            p.Version,
		Date:               time.Now().Format("02/01/2006"),
		ClientName:         client.Name,
		ClientEmail:        client.Email,
		ServiceType:        p.ServiceType,
		ServiceDescription: p.ServiceDescription,
		Origin:             p.Origin,
		Destination:        p.Destination,
		DistanceKM:         p.DistanceKM,
		EstimatedHours:     p.EstimatedHours,
		WeightKG:           p.WeightKG,
		VolumeM3:           p.VolumeM3,
		TruckType:          p.TruckType,
		TruckCount:         p.TruckCount,
		DepartureDate:      formatDate(p.DepartureDate),
		ReturnDate:         formatDate(p.ReturnDate),
		FuelCost:           p.FuelCost,
		TollCost:           p.TollCost,
		PerDiemCost:        p.PerDiemCost,
		LodgingCost:        p.LodgingCost,
		BaseRate:           p.BaseRate,
		DirectCost:         p.DirectCost,
		IndirectCost:       p.AppliedIndirectCost,
		ProfitPercentage:   p.ProfitPercentage,
		ProfitAmount:       p.DirectCost * p.ProfitPercentage / 100,
		FinalPrice:         p.FinalPrice,
		ValidityHours:      g.Pricing.ValidityHours,
		PaymentTerms:       g.Pricing.PaymentTerms,
		Terms:              g.Pricing.Terms,
	}
	if p.ExpiresAt != nil {
		ctx.ExpiresAt = p.ExpiresAt.Format("02/01/2006 15:04")
	} else {
		ctx.ExpiresAt = "No especificada"
	}
	return ctx, nil
}

func (g *Generator) render(kind string, ctx docContext, format string) ([]byte, error) {
	if format == "pdf" {
		switch kind {
		case models.DocPropuesta:
			return proposalPDF(ctx)
		default:
			return contractPDF(ctx)
		}
	}
	switch kind {
	case models.DocPropuesta:
		return view.RenderBytes("documents/proposal.html", ctx)
	default:
		return view.RenderBytes("documents/contract.html", ctx)
	}
}

func (g *Generator) write(tx *gorm.DB, p *models.Proposal, kind, filename string, body []byte) (*models.GeneratedDocument, error) {
	if err := os.MkdirAll(g.Dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(g.Dir, filename)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return nil, err
	}
	sum := sha256.Sum256(body)
	doc := models.GeneratedDocument{
		ProposalID: p.ID,
		Type:       kind,
		Version:    p.Version,
		Path:       path,
		Hash:       hex.EncodeToString(sum[:]),
	}
	if err := tx.Create(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// Proposal renders the current proposal snapshot and records the artifact.
func (g *Generator) Proposal(tx *gorm.DB, p *models.Proposal) (*models.GeneratedDocument, error) {
	ctx, err := g.buildContext(tx, p)
	if err != nil {
		return nil, &services.RenderError{Document: models.DocPropuesta, Err: err}
	}
	body, err := g.render(models.DocPropuesta, ctx, g.Format)
	if err != nil {
		return nil, &services.RenderError{Document: models.DocPropuesta, Err: err}
	}
	name := fmt.Sprintf("propuesta_%s_v%d.%s", p.Number, p.Version, g.Format)
	doc, err := g.write(tx, p, models.DocPropuesta, name, body)
	if err != nil {
		return nil, &services.RenderError{Document: models.DocPropuesta, Err: err}
	}
	return doc, nil
}

// Contract renders the contract for an accepted proposal. Generation on any
// other state is refused before touching disk.
func (g *Generator) Contract(tx *gorm.DB, p *models.Proposal) (*models.GeneratedDocument, error) {
	if p.State != models.StateAceptada {
		return nil, &services.InvalidStateError{Action: "generate contract for", State: p.State}
	}
	ctx, err := g.buildContext(tx, p)
	if err != nil {
		return nil, &services.RenderError{Document: models.DocContrato, Err: err}
	}
	body, err := g.render(models.DocContrato, ctx, g.Format)
	if err != nil {
		return nil, &services.RenderError{Document: models.DocContrato, Err: err}
	}
	name := fmt.Sprintf("contrato_%s.%s", p.Number, g.Format)
	doc, err := g.write(tx, p, models.DocContrato, name, body)
	if err != nil {
		return nil, &services.RenderError{Document: models.DocContrato, Err: err}
	}
	return doc, nil
}

// ResignContract re-renders the contract artifact with the client signature
// and overwrites it in place. This is the only path in the system that mutates
// an existing artifact; both parties must see the signed copy at the original
// URL. The caller flips the record's signed flag.
func (g *Generator) ResignContract(tx *gorm.DB, p *models.Proposal, doc *models.GeneratedDocument, signature string) error {
	ctx, err := g.buildContext(tx, p)
	if err != nil {
		return &services.RenderError{Document: models.DocContrato, Err: err}
	}
	ctx.Signed = true
	ctx.Signature = signature
	format := strings.TrimPrefix(filepath.Ext(doc.Path), ".")
	body, err := g.render(models.DocContrato, ctx, format)
	if err != nil {
		return &services.RenderError{Document: models.DocContrato, Err: err}
	}
	if err := os.WriteFile(doc.Path, body, 0o644); err != nil {
		return &services.RenderError{Document: models.DocContrato, Err: err}
	}
	sum := sha256.Sum256(body)
	return tx.Model(doc).Update("hash", hex.EncodeToString(sum[:])).Error
}
