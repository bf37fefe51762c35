package services

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/acmetrans/mgcp/internal/config"
	"github.com/acmetrans/mgcp/internal/models"
	"github.com/acmetrans/mgcp/internal/validation"
)

// DocumentGenerator is the rendering collaborator the lifecycle calls into.
// Implemented by internal/documents; kept as an interface so lifecycle tests
// can run without touching disk.
type DocumentGenerator interface {
	Proposal(tx *gorm.DB, p *models.Proposal) (*models.GeneratedDocument, error)
	Contract(tx *gorm.DB, p *models.Proposal) (*models.GeneratedDocument, error)
	ResignContract(tx *gorm.DB, p *models.Proposal, doc *models.GeneratedDocument, signature string) error
}

// ProposalService drives the proposal lifecycle: every mutating operation is
// one transaction, validated against the transition table before any side
// effect runs.
type ProposalService struct {
	DB         *gorm.DB
	Docs       DocumentGenerator
	Pricing    config.Pricing
	BaseURL    string
	Recipients Recipients
}

func NewProposalService(db *gorm.DB, docs DocumentGenerator, pricing config.Pricing, baseURL string, rec Recipients) *ProposalService {
	return &ProposalService{DB: db, Docs: docs, Pricing: pricing, BaseURL: baseURL, Recipients: rec}
}

// Transition table. An action is legal only when the proposal sits in one of
// the listed states; everything else is rejected before side effects.
const (
	actionSend    = "send"
	actionModify  = "modify"
	actionRespond = "respond to"
)

var allowedStates = map[string][]string{
	actionSend:    {models.StatePregenerada, models.StateRevision},
	actionModify:  {models.StatePregenerada, models.StateEnviada, models.StateRevision},
	actionRespond: {models.StateEnviada},
}

func checkTransition(action, state string) error {
	for _, s := range allowedStates[action] {
		if s == state {
			return nil
		}
	}
	return &InvalidStateError{Action: action, State: state}
}

// newAccessToken returns a 32-byte URL-safe capability token.
func newAccessToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// indirectWindowDays is the trailing window averaged into new proposals.
const indirectWindowDays = 30

func (s *ProposalService) indirectCostAverage(tx *gorm.DB, now time.Time) (float64, error) {
	var records []models.IndirectCostRecord
	cutoff := now.AddDate(0, 0, -indirectWindowDays)
	if err := tx.Where("registered_at >= ?", cutoff).Find(&records).Error; err != nil {
		return 0, err
	}
	return IndirectCostAverage(records, now, indirectWindowDays), nil
}

type CreateInput struct {
	ClientID           string  `json:"client_id"`
	DirectCost         float64 `json:"direct_cost"`
	ServiceDescription string  `json:"service_description"`
	ProfitPercentage   float64 `json:"profit_percentage"`
	DirectorUser       string  `json:"director_user"`

	ServiceType    string     `json:"service_type"`
	Origin         string     `json:"origin"`
	Destination    string     `json:"destination"`
	DistanceKM     float64    `json:"distance_km"`
	EstimatedHours float64    `json:"estimated_hours"`
	WeightKG       float64    `json:"weight_kg"`
	VolumeM3       float64    `json:"volume_m3"`
	TruckType      string     `json:"truck_type"`
	TruckCount     int        `json:"truck_count"`
	DepartureDate  *time.Time `json:"departure_date"`
	ReturnDate     *time.Time `json:"return_date"`

	FuelCost    float64 `json:"fuel_cost"`
	TollCost    float64 `json:"toll_cost"`
	PerDiemCost float64 `json:"per_diem_cost"`
	LodgingCost float64 `json:"lodging_cost"`
	BaseRate    float64 `json:"base_rate"`
}

// Create pregenerates a proposal: sequence number from the creation count,
// trailing-average indirect cost, unrounded initial price, fresh access token,
// version 1 ledger row.
func (s *ProposalService) Create(in CreateInput) (*models.Proposal, error) {
	v := validation.Violations{}
	validation.Required("client_id", in.ClientID, v)
	validation.Required("service_description", in.ServiceDescription, v)
	validation.PositiveFloat("direct_cost", in.DirectCost, v)
	validation.RangeFloat("profit_percentage", in.ProfitPercentage, s.Pricing.ProfitMin, s.Pricing.ProfitMax, v)
	if !v.Empty() {
		return nil, &ValidationError{Violations: v}
	}
	user := in.DirectorUser
	if user == "" {
		user = "Director"
	}

	var proposal models.Proposal
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var client models.Client
		if err := tx.First(&client, "id = ?", in.ClientID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "client"}
			}
			return err
		}
		var count int64
		if err := tx.Model(&models.Proposal{}).Count(&count).Error; err != nil {
			return err
		}
		now := time.Now().UTC()
		indirect, err := s.indirectCostAverage(tx, now)
		if err != nil {
			return err
		}
		token, err := newAccessToken()
		if err != nil {
			return err
		}
		truckCount := in.TruckCount
		if truckCount == 0 {
			truckCount = 1
		}
		proposal = models.Proposal{
			ClientID:            client.ID,
			Number:              fmt.Sprintf("PROP-%s-%04d", now.Format("200601"), count+1),
			ServiceType:         in.ServiceType,
			Origin:              in.Origin,
			Destination:         in.Destination,
			DistanceKM:          in.DistanceKM,
			EstimatedHours:      in.EstimatedHours,
			WeightKG:            in.WeightKG,
			VolumeM3:            in.VolumeM3,
			TruckType:           in.TruckType,
			TruckCount:          truckCount,
			DepartureDate:       in.DepartureDate,
			ReturnDate:          in.ReturnDate,
			FuelCost:            in.FuelCost,
			TollCost:            in.TollCost,
			PerDiemCost:         in.PerDiemCost,
			LodgingCost:         in.LodgingCost,
			BaseRate:            in.BaseRate,
			DirectCost:          in.DirectCost,
			ServiceDescription:  in.ServiceDescription,
			ProfitPercentage:    in.ProfitPercentage,
			AppliedIndirectCost: indirect,
			FinalPrice:          FinalPrice(in.DirectCost, indirect, in.ProfitPercentage),
			Version:             1,
			AccessToken:         token,
			State:               models.StatePregenerada,
			DirectorUser:        user,
		}
		if err := tx.Create(&proposal).Error; err != nil {
			return err
		}
		version := models.ProposalVersion{
			ProposalID:       proposal.ID,
			Sequence:         1,
			DirectCost:       proposal.DirectCost,
			ProfitPercentage: proposal.ProfitPercentage,
			IndirectCost:     proposal.AppliedIndirectCost,
			FinalPrice:       proposal.FinalPrice,
			Changes:          "Creación inicial de propuesta",
			User:             user,
		}
		return tx.Create(&version).Error
	})
	if err != nil {
		return nil, err
	}
	return &proposal, nil
}

type SendResult struct {
	AccessLink string    `json:"access_link"`
	ExpiresAt  time.Time `json:"expiration_time"`
	DocumentID string    `json:"document_id"`
}

// Send renders and persists a proposal snapshot, opens the validity window and
// records the client notification. Legal from PREGENERADA and REVISION.
func (s *ProposalService) Send(id string) (*SendResult, error) {
	var result SendResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var p models.Proposal
		if err := tx.Preload("Client").First(&p, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "proposal"}
			}
			return err
		}
		if err := checkTransition(actionSend, p.State); err != nil {
			return err
		}
		doc, err := s.Docs.Proposal(tx, &p)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		expires := now.Add(time.Duration(s.Pricing.ValidityHours) * time.Hour)
		updates := map[string]any{
			"state":      models.StateEnviada,
			"sent_at":    now,
			"expires_at": expires,
		}
		if err := tx.Model(&p).Updates(updates).Error; err != nil {
			return err
		}
		link := s.BaseURL + "/client/proposal/" + p.AccessToken
		if err := recordNotification(tx, p.ID, models.NotifEnvio, p.Client.Email,
			"Propuesta de Transporte: "+p.Number,
			fmt.Sprintf("Su propuesta %s está disponible. Válida por %d horas.", p.Number, s.Pricing.ValidityHours)); err != nil {
			return err
		}
		if err := recordNotification(tx, p.ID, models.NotifAudit, s.Recipients.Audit,
			"AUDIT ENVIO_PROPUESTA: "+p.ID, "Enlace: "+link); err != nil {
			return err
		}
		result = SendResult{AccessLink: link, ExpiresAt: expires, DocumentID: doc.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

type ModifyInput struct {
	ProfitPercentage float64 `json:"profit_percentage"`
	DirectorUser     string  `json:"director_user"`
}

type ModifyResult struct {
	NewVersion int      `json:"new_version"`
	FinalPrice float64  `json:"final_price"`
	Changes    []string `json:"changes"`
}

// Modify renegotiates the profit percentage. The price is recomputed rounded
// to the nearest thousand, a ledger row is appended and the state moves to
// REVISION. The version counter doubles as an optimistic-concurrency check:
// the update is conditional on the version the caller read, and a lost race
// surfaces as ConflictError instead of silently overwriting.
func (s *ProposalService) Modify(id string, in ModifyInput) (*ModifyResult, error) {
	if in.ProfitPercentage < s.Pricing.ProfitMin || in.ProfitPercentage > s.Pricing.ProfitMax {
		return nil, &ValidationError{Violations: validation.Violations{
			"profit_percentage": fmt.Sprintf("must_be_between_%.0f_and_%.0f", s.Pricing.ProfitMin, s.Pricing.ProfitMax),
		}}
	}
	user := in.DirectorUser
	if user == "" {
		user = "Director"
	}

	var result ModifyResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var p models.Proposal
		if err := tx.First(&p, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "proposal"}
			}
			return err
		}
		if err := checkTransition(actionModify, p.State); err != nil {
			return err
		}

		var changes []string
		changes = append(changes, fmt.Sprintf("Utilidad: %g%% → %g%%", p.ProfitPercentage, in.ProfitPercentage))
		// Modification carries the already-applied indirect cost forward; only
		// creation consults the trailing average.
		newPrice := RoundToThousand(FinalPrice(p.DirectCost, p.AppliedIndirectCost, in.ProfitPercentage))
		changes = append(changes, fmt.Sprintf("Precio: $%.0f → $%.0f", p.FinalPrice, newPrice))

		newVersion := p.Version + 1
		res := tx.Model(&models.Proposal{}).
			Where("id = ? AND version = ?", p.ID, p.Version).
			Updates(map[string]any{
				"profit_percentage": in.ProfitPercentage,
				"final_price":       newPrice,
				"version":           newVersion,
				"state":             models.StateRevision,
				"last_modified_by":  user,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &ConflictError{Expected: p.Version}
		}

		version := models.ProposalVersion{
			ProposalID:       p.ID,
			Sequence:         newVersion,
			DirectCost:       p.DirectCost,
			ProfitPercentage: in.ProfitPercentage,
			IndirectCost:     p.AppliedIndirectCost,
			FinalPrice:       newPrice,
			Changes:          joinChanges(changes),
			User:             user,
		}
		if err := tx.Create(&version).Error; err != nil {
			return err
		}
		if err := recordNotification(tx, p.ID, models.NotifAudit, s.Recipients.Audit,
			"AUDIT MODIFICACION_PROPUESTA: "+p.ID, joinChanges(changes)); err != nil {
			return err
		}
		result = ModifyResult{NewVersion: newVersion, FinalPrice: newPrice, Changes: changes}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func joinChanges(changes []string) string { return strings.Join(changes, "; ") }

// ResolveToken maps an access token to its proposal. Past the validity window
// an ENVIADA proposal is reset to PREGENERADA (treated as never sent) and
// ErrExpired comes back alongside the proposal so callers can render the
// expired page.
func (s *ProposalService) ResolveToken(token string) (*models.Proposal, error) {
	var p models.Proposal
	if err := s.DB.Preload("Client").First(&p, "access_token = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "proposal"}
		}
		return nil, err
	}
	if p.Expired(time.Now().UTC()) {
		if p.State == models.StateEnviada {
			if err := s.DB.Model(&p).Update("state", models.StatePregenerada).Error; err != nil {
				return nil, err
			}
			p.State = models.StatePregenerada
		}
		return &p, ErrExpired
	}
	return &p, nil
}

type RespondInput struct {
	Type     string `json:"type"`
	Comments string `json:"comments"`
}

type RespondResult struct {
	Message           string `json:"message"`
	ContractGenerated bool   `json:"contract_generated,omitempty"`
	ContractID        string `json:"contract_id,omitempty"`
	// ContractError carries the tolerated contract-generation failure on
	// acceptance: the response itself is committed either way.
	ContractError string `json:"contract_error,omitempty"`
}

// Respond processes a client decision arriving through the token gateway.
func (s *ProposalService) Respond(token string, in RespondInput) (*RespondResult, error) {
	v := validation.Violations{}
	validation.OneOf("type", in.Type, []string{models.ResponseAceptada, models.ResponseRechazada, models.ResponseRevision}, v)
	if !v.Empty() {
		return nil, &ValidationError{Violations: v}
	}
	// Expiry is evaluated before the transaction opens so the state reset
	// persists even though the response itself is not committed.
	if _, err := s.ResolveToken(token); err != nil {
		return nil, err
	}

	var result RespondResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var p models.Proposal
		if err := tx.Preload("Client").First(&p, "access_token = ?", token).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "proposal"}
			}
			return err
		}
		if err := checkTransition(actionRespond, p.State); err != nil {
			return err
		}
		now := time.Now().UTC()

		response := models.ClientResponse{ProposalID: p.ID, Type: in.Type, Comments: in.Comments}
		if err := tx.Create(&response).Error; err != nil {
			return err
		}
		if err := tx.Model(&p).Updates(map[string]any{"state": in.Type, "responded_at": now}).Error; err != nil {
			return err
		}
		p.State = in.Type
		result = RespondResult{Message: "Respuesta registrada como " + in.Type}

		switch in.Type {
		case models.ResponseAceptada:
			// Contract generation failure is non-fatal: the acceptance is
			// committed and the error reported back. The savepoint keeps a
			// half-done generator statement from poisoning the transaction
			// and discards any rows it wrote before failing.
			if err := tx.SavePoint("contract").Error; err != nil {
				return err
			}
			if doc, err := s.Docs.Contract(tx, &p); err != nil {
				if rbErr := tx.RollbackTo("contract").Error; rbErr != nil {
					return rbErr
				}
				log.Printf("contract generation failed for %s: %v", p.Number, err)
				result.ContractError = err.Error()
			} else {
				result.ContractGenerated = true
				result.ContractID = doc.ID
			}
			if err := recordNotification(tx, p.ID, models.NotifAceptacion, s.Recipients.Operations,
				"PROPUESTA ACEPTADA: "+p.Number,
				fmt.Sprintf("Cliente %s aceptó la propuesta. Reservar recursos inmediatamente.", p.Client.Name)); err != nil {
				return err
			}
		case models.ResponseRevision:
			comments := in.Comments
			if comments == "" {
				comments = "Sin comentarios"
			}
			if err := recordNotification(tx, p.ID, models.NotifRevision, s.Recipients.Director,
				"Solicitud de revisión: "+p.Number,
				"Cliente solicita revisión: "+comments); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

type SignResult struct {
	SignedAt    time.Time `json:"signature_time"`
	DocumentID  string    `json:"document_id"`
	ViewURL     string    `json:"view_url"`
	DownloadURL string    `json:"download_url"`
}

// SignContract re-renders the contract artifact with the client signature,
// overwrites it in place and marks the record signed.
func (s *ProposalService) SignContract(token, documentID, signature string) (*SignResult, error) {
	if signature == "" {
		signature = "Cliente"
	}
	var result SignResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var p models.Proposal
		if err := tx.Preload("Client").First(&p, "access_token = ?", token).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "proposal"}
			}
			return err
		}
		var doc models.GeneratedDocument
		if err := tx.First(&doc, "id = ?", documentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "document"}
			}
			return err
		}
		if doc.ProposalID != p.ID {
			return &NotFoundError{Entity: "document"}
		}
		if doc.Type != models.DocContrato {
			return &ValidationError{Violations: validation.Violations{"document": "only_contracts_can_be_signed"}}
		}
		if err := s.Docs.ResignContract(tx, &p, &doc, signature); err != nil {
			return err
		}
		now := time.Now().UTC()
		if err := tx.Model(&doc).Updates(map[string]any{"signed": true, "signed_at": now}).Error; err != nil {
			return err
		}
		if err := recordNotification(tx, p.ID, models.NotifFirma, s.Recipients.Operations,
			"Contrato firmado: "+p.Number,
			fmt.Sprintf("Contrato firmado por %s. Firma: %s", p.Client.Name, signature)); err != nil {
			return err
		}
		result = SignResult{
			SignedAt:    now,
			DocumentID:  doc.ID,
			ViewURL:     s.BaseURL + "/documents/view/" + doc.ID,
			DownloadURL: s.BaseURL + "/documents/download/" + doc.ID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
