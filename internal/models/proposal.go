package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Proposal lifecycle states. REVISION loops back to ENVIADA when the director
// re-sends after renegotiation; ACEPTADA and RECHAZADA are terminal.
const (
	StatePregenerada = "PREGENERADA"
	StateEnviada     = "ENVIADA"
	StateAceptada    = "ACEPTADA"
	StateRechazada   = "RECHAZADA"
	StateRevision    = "REVISION"
)

// Proposal is the central entity: a priced transport-service offer, versioned
// over its negotiation lifecycle and reachable by clients through an opaque
// access token.
type Proposal struct {
	ID       string `gorm:"primaryKey;size:36"`
	ClientID string `gorm:"size:36;not null;index"`
	Client   Client `gorm:"foreignKey:ClientID"`
	Number   string `gorm:"size:20;not null;uniqueIndex"` // PROP-YYYYMM-NNNN

	// Service metadata
	ServiceType    string `gorm:"size:100"`
	Origin         string `gorm:"size:150"`
	Destination    string `gorm:"size:150"`
	DistanceKM     float64
	EstimatedHours float64

	// Cargo metadata
	WeightKG   float64
	VolumeM3   float64
	TruckType  string `gorm:"size:20"` // "MC" or "GC"
	TruckCount int    `gorm:"default:1"`

	// Service dates
	DepartureDate *time.Time
	ReturnDate    *time.Time

	// Cost breakdown; the five components sum to DirectCost.
	FuelCost    float64
	TollCost    float64
	PerDiemCost float64
	LodgingCost float64
	BaseRate    float64
	DirectCost  float64 `gorm:"not null"`

	ServiceDescription string `gorm:"type:text;not null"`

	// Economics. FinalPrice is always recomputed from the other three, never
	// trusted from input.
	ProfitPercentage    float64 `gorm:"not null"`
	AppliedIndirectCost float64 `gorm:"default:0"`
	FinalPrice          float64 `gorm:"not null"`

	Version     int    `gorm:"default:1"`
	AccessToken string `gorm:"size:64;not null;uniqueIndex"`
	State       string `gorm:"size:20;default:'PREGENERADA';index"`

	CreatedAt   time.Time
	SentAt      *time.Time
	RespondedAt *time.Time
	ExpiresAt   *time.Time

	DirectorUser   string `gorm:"size:150"`
	LastModifiedBy string `gorm:"size:150"`

	Versions      []ProposalVersion   `gorm:"foreignKey:ProposalID;constraint:OnDelete:CASCADE"`
	Responses     []ClientResponse    `gorm:"foreignKey:ProposalID;constraint:OnDelete:CASCADE"`
	Notifications []Notification      `gorm:"foreignKey:ProposalID;constraint:OnDelete:CASCADE"`
	Documents     []GeneratedDocument `gorm:"foreignKey:ProposalID;constraint:OnDelete:CASCADE"`
}

func (p *Proposal) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Expired reports whether the proposal's validity window has passed.
func (p *Proposal) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && now.After(*p.ExpiresAt)
}
