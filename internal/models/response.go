package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client decision vocabulary. REVISION asks the director to renegotiate.
const (
	ResponseAceptada  = "ACEPTADA"
	ResponseRechazada = "RECHAZADA"
	ResponseRevision  = "REVISION"
)

// ClientResponse records one client decision on a proposal. A proposal can
// accumulate several across renegotiation cycles; the proposal state always
// mirrors the latest one.
type ClientResponse struct {
	ID         string `gorm:"primaryKey;size:36"`
	ProposalID string `gorm:"size:36;not null;index"`
	Type       string `gorm:"size:20;not null"`
	Comments   string `gorm:"type:text"`
	CreatedAt  time.Time
}

func (r *ClientResponse) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
