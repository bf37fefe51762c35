package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DocPropuesta = "PROPUESTA"
	DocContrato  = "CONTRATO"
)

// GeneratedDocument links a rendered artifact on disk to the proposal and
// version it snapshots. Hash is the sha256 of the rendered bytes; the signed
// fields only apply to contracts.
type GeneratedDocument struct {
	ID         string `gorm:"primaryKey;size:36"`
	ProposalID string `gorm:"size:36;not null;index"`
	Type       string `gorm:"size:20;not null"`
	Version    int    `gorm:"not null"`
	Path       string `gorm:"size:255;not null"`
	Hash       string `gorm:"size:64"`
	Signed     bool   `gorm:"default:false"`
	SignedAt   *time.Time
	CreatedAt  time.Time
}

func (d *GeneratedDocument) BeforeCreate(_ *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
