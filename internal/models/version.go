package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProposalVersion is one row of the append-only pricing ledger. Rows are never
// updated or deleted except by cascading proposal deletion; sequence numbers
// start at 1 and increase by exactly one per pricing change.
type ProposalVersion struct {
	ID         string `gorm:"primaryKey;size:36"`
	ProposalID string `gorm:"size:36;not null;index"`
	Sequence   int    `gorm:"column:version_number;not null"`

	DirectCost       float64
	ProfitPercentage float64
	IndirectCost     float64
	FinalPrice       float64

	Changes   string `gorm:"type:text"`
	User      string `gorm:"size:150"`
	CreatedAt time.Time
}

func (v *ProposalVersion) BeforeCreate(_ *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}
