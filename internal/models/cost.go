package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IndirectCostRecord is a monthly overhead figure. The trailing 30-day average
// over these records is the indirect cost applied to newly created proposals.
type IndirectCostRecord struct {
	ID           string  `gorm:"primaryKey;size:36"`
	Month        int     `gorm:"not null"`
	Year         int     `gorm:"not null"`
	Amount       float64 `gorm:"not null"`
	Description  string  `gorm:"type:text"`
	User         string  `gorm:"size:150"`
	RegisteredAt time.Time
}

func (c *IndirectCostRecord) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.RegisteredAt.IsZero() {
		c.RegisteredAt = time.Now().UTC()
	}
	return nil
}

// CostConfiguration is the persisted pricing policy: allowed profit range,
// proposal validity window and boilerplate contract text. It is seeded once at
// migrate time and loaded once at startup; request paths never fetch it.
type CostConfiguration struct {
	ID            string  `gorm:"primaryKey;size:36"`
	ProfitMin     float64 `gorm:"default:25"`
	ProfitMax     float64 `gorm:"default:35"`
	ValidityHours int     `gorm:"default:24"`
	Terms         string  `gorm:"type:text"`
	PaymentTerms  string  `gorm:"type:text"`
	UpdatedAt     time.Time
	UpdatedBy     string `gorm:"size:150"`
}

func (c *CostConfiguration) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
