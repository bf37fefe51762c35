package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client entity. Deleting a client removes its proposals and, through them,
// every version, response, notification and document they own.
type Client struct {
	ID           string `gorm:"primaryKey;size:36"`
	Name         string `gorm:"size:150;not null;index"`
	Email        string `gorm:"size:150;not null;uniqueIndex"`
	Phone        string `gorm:"size:20"`
	Address      string `gorm:"size:255"`
	RegisteredAt time.Time

	Proposals []Proposal `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE"`
}

func (c *Client) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.RegisteredAt.IsZero() {
		c.RegisteredAt = time.Now().UTC()
	}
	return nil
}
