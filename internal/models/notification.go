package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotifEnvio      = "ENVIO"
	NotifAceptacion = "ACEPTACION"
	NotifRevision   = "REVISION"
	NotifFirma      = "FIRMA"
	NotifAudit      = "AUDIT"
)

// Notification persists an outbound-message intent for audit and downstream
// processing. Actual delivery is somebody else's problem; Sent stays false
// until a delivery worker flips it.
type Notification struct {
	ID         string `gorm:"primaryKey;size:36"`
	ProposalID string `gorm:"size:36;not null;index"`
	Type       string `gorm:"size:50;not null"`
	Recipient  string `gorm:"size:150;not null"`
	Subject    string `gorm:"size:255"`
	Message    string `gorm:"type:text"`
	Sent       bool   `gorm:"default:false"`
	CreatedAt  time.Time
	SentAt     *time.Time
}

func (n *Notification) BeforeCreate(_ *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
