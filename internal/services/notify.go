package services

import (
	"gorm.io/gorm"

	"github.com/acmetrans/mgcp/internal/models"
)

// Recipients are the internal addresses notification intents get recorded
// against. Delivery is a downstream concern; rows stay Sent=false here.
type Recipients struct {
	Operations string
	Director   string
	Audit      string
}

// recordNotification appends an outbound-message intent inside the caller's
// transaction so a failed transition never leaves a stray notification behind.
func recordNotification(tx *gorm.DB, proposalID, typ, recipient, subject, message string) error {
	n := models.Notification{
		ProposalID: proposalID,
		Type:       typ,
		Recipient:  recipient,
		Subject:    subject,
		Message:    message,
	}
	return tx.Create(&n).Error
}
