package services

import (
	"log"

	"nova-rewards-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// logActivity appends one audit-trail row. Called inside the writer
// transactions so the log entry commits with the mutation it records.
func logActivity(tx *gorm.DB, accountID, actorName, action, details string) error {
	entry := models.ActivityLog{
		ID:        uuid.NewString(),
		AccountID: accountID,
		ActorName: actorName,
		Action:    action,
		Details:   details,
	}
	if err := tx.Create(&entry).Error; err != nil {
		log.Printf("failed to append activity log (%s): %v", action, err)
		return err
	}
	return nil
}
