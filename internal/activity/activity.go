package activity

import (
	"greatgames/backend/internal/config"
	"greatgames/backend/internal/models"

	"gorm.io/gorm"
)

// Record appends one activity row for the social stream. Write paths call it
// as a side effect of list and review changes; whether they actually do is
// governed by the RECORD_ACTIVITY config flag, so a deployment can run with
// the stream disabled without touching the read path.
func Record(db *gorm.DB, userID uint, activityType string, gameID *uint, description string) error {
	if config.AppConfig != nil && !config.AppConfig.RecordActivity {
		return nil
	}

	entry := models.Activity{
		UserID:       userID,
		ActivityType: activityType,
		GameID:       gameID,
		Description:  description,
	}
	return db.Create(&entry).Error
}
