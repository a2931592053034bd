package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"nova-rewards-system/models"
	"nova-rewards-system/utils"

	"gorm.io/gorm"
)

// ActivityArchiveWorker exports activity-log rows older than the retention
// window to object storage as JSON, then prunes them. The log itself stays
// append-only; archival is the only deletion path.
type ActivityArchiveWorker struct {
	DB        *gorm.DB
	Retention time.Duration
	interval  time.Duration
}

func NewActivityArchiveWorker(db *gorm.DB, retention time.Duration) *ActivityArchiveWorker {
	return &ActivityArchiveWorker{
		DB:        db,
		Retention: retention,
		interval:  24 * time.Hour,
	}
}

func (w *ActivityArchiveWorker) Start(ctx context.Context) {
	if !utils.R2Enabled() {
		log.Println("⚠️  R2 not configured — activity log archival disabled, logs retained in DB")
		return
	}
	log.Printf("Starting activity archive worker (retention %s)...", w.Retention)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("⏹️ Activity archive worker stopped")
			return
		case <-ticker.C:
			if err := w.archiveBatch(ctx); err != nil {
				log.Printf("❌ Activity archive failed: %v", err)
			}
		}
	}
}

func (w *ActivityArchiveWorker) archiveBatch(ctx context.Context) error {
	cutoff := time.Now().Add(-w.Retention)

	var logs []models.ActivityLog
	if err := w.DB.Where("created_at < ?", cutoff).Order("created_at ASC").Find(&logs).Error; err != nil {
		return fmt.Errorf("failed to collect expired log rows: %w", err)
	}
	if len(logs) == 0 {
		return nil
	}

	payload, err := json.Marshal(logs)
	if err != nil {
		return fmt.Errorf("failed to encode archive payload: %w", err)
	}

	key := fmt.Sprintf("activity/%s.json", time.Now().UTC().Format("2006-01-02T15-04-05"))
	if err := utils.UploadBytesToR2(ctx, key, "application/json", payload); err != nil {
		return err
	}

	// Prune only after the upload succeeded.
	if err := w.DB.Where("created_at < ?", cutoff).Delete(&models.ActivityLog{}).Error; err != nil {
		return fmt.Errorf("archived but failed to prune %d rows: %w", len(logs), err)
	}

	log.Printf("📦 Archived %d activity log rows to %s", len(logs), key)
	return nil
}
