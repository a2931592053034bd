package workers

import (
	"context"
	"log"
	"time"

	"nova-rewards-system/services"
)

// IntegrityAuditWorker periodically reconciles every account's balance
// against its credit history. It only ever writes trust scores; flagged
// accounts are surfaced for the admin ban policy, never auto-corrected.
type IntegrityAuditWorker struct {
	audits   *services.AuditService
	interval time.Duration
}

func NewIntegrityAuditWorker(audits *services.AuditService, interval time.Duration) *IntegrityAuditWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &IntegrityAuditWorker{audits: audits, interval: interval}
}

func (w *IntegrityAuditWorker) Start(ctx context.Context) {
	log.Printf("Starting integrity audit worker (every %s)...", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("⏹️ Integrity audit worker stopped")
			return
		case <-ticker.C:
			start := time.Now()
			checked, flagged := w.audits.Sweep()
			if flagged > 0 {
				log.Printf("⚠️ Audit sweep: %d/%d accounts flagged for integrity mismatch (%s)",
					flagged, checked, time.Since(start))
			} else {
				log.Printf("✅ Audit sweep clean: %d accounts in %s", checked, time.Since(start))
			}
		}
	}
}
