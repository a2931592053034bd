// services/scheduler.go
package services

import (
	"log"
	"time"

	"nova-rewards-system/models"

	"github.com/go-co-op/gocron/v2"
)

// StartDailyResetScheduler clears the daily task counters at midnight. The
// issue/verify path also resets lazily, so this only matters for accounts
// that read their snapshot before doing anything.
func (s *AccountService) StartDailyResetScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.CronJob("0 0 * * *", false),
		gocron.NewTask(func() {
			if err := s.DB.Model(&models.Account{}).
				Where("tasks_today > 0").
				Update("tasks_today", 0).Error; err != nil {
				log.Printf("[Scheduler] Daily reset failed: %v", err)
				return
			}
			if err := s.DB.Where("1 = 1").Delete(&models.ChannelCounter{}).Error; err != nil {
				log.Printf("[Scheduler] Channel counter reset failed: %v", err)
				return
			}
			log.Println("✅ Daily task counters reset")
		}),
	)
}

// StartExpirySweep deactivates giftcodes past their validity window. Redeem
// checks the window itself; the sweep keeps public listings honest.
func (s *GiftcodeService) StartExpirySweep() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: retire expired codes
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			now := time.Now()
			result := s.DB.Model(&models.Giftcode{}).
				Where("active = ? AND valid_until IS NOT NULL AND valid_until < ?", true, now).
				Update("active", false)
			if result.Error != nil {
				log.Printf("[Scheduler] Giftcode expiry sweep failed: %v", result.Error)
				return
			}
			if result.RowsAffected > 0 {
				log.Printf("✅ Retired %d expired giftcodes", result.RowsAffected)
			}
		}),
	)
}
