package services

import (
	"errors"
	"fmt"
	"log"

	"nova-rewards-system/models"

	"gorm.io/gorm"
)

// AuditService reconciles an account's balance against its credit history.
// It is detective, not preventive: a mismatch lowers the trust score and is
// reported, but the balance is never reversed here.
type AuditService struct {
	DB    *gorm.DB
	Cfg   Config
	Locks *Locks
}

func NewAuditService(db *gorm.DB, cfg Config, locks *Locks) *AuditService {
	return &AuditService{DB: db, Cfg: cfg, Locks: locks}
}

// AuditResult reports one reconciliation pass.
type AuditResult struct {
	OK         bool  `json:"ok"`
	TrustScore int   `json:"trust_score"`
	Expected   int64 `json:"expected"`
	Actual     int64 `json:"actual"`
}

// Audit checks that balance plus everything debited by non-rejected
// withdrawals never exceeds what the earning counters say was credited,
// beyond the slack that covers VIP rounding. Excess means something wrote
// the balance without going through a writer service; the trust score takes
// the flat penalty and ErrIntegrityMismatch is returned alongside the
// result.
func (s *AuditService) Audit(accountID string) (*AuditResult, error) {
	lock := s.Locks.Account(accountID)
	lock.Lock()
	defer lock.Unlock()

	var result AuditResult
	var mismatch bool

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var account models.Account
		if err := tx.Where("id = ?", accountID).First(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		// Pending holds count as debits too: their points already left the
		// balance and will either stay gone (completed) or flow back
		// (rejected), at which point the next audit sees them in balance.
		var debited int64
		if err := tx.Model(&models.WithdrawalRequest{}).
			Where("account_id = ? AND status <> ?", accountID, models.WithdrawalStatusRejected).
			Select("COALESCE(SUM(points_held), 0)").
			Scan(&debited).Error; err != nil {
			return err
		}

		result.Expected = account.TotalTaskEarned + account.TotalGiftcodeEarned + account.TotalReferralEarned
		result.Actual = account.Balance + debited
		result.TrustScore = account.TrustScore
		result.OK = true

		if result.Actual > result.Expected+s.Cfg.AuditSlack {
			mismatch = true
			result.OK = false
			newScore := account.TrustScore - s.Cfg.AuditPenalty
			if newScore < 0 {
				newScore = 0
			}
			account.TrustScore = newScore
			result.TrustScore = newScore
			if err := tx.Save(&account).Error; err != nil {
				return err
			}
			return logActivity(tx, account.ID, "auditor", "integrity_mismatch",
				fmt.Sprintf("actual %d exceeds expected %d, trust now %d",
					result.Actual, result.Expected, newScore))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if mismatch {
		// The penalty is already committed; the error only names the outcome.
		return &result, ErrIntegrityMismatch
	}
	return &result, nil
}

// Sweep audits every unbanned account. Used by the background worker; errors
// on individual accounts are logged and do not stop the pass.
func (s *AuditService) Sweep() (checked, flagged int) {
	var ids []string
	if err := s.DB.Model(&models.Account{}).Where("banned = ?", false).Pluck("id", &ids).Error; err != nil {
		log.Printf("audit sweep: listing accounts failed: %v", err)
		return 0, 0
	}
	for _, id := range ids {
		_, err := s.Audit(id)
		switch {
		case err == nil:
			checked++
		case errors.Is(err, ErrIntegrityMismatch):
			checked++
			flagged++
		default:
			log.Printf("audit sweep: account %s: %v", id, err)
		}
	}
	return checked, flagged
}

// RecentActivity returns the latest audit-trail entries for dispute
// resolution, newest first.
func (s *AuditService) RecentActivity(limit int) ([]models.ActivityLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var logs []models.ActivityLog
	err := s.DB.Order("created_at DESC").Limit(limit).Find(&logs).Error
	return logs, err
}
