package services

import (
	"errors"
	"fmt"
	"time"

	"nova-rewards-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WithdrawalService converts withdrawal requests into balance holds and
// settles them. The debit happens at request time so concurrent pending
// requests can never hold more than the balance between them.
type WithdrawalService struct {
	DB    *gorm.DB
	Cfg   Config
	Locks *Locks
}

func NewWithdrawalService(db *gorm.DB, cfg Config, locks *Locks) *WithdrawalService {
	return &WithdrawalService{DB: db, Cfg: cfg, Locks: locks}
}

// Request debits amount * exchange rate from the balance and records a
// pending hold.
func (s *WithdrawalService) Request(accountID string, amount int64, payoutType models.PayoutType, details string) (*models.WithdrawalRequest, error) {
	if amount <= 0 {
		return nil, ErrInsufficientBalance
	}
	pointsHeld := amount * s.Cfg.PointsPerCurrencyUnit

	lock := s.Locks.Account(accountID)
	lock.Lock()
	defer lock.Unlock()

	var req models.WithdrawalRequest
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var account models.Account
		if err := tx.Where("id = ?", accountID).First(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if account.Banned {
			return ErrBanned
		}
		if account.Balance < pointsHeld {
			return ErrInsufficientBalance
		}

		account.Balance -= pointsHeld
		if err := tx.Save(&account).Error; err != nil {
			return err
		}

		req = models.WithdrawalRequest{
			ID:          uuid.NewString(),
			AccountID:   accountID,
			AccountName: account.DisplayName,
			Amount:      amount,
			PointsHeld:  pointsHeld,
			PayoutType:  payoutType,
			Details:     details,
			Status:      models.WithdrawalStatusPending,
		}
		if err := tx.Create(&req).Error; err != nil {
			return err
		}

		return logActivity(tx, account.ID, account.DisplayName, "withdrawal_requested",
			fmt.Sprintf("%d units held as %d P", amount, pointsHeld))
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Settle finalizes a pending hold. Completed keeps the debit (status change
// only — the points left the balance at request time); rejected refunds the
// hold. Settling twice is ErrAlreadyFinalized with no balance effect.
func (s *WithdrawalService) Settle(requestID string, outcome models.WithdrawalStatus) (*models.WithdrawalRequest, error) {
	if outcome != models.WithdrawalStatusCompleted && outcome != models.WithdrawalStatusRejected {
		return nil, fmt.Errorf("invalid settlement outcome %q", outcome)
	}

	var req models.WithdrawalRequest
	if err := s.DB.Where("id = ?", requestID).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	lock := s.Locks.Account(req.AccountID)
	lock.Lock()
	defer lock.Unlock()

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// Re-read under the lock; a concurrent settle may have won the race.
		if err := tx.Where("id = ?", requestID).First(&req).Error; err != nil {
			return err
		}
		if req.Status != models.WithdrawalStatusPending {
			return ErrAlreadyFinalized
		}

		now := time.Now()
		req.Status = outcome
		req.SettledAt = &now

		if outcome == models.WithdrawalStatusRejected {
			var account models.Account
			if err := tx.Where("id = ?", req.AccountID).First(&account).Error; err != nil {
				return err
			}
			account.Balance += req.PointsHeld
			if err := tx.Save(&account).Error; err != nil {
				return err
			}
		}

		if err := tx.Save(&req).Error; err != nil {
			return err
		}

		return logActivity(tx, req.AccountID, req.AccountName, "withdrawal_settled",
			fmt.Sprintf("%s: %d P", outcome, req.PointsHeld))
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ListForAccount returns one account's withdrawal history, newest first.
func (s *WithdrawalService) ListForAccount(accountID string) ([]models.WithdrawalRequest, error) {
	var reqs []models.WithdrawalRequest
	err := s.DB.Where("account_id = ?", accountID).Order("created_at DESC").Find(&reqs).Error
	return reqs, err
}

// ListAll returns withdrawals for the admin queue, optionally filtered by
// status.
func (s *WithdrawalService) ListAll(status string) ([]models.WithdrawalRequest, error) {
	query := s.DB.Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var reqs []models.WithdrawalRequest
	err := query.Find(&reqs).Error
	return reqs, err
}
