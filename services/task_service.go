package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"nova-rewards-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// tokenAlphabet avoids 0/O/1/I so tokens survive manual transcription from
// the destination page back into the verify form.
const tokenAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const tokenLength = 8

// FraudPolicy decides whether a claim presented after `elapsed` looks like
// automation. Returning ErrFraudSuspected consumes the claim and bans the
// account. The default policy is the elapsed-time floor; extra signals (IP
// reputation, device fingerprint) can be layered here without touching the
// state machine.
type FraudPolicy func(claim *models.ClaimToken, elapsed time.Duration) error

// TaskService issues claim tokens and runs the verification state machine.
type TaskService struct {
	DB         *gorm.DB
	Cfg        Config
	Locks      *Locks
	FraudCheck FraudPolicy
}

func NewTaskService(db *gorm.DB, cfg Config, locks *Locks) *TaskService {
	s := &TaskService{DB: db, Cfg: cfg, Locks: locks}
	s.FraudCheck = func(claim *models.ClaimToken, elapsed time.Duration) error {
		// A human cannot clear the external redirect chain in under the
		// threshold; completion that fast is scripted.
		if elapsed < cfg.MinTaskDuration {
			return ErrFraudSuspected
		}
		return nil
	}
	return s
}

// generateToken builds a prefixed high-entropy token from the restricted
// alphabet. 32^8 candidates make guessing infeasible within the claim TTL.
func (s *TaskService) generateToken() (string, error) {
	buf := make([]byte, tokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(s.Cfg.TokenPrefix)
	for _, c := range buf {
		b.WriteByte(tokenAlphabet[int(c)%len(tokenAlphabet)])
	}
	return b.String(), nil
}

// resetDailyIfStale zeroes the daily counters when the account's last task
// was on an earlier day. Called lazily from issue and verify; the midnight
// sweep covers accounts that never come back.
func resetDailyIfStale(tx *gorm.DB, account *models.Account, now time.Time) error {
	if account.LastTaskAt == nil {
		return nil
	}
	last := account.LastTaskAt
	if last.Year() == now.Year() && last.YearDay() == now.YearDay() {
		return nil
	}
	account.TasksToday = 0
	return tx.Where("account_id = ?", account.ID).Delete(&models.ChannelCounter{}).Error
}

// StartTask issues a claim token for the (account, channel) pair. Any
// previously outstanding token for the pair is overwritten — retrying an
// abandoned attempt is expected behavior, not an error.
func (s *TaskService) StartTask(accountID, channelID string) (*models.ClaimToken, error) {
	lock := s.Locks.Account(accountID)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now()
	var claim models.ClaimToken

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

		var channel models.TaskChannel
		if err := tx.Where("id = ? AND active = ?", channelID, true).First(&channel).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if err := resetDailyIfStale(tx, &account, now); err != nil {
			return err
		}

		globalLimit := s.Cfg.DailyTaskLimit
		if account.VIP {
			globalLimit = s.Cfg.VIPDailyTaskLimit
		}
		if account.TasksToday >= globalLimit {
			return ErrQuotaExceeded
		}

		var counter models.ChannelCounter
		err := tx.Where("account_id = ? AND channel_id = ?", accountID, channelID).First(&counter).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if counter.Count >= channel.DailyLimit {
			return ErrQuotaExceeded
		}

		token, err := s.generateToken()
		if err != nil {
			return err
		}
		claim = models.ClaimToken{
			ID:           uuid.NewString(),
			AccountID:    accountID,
			ChannelID:    channelID,
			Token:        token,
			RewardPoints: channel.RewardPoints,
			IssuedAt:     now,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}, {Name: "channel_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"token", "reward_points", "issued_at"}),
		}).Create(&claim).Error; err != nil {
			return err
		}

		// Persist the lazy daily reset if it fired.
		if err := tx.Save(&account).Error; err != nil {
			return err
		}

		return logActivity(tx, account.ID, account.DisplayName, "task_start",
			fmt.Sprintf("channel %s", channel.Name))
	})
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

// SubmitProof validates a presented token against the pending claim and, on
// success, credits the task reward. Serialized per account: a second
// concurrent submission for the same claim finds it already consumed and
// gets ErrNotFound.
func (s *TaskService) SubmitProof(accountID, channelID, presented string) (int64, error) {
	lock := s.Locks.Account(accountID)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now()
	var credited int64

	// Expiry and fraud consume the claim (and fraud bans the account), so
	// those outcomes must commit; they are carried out of the transaction in
	// outcome instead of being returned as its error.
	var outcome error

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

		var claim models.ClaimToken
		if err := tx.Where("account_id = ? AND channel_id = ?", accountID, channelID).First(&claim).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		elapsed := now.Sub(claim.IssuedAt)
		if elapsed > s.Cfg.ClaimTTL {
			if err := tx.Delete(&claim).Error; err != nil {
				return err
			}
			outcome = ErrExpired
			return nil
		}

		// Tokens are transcribed by hand: compare case-insensitively and
		// accept the token with or without its fixed prefix. A mismatch does
		// not consume the claim, so the user may retry.
		input := strings.ToUpper(strings.TrimSpace(presented))
		if input != claim.Token && input != strings.TrimPrefix(claim.Token, s.Cfg.TokenPrefix) {
			return ErrInvalidToken
		}

		if err := s.FraudCheck(&claim, elapsed); err != nil {
			if delErr := tx.Delete(&claim).Error; delErr != nil {
				return delErr
			}
			account.Banned = true
			account.BanReason = "automation suspected: sub-threshold task completion"
			if saveErr := tx.Save(&account).Error; saveErr != nil {
				return saveErr
			}
			if logErr := logActivity(tx, account.ID, account.DisplayName, "fraud_ban",
				fmt.Sprintf("channel %s verified after %s", channelID, elapsed)); logErr != nil {
				return logErr
			}
			outcome = err
			return nil
		}

		if err := resetDailyIfStale(tx, &account, now); err != nil {
			return err
		}

		num, den := account.Multiplier()
		credited = claim.RewardPoints * int64(num) / int64(den)

		account.Balance += credited
		account.TotalTaskEarned += credited
		account.TasksToday++
		account.LastTaskAt = &now
		if err := tx.Save(&account).Error; err != nil {
			return err
		}

		var counter models.ChannelCounter
		err := tx.Where("account_id = ? AND channel_id = ?", accountID, channelID).First(&counter).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			counter = models.ChannelCounter{
				ID:        uuid.NewString(),
				AccountID: accountID,
				ChannelID: channelID,
				Count:     1,
			}
			if err := tx.Create(&counter).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		} else {
			counter.Count++
			if err := tx.Save(&counter).Error; err != nil {
				return err
			}
		}

		if err := tx.Delete(&claim).Error; err != nil {
			return err
		}

		return logActivity(tx, account.ID, account.DisplayName, "task_verified",
			fmt.Sprintf("+%d P from channel %s", credited, channelID))
	})
	if err != nil {
		return 0, err
	}
	if outcome != nil {
		return 0, outcome
	}
	return credited, nil
}
