package services

import (
	"errors"
	"fmt"
	"log"

	"nova-rewards-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccountService is the Account Store: it owns account creation, reads, the
// administrative override surface, and the balance-funded VIP upgrade. The
// other writer services go through the same lock table before touching an
// account row.
type AccountService struct {
	DB    *gorm.DB
	Cfg   Config
	Locks *Locks
}

func NewAccountService(db *gorm.DB, cfg Config, locks *Locks) *AccountService {
	return &AccountService{DB: db, Cfg: cfg, Locks: locks}
}

// Register creates the ledger record for a gateway identity. Calling it again
// for the same identity returns the existing account unchanged. When the new
// account names a referrer, the referrer is credited the referral bonus under
// the referrer's own lock.
func (s *AccountService) Register(externalUserID, displayName string, referredBy *string) (*models.Account, error) {
	var existing models.Account
	err := s.DB.Where("external_user_id = ?", externalUserID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	account := models.Account{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		DisplayName:    displayName,
		TrustScore:     100,
		MultiplierNum:  s.Cfg.MultiplierNum,
		MultiplierDen:  s.Cfg.MultiplierDen,
	}

	var referrer *models.Account
	if referredBy != nil && *referredBy != "" {
		var ref models.Account
		if err := s.DB.Where("id = ?", *referredBy).First(&ref).Error; err == nil {
			referrer = &ref
			account.ReferredBy = &ref.ID
		}
		// Unknown referrer IDs are dropped silently; registration still succeeds.
	}

	if err := s.DB.Create(&account).Error; err != nil {
		return nil, err
	}

	if referrer != nil {
		if err := s.creditReferrer(referrer.ID, account.ID); err != nil {
			log.Printf("referral credit for %s failed: %v", referrer.ID, err)
		}
	}

	return &account, nil
}

func (s *AccountService) creditReferrer(referrerID, referredID string) error {
	lock := s.Locks.Account(referrerID)
	lock.Lock()
	defer lock.Unlock()

	return s.DB.Transaction(func(tx *gorm.DB) error {
		var ref models.Account
		if err := tx.Where("id = ?", referrerID).First(&ref).Error; err != nil {
			return err
		}
		ref.Balance += s.Cfg.ReferralReward
		ref.TotalReferralEarned += s.Cfg.ReferralReward
		ref.ReferralCount++
		if err := tx.Save(&ref).Error; err != nil {
			return err
		}
		return logActivity(tx, ref.ID, ref.DisplayName, "referral_bonus",
			fmt.Sprintf("+%d P for referring %s", s.Cfg.ReferralReward, referredID))
	})
}

// GetByExternalID resolves the gateway identity to the ledger record.
func (s *AccountService) GetByExternalID(externalUserID string) (*models.Account, error) {
	var account models.Account
	if err := s.DB.Where("external_user_id = ?", externalUserID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// Get returns the account by internal ID.
func (s *AccountService) Get(accountID string) (*models.Account, error) {
	var account models.Account
	if err := s.DB.Where("id = ?", accountID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// Snapshot is the read-only view exposed to presentation layers: balance,
// counters, trust and ban state, plus the per-channel completion counts.
func (s *AccountService) Snapshot(accountID string) (*models.Account, []models.ChannelCounter, error) {
	account, err := s.Get(accountID)
	if err != nil {
		return nil, nil, err
	}
	var counters []models.ChannelCounter
	if err := s.DB.Where("account_id = ?", accountID).Find(&counters).Error; err != nil {
		return nil, nil, err
	}
	return account, counters, nil
}

// UpgradeToVIP debits the VIP price from the balance and flips the VIP flag.
// The multiplier itself was fixed at registration; VIP only activates it.
func (s *AccountService) UpgradeToVIP(accountID string) error {
	lock := s.Locks.Account(accountID)
	lock.Lock()
	defer lock.Unlock()

	return s.DB.Transaction(func(tx *gorm.DB) error {
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
		if account.VIP {
			return ErrAlreadyFinalized
		}
		if account.Balance < s.Cfg.VIPPrice {
			return ErrInsufficientBalance
		}
		account.Balance -= s.Cfg.VIPPrice
		account.VIP = true
		if err := tx.Save(&account).Error; err != nil {
			return err
		}
		return logActivity(tx, account.ID, account.DisplayName, "vip_upgrade",
			fmt.Sprintf("-%d P", s.Cfg.VIPPrice))
	})
}

// UpdatePayoutDetails stores the bank / in-game payout targets shown to
// admins when settling withdrawals.
func (s *AccountService) UpdatePayoutDetails(accountID, bankInfo, gameID string) error {
	updates := map[string]interface{}{}
	if bankInfo != "" {
		updates["bank_info"] = bankInfo
	}
	if gameID != "" {
		updates["game_id"] = gameID
	}
	if len(updates) == 0 {
		return nil
	}
	result := s.DB.Model(&models.Account{}).Where("id = ?", accountID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Ban is the administrative override: writes banned/ban_reason directly,
// bypassing normal flow. Banned accounts cannot start tasks, verify, redeem
// or withdraw; their history is kept (no hard delete).
func (s *AccountService) Ban(accountID, reason string) error {
	lock := s.Locks.Account(accountID)
	lock.Lock()
	defer lock.Unlock()

	return s.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Account{}).Where("id = ?", accountID).
			Updates(map[string]interface{}{"banned": true, "ban_reason": reason})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return logActivity(tx, accountID, "admin", "ban", reason)
	})
}

// Unban clears the ban flag and reason.
func (s *AccountService) Unban(accountID string) error {
	lock := s.Locks.Account(accountID)
	lock.Lock()
	defer lock.Unlock()

	return s.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Account{}).Where("id = ?", accountID).
			Updates(map[string]interface{}{"banned": false, "ban_reason": ""})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return logActivity(tx, accountID, "admin", "unban", "")
	})
}

// AdminUpdate applies direct field edits from the admin console. Balance and
// trust edits land here without touching the earning counters — exactly the
// tampering the integrity auditor exists to detect.
type AdminAccountUpdate struct {
	Balance    *int64  `json:"balance"`
	TrustScore *int    `json:"trust_score" validate:"omitempty,min=0,max=100"`
	VIP        *bool   `json:"vip"`
	BankInfo   *string `json:"bank_info"`
	GameID     *string `json:"game_id"`
}

func (s *AccountService) AdminUpdate(accountID string, upd AdminAccountUpdate) (*models.Account, error) {
	lock := s.Locks.Account(accountID)
	lock.Lock()
	defer lock.Unlock()

	var account models.Account
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", accountID).First(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if upd.Balance != nil {
			account.Balance = *upd.Balance
		}
		if upd.TrustScore != nil {
			account.TrustScore = *upd.TrustScore
		}
		if upd.VIP != nil {
			account.VIP = *upd.VIP
		}
		if upd.BankInfo != nil {
			account.BankInfo = *upd.BankInfo
		}
		if upd.GameID != nil {
			account.GameID = *upd.GameID
		}
		if err := tx.Save(&account).Error; err != nil {
			return err
		}
		return logActivity(tx, account.ID, "admin", "account_update", "direct field edit")
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// ListAccounts returns all accounts ordered by balance, for the admin view.
func (s *AccountService) ListAccounts() ([]models.Account, error) {
	var accounts []models.Account
	err := s.DB.Order("balance DESC").Find(&accounts).Error
	return accounts, err
}
