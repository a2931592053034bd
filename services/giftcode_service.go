// services/giftcode_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"nova-rewards-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GiftcodeService enforces the exactly-once-per-account, capacity and
// validity-window rules, and carries the admin CRUD surface for codes.
type GiftcodeService struct {
	DB    *gorm.DB
	Locks *Locks
}

func NewGiftcodeService(db *gorm.DB, locks *Locks) *GiftcodeService {
	return &GiftcodeService{DB: db, Locks: locks}
}

// Redeem credits a code to an account. The code lock is taken before the
// account lock (fixed order, both services agree) so capacity checks on the
// last remaining slot cannot race. Append-to-redeemer-set and balance credit
// commit together; a failed credit rolls back the append.
func (s *GiftcodeService) Redeem(accountID, code string) (int64, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))

	var gc models.Giftcode
	if err := s.DB.Where("code = ?", normalized).First(&gc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	codeLock := s.Locks.Giftcode(gc.ID)
	codeLock.Lock()
	defer codeLock.Unlock()
	accountLock := s.Locks.Account(accountID)
	accountLock.Lock()
	defer accountLock.Unlock()

	now := time.Now()

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// Re-read under the code lock; the first read was only to learn the ID.
		if err := tx.Where("id = ?", gc.ID).First(&gc).Error; err != nil {
			return err
		}
		if !gc.Active {
			return ErrNotFound
		}
		if gc.ValidFrom != nil && now.Before(*gc.ValidFrom) {
			return ErrNotFound
		}
		if gc.ValidUntil != nil && now.After(*gc.ValidUntil) {
			return ErrNotFound
		}

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

		var already int64
		if err := tx.Model(&models.GiftcodeRedemption{}).
			Where("giftcode_id = ? AND account_id = ?", gc.ID, accountID).
			Count(&already).Error; err != nil {
			return err
		}
		if already > 0 {
			return ErrAlreadyRedeemed
		}

		var used int64
		if err := tx.Model(&models.GiftcodeRedemption{}).
			Where("giftcode_id = ?", gc.ID).
			Count(&used).Error; err != nil {
			return err
		}
		if used >= int64(gc.MaxUses) {
			return ErrCapacityExceeded
		}

		redemption := models.GiftcodeRedemption{
			ID:         uuid.NewString(),
			GiftcodeID: gc.ID,
			AccountID:  accountID,
			Amount:     gc.Amount,
		}
		if err := tx.Create(&redemption).Error; err != nil {
			return err
		}

		account.Balance += gc.Amount
		account.TotalGiftcodeEarned += gc.Amount
		if err := tx.Save(&account).Error; err != nil {
			return err
		}

		return logActivity(tx, account.ID, account.DisplayName, "giftcode_redeemed",
			fmt.Sprintf("+%d P from %s", gc.Amount, gc.Code))
	})
	if err != nil {
		return 0, err
	}
	return gc.Amount, nil
}

// ListActive returns the currently claimable codes with usage counts but
// without redeemer identities.
func (s *GiftcodeService) ListActive() ([]fiber.Map, error) {
	now := time.Now()
	var codes []models.Giftcode
	if err := s.DB.Where("active = ?", true).Order("created_at DESC").Find(&codes).Error; err != nil {
		return nil, err
	}
	out := make([]fiber.Map, 0, len(codes))
	for _, gc := range codes {
		if gc.ValidFrom != nil && now.Before(*gc.ValidFrom) {
			continue
		}
		if gc.ValidUntil != nil && now.After(*gc.ValidUntil) {
			continue
		}
		var used int64
		s.DB.Model(&models.GiftcodeRedemption{}).Where("giftcode_id = ?", gc.ID).Count(&used)
		out = append(out, fiber.Map{
			"code":     gc.Code,
			"amount":   gc.Amount,
			"max_uses": gc.MaxUses,
			"used":     used,
		})
	}
	return out, nil
}

// --- Admin Handlers ---

// CreateGiftcode creates a new code (Admin only)
func (s *GiftcodeService) CreateGiftcode(c *fiber.Ctx) error {
	var req struct {
		Code       string     `json:"code" validate:"required,min=4,max=32"`
		Amount     int64      `json:"amount" validate:"required,min=1"`
		MaxUses    int        `json:"max_uses" validate:"required,min=1"`
		ValidFrom  *time.Time `json:"valid_from"`
		ValidUntil *time.Time `json:"valid_until"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	gc := models.Giftcode{
		ID:         uuid.NewString(),
		Code:       strings.ToUpper(strings.TrimSpace(req.Code)),
		Amount:     req.Amount,
		MaxUses:    req.MaxUses,
		ValidFrom:  req.ValidFrom,
		ValidUntil: req.ValidUntil,
		Active:     true,
	}
	if err := s.DB.Create(&gc).Error; err != nil {
		log.Printf("DB Error creating giftcode: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create giftcode"})
	}
	return c.Status(fiber.StatusCreated).JSON(gc)
}

// GetAllGiftcodes lists every code with its usage (Admin only)
func (s *GiftcodeService) GetAllGiftcodes(c *fiber.Ctx) error {
	var codes []models.Giftcode
	if err := s.DB.Unscoped().Order("created_at DESC").Find(&codes).Error; err != nil {
		log.Printf("DB Error fetching giftcodes: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch giftcodes"})
	}

	response := make([]fiber.Map, 0, len(codes))
	for _, gc := range codes {
		var redemptions []models.GiftcodeRedemption
		s.DB.Where("giftcode_id = ?", gc.ID).Find(&redemptions)
		redeemedBy := make([]string, 0, len(redemptions))
		for _, r := range redemptions {
			redeemedBy = append(redeemedBy, r.AccountID)
		}
		response = append(response, fiber.Map{
			"id":          gc.ID,
			"code":        gc.Code,
			"amount":      gc.Amount,
			"max_uses":    gc.MaxUses,
			"valid_from":  gc.ValidFrom,
			"valid_until": gc.ValidUntil,
			"active":      gc.Active,
			"redeemed_by": redeemedBy,
			"created_at":  gc.CreatedAt,
		})
	}
	return c.JSON(response)
}

// DeactivateGiftcode disables a code without touching its redemption history
// (Admin only). Codes are never hard-deleted while redemptions reference them.
func (s *GiftcodeService) DeactivateGiftcode(c *fiber.Ctx) error {
	code := strings.ToUpper(c.Params("code"))

	result := s.DB.Model(&models.Giftcode{}).Where("code = ?", code).Update("active", false)
	if result.Error != nil {
		log.Printf("DB Error deactivating giftcode: %v", result.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to deactivate giftcode"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Giftcode not found"})
	}
	return c.JSON(fiber.Map{"message": "Giftcode deactivated", "code": code})
}
