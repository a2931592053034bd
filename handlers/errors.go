package handlers

import (
	"errors"

	"nova-rewards-system/models"
	"nova-rewards-system/services"

	"github.com/gofiber/fiber/v2"
)

// statusForError maps the core's error kinds to HTTP statuses. Anything
// unrecognized is a 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrExpired):
		return fiber.StatusGone
	case errors.Is(err, services.ErrInvalidToken):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, services.ErrFraudSuspected), errors.Is(err, services.ErrBanned):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrAlreadyRedeemed), errors.Is(err, services.ErrAlreadyFinalized):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrCapacityExceeded), errors.Is(err, services.ErrQuotaExceeded):
		return fiber.StatusTooManyRequests
	case errors.Is(err, services.ErrInsufficientBalance):
		return fiber.StatusPaymentRequired
	default:
		return fiber.StatusInternalServerError
	}
}

func errorJSON(c *fiber.Ctx, err error) error {
	status := statusForError(err)
	if status == fiber.StatusInternalServerError {
		return c.Status(status).JSON(fiber.Map{"error": "internal error", "cause": err.Error()})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// currentAccount resolves the gateway identity in the request context to the
// ledger record. Writes the error response itself and returns nil when the
// account does not exist yet.
func currentAccount(c *fiber.Ctx, accounts *services.AccountService) *models.Account {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		_ = c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User ID not found in context"})
		return nil
	}
	account, err := accounts.GetByExternalID(userID)
	if err != nil {
		_ = errorJSON(c, err)
		return nil
	}
	return account
}
