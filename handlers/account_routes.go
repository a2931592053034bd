// handlers/account_routes.go
package handlers

import (
	"nova-rewards-system/middleware"
	"nova-rewards-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAccountRoutes(app *fiber.App, accountService *services.AccountService) {
	secured := app.Group("/s", middleware.UserContextMiddleware())

	// Create the ledger record for a gateway identity. Idempotent: repeat
	// calls return the existing record.
	secured.Post("/account/register", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			DisplayName string  `json:"display_name" validate:"required,min=2,max=64"`
			ReferredBy  *string `json:"referred_by"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if err := services.ValidateStruct(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		account, err := accountService.Register(userID, req.DisplayName, req.ReferredBy)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(account)
	})

	// Read-only snapshot for any presentation layer.
	secured.Get("/account", func(c *fiber.Ctx) error {
		account := currentAccount(c, accountService)
		if account == nil {
			return nil
		}
		snapshot, counters, err := accountService.Snapshot(account.ID)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(fiber.Map{
			"account":        snapshot,
			"channel_counts": counters,
		})
	})

	secured.Post("/account/vip", func(c *fiber.Ctx) error {
		account := currentAccount(c, accountService)
		if account == nil {
			return nil
		}
		if err := accountService.UpgradeToVIP(account.ID); err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(fiber.Map{"message": "VIP upgrade successful"})
	})

	secured.Patch("/account/payout", func(c *fiber.Ctx) error {
		account := currentAccount(c, accountService)
		if account == nil {
			return nil
		}
		var req struct {
			BankInfo string `json:"bank_info" validate:"max=255"`
			GameID   string `json:"game_id" validate:"max=64"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if err := services.ValidateStruct(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		if err := accountService.UpdatePayoutDetails(account.ID, req.BankInfo, req.GameID); err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(fiber.Map{"message": "Payout details updated"})
	})
}
