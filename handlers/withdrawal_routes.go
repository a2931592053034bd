// handlers/withdrawal_routes.go
package handlers

import (
	"nova-rewards-system/middleware"
	"nova-rewards-system/models"
	"nova-rewards-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupWithdrawalRoutes(app *fiber.App, withdrawalService *services.WithdrawalService, accountService *services.AccountService) {
	secured := app.Group("/s", middleware.UserContextMiddleware())

	secured.Post("/withdrawals", func(c *fiber.Ctx) error {
		account := currentAccount(c, accountService)
		if account == nil {
			return nil
		}

		var req struct {
			Amount     int64  `json:"amount" validate:"required,min=1"`
			PayoutType string `json:"payout_type" validate:"required,oneof=bank game"`
			Details    string `json:"details" validate:"max=255"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if err := services.ValidateStruct(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		request, err := withdrawalService.Request(account.ID, req.Amount, models.PayoutType(req.PayoutType), req.Details)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(request)
	})

	secured.Get("/withdrawals", func(c *fiber.Ctx) error {
		account := currentAccount(c, accountService)
		if account == nil {
			return nil
		}
		requests, err := withdrawalService.ListForAccount(account.ID)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(requests)
	})
}
