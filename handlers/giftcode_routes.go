// handlers/giftcode_routes.go
package handlers

import (
	"nova-rewards-system/middleware"
	"nova-rewards-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupGiftcodeRoutes(app *fiber.App, giftcodeService *services.GiftcodeService, accountService *services.AccountService) {
	secured := app.Group("/s", middleware.UserContextMiddleware())

	secured.Get("/giftcodes", func(c *fiber.Ctx) error {
		codes, err := giftcodeService.ListActive()
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(codes)
	})

	secured.Post("/giftcodes/redeem", func(c *fiber.Ctx) error {
		account := currentAccount(c, accountService)
		if account == nil {
			return nil
		}

		var req struct {
			Code string `json:"code" validate:"required,min=4,max=32"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if err := services.ValidateStruct(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		amount, err := giftcodeService.Redeem(account.ID, req.Code)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(fiber.Map{
			"message":  "Giftcode redeemed",
			"credited": amount,
		})
	})
}
