// handlers/admin_routes.go
package handlers

import (
	"strconv"

	"nova-rewards-system/middleware"
	"nova-rewards-system/models"
	"nova-rewards-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAdminRoutes(
	app *fiber.App,
	accountService *services.AccountService,
	channelService *services.ChannelService,
	giftcodeService *services.GiftcodeService,
	withdrawalService *services.WithdrawalService,
	auditService *services.AuditService,
) {
	// 🔒 Admin-only routes
	admin := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.AdminOnly())

	// Accounts
	admin.Get("/accounts", func(c *fiber.Ctx) error {
		accounts, err := accountService.ListAccounts()
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(accounts)
	})

	admin.Get("/accounts/:id", func(c *fiber.Ctx) error {
		account, counters, err := accountService.Snapshot(c.Params("id"))
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(fiber.Map{"account": account, "channel_counts": counters})
	})

	// Administrative ban override — writes banned/ban_reason directly,
	// bypassing normal flow.
	admin.Post("/accounts/:id/ban", func(c *fiber.Ctx) error {
		var req struct {
			Reason string `json:"reason" validate:"required,max=255"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if err := services.ValidateStruct(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		if err := accountService.Ban(c.Params("id"), req.Reason); err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(fiber.Map{"message": "Account banned"})
	})

	admin.Post("/accounts/:id/unban", func(c *fiber.Ctx) error {
		if err := accountService.Unban(c.Params("id")); err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(fiber.Map{"message": "Account unbanned"})
	})

	admin.Patch("/accounts/:id", func(c *fiber.Ctx) error {
		var req services.AdminAccountUpdate
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if err := services.ValidateStruct(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		account, err := accountService.AdminUpdate(c.Params("id"), req)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(account)
	})

	// On-demand integrity audit. A mismatch is reported, not treated as a
	// request failure: the penalty already landed.
	admin.Post("/accounts/:id/audit", func(c *fiber.Ctx) error {
		result, err := auditService.Audit(c.Params("id"))
		if err != nil && result == nil {
			return errorJSON(c, err)
		}
		return c.JSON(result)
	})

	// Channels
	admin.Get("/channels", channelService.GetAllChannels)
	admin.Post("/channels", channelService.CreateChannel)
	admin.Put("/channels/:id", channelService.UpdateChannel)

	// Giftcodes
	admin.Get("/giftcodes", giftcodeService.GetAllGiftcodes)
	admin.Post("/giftcodes", giftcodeService.CreateGiftcode)
	admin.Delete("/giftcodes/:code", giftcodeService.DeactivateGiftcode)

	// Withdrawals
	admin.Get("/withdrawals", func(c *fiber.Ctx) error {
		requests, err := withdrawalService.ListAll(c.Query("status"))
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(requests)
	})

	admin.Post("/withdrawals/:id/settle", func(c *fiber.Ctx) error {
		var req struct {
			Outcome string `json:"outcome" validate:"required,oneof=completed rejected"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if err := services.ValidateStruct(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		request, err := withdrawalService.Settle(c.Params("id"), models.WithdrawalStatus(req.Outcome))
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(request)
	})

	// Activity feed (latest entries, for audit UIs)
	admin.Get("/activity", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "50"))
		logs, err := auditService.RecentActivity(limit)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(logs)
	})
}
