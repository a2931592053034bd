// handlers/task_routes.go
package handlers

import (
	"nova-rewards-system/middleware"
	"nova-rewards-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupTaskRoutes(app *fiber.App, taskService *services.TaskService, accountService *services.AccountService, channelService *services.ChannelService) {
	// 🔓 Public: the channel rate table, for display before login
	app.Get("/channels", channelService.ListActive)

	secured := app.Group("/s", middleware.UserContextMiddleware())

	// Start a task: issues the claim token the user transcribes back after
	// the external redirect chain.
	secured.Post("/tasks/start", func(c *fiber.Ctx) error {
		account := currentAccount(c, accountService)
		if account == nil {
			return nil
		}

		var req struct {
			ChannelID string `json:"channel_id" validate:"required"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if err := services.ValidateStruct(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		claim, err := taskService.StartTask(account.ID, req.ChannelID)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"token":      claim.Token,
			"channel_id": claim.ChannelID,
			"reward":     claim.RewardPoints,
			"issued_at":  claim.IssuedAt,
		})
	})

	// Submit proof: the verification state machine.
	secured.Post("/tasks/verify", func(c *fiber.Ctx) error {
		account := currentAccount(c, accountService)
		if account == nil {
			return nil
		}

		var req struct {
			ChannelID string `json:"channel_id" validate:"required"`
			Token     string `json:"token" validate:"required"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if err := services.ValidateStruct(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		credited, err := taskService.SubmitProof(account.ID, req.ChannelID, req.Token)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(fiber.Map{
			"message":  "Task verified",
			"credited": credited,
		})
	})
}
