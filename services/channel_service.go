// services/channel_service.go
package services

import (
	"errors"
	"log"

	"nova-rewards-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// ChannelService manages the task-channel rate table (Admin only). Channel
// IDs are slugs of the admin-supplied names so they survive in URLs and in
// the per-channel counters.
type ChannelService struct {
	DB *gorm.DB
}

func NewChannelService(db *gorm.DB) *ChannelService {
	return &ChannelService{DB: db}
}

// ListActive returns the channels users may start tasks on.
func (s *ChannelService) ListActive(c *fiber.Ctx) error {
	var channels []models.TaskChannel
	if err := s.DB.Where("active = ?", true).Order("reward_points DESC").Find(&channels).Error; err != nil {
		log.Printf("DB Error fetching channels: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch channels"})
	}
	return c.JSON(channels)
}

// CreateChannel registers a new task provider entry (Admin only)
func (s *ChannelService) CreateChannel(c *fiber.Ctx) error {
	var req struct {
		Name         string `json:"name" validate:"required,min=2,max=64"`
		RewardPoints int64  `json:"reward_points" validate:"required,min=1"`
		DailyLimit   int    `json:"daily_limit" validate:"required,min=1"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	channel := models.TaskChannel{
		ID:           slug.Make(req.Name),
		Name:         req.Name,
		RewardPoints: req.RewardPoints,
		DailyLimit:   req.DailyLimit,
		Active:       true,
	}
	if err := s.DB.Create(&channel).Error; err != nil {
		log.Printf("DB Error creating channel: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create channel"})
	}
	return c.Status(fiber.StatusCreated).JSON(channel)
}

// UpdateChannel edits reward, limit or active flag (Admin only)
func (s *ChannelService) UpdateChannel(c *fiber.Ctx) error {
	id := c.Params("id")

	var channel models.TaskChannel
	if err := s.DB.Where("id = ?", id).First(&channel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Channel not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var req struct {
		Name         *string `json:"name"`
		RewardPoints *int64  `json:"reward_points" validate:"omitempty,min=1"`
		DailyLimit   *int    `json:"daily_limit" validate:"omitempty,min=1"`
		Active       *bool   `json:"active"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	// The ID stays stable even when the display name changes: outstanding
	// claims and counters reference it.
	if req.Name != nil {
		channel.Name = *req.Name
	}
	if req.RewardPoints != nil {
		channel.RewardPoints = *req.RewardPoints
	}
	if req.DailyLimit != nil {
		channel.DailyLimit = *req.DailyLimit
	}
	if req.Active != nil {
		channel.Active = *req.Active
	}

	if err := s.DB.Save(&channel).Error; err != nil {
		log.Printf("DB Error updating channel: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update channel"})
	}
	return c.JSON(channel)
}

// GetAllChannels lists every channel including inactive ones (Admin only)
func (s *ChannelService) GetAllChannels(c *fiber.Ctx) error {
	var channels []models.TaskChannel
	if err := s.DB.Unscoped().Order("created_at ASC").Find(&channels).Error; err != nil {
		log.Printf("DB Error fetching channels: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch channels"})
	}
	return c.JSON(channels)
}
