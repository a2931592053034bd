package services

import (
	"testing"
	"time"

	"nova-rewards-system/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database with the full schema. A
// single connection keeps the in-memory store alive and shared across the
// test's goroutines.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Account{},
		&models.ChannelCounter{},
		&models.TaskChannel{},
		&models.ClaimToken{},
		&models.Giftcode{},
		&models.GiftcodeRedemption{},
		&models.WithdrawalRequest{},
		&models.ActivityLog{},
	))
	return db
}

func testConfig() Config {
	return Config{
		PointsPerCurrencyUnit: 1,
		TokenPrefix:           "NOVA-",
		ClaimTTL:              30 * time.Minute,
		MinTaskDuration:       5 * time.Second,
		DailyTaskLimit:        30,
		VIPDailyTaskLimit:     50,
		VIPPrice:              50000,
		MultiplierNum:         12,
		MultiplierDen:         10,
		ReferralReward:        1000,
		AuditSlack:            1000,
		AuditPenalty:          30,
		LogRetention:          30 * 24 * time.Hour,
	}
}

func seedAccount(t *testing.T, db *gorm.DB, balance int64, vip bool) *models.Account {
	t.Helper()
	account := models.Account{
		ID:             uuid.NewString(),
		ExternalUserID: uuid.NewString(),
		DisplayName:    "Test User",
		Balance:        balance,
		TrustScore:     100,
		VIP:            vip,
		MultiplierNum:  12,
		MultiplierDen:  10,
	}
	require.NoError(t, db.Create(&account).Error)
	return &account
}

func seedChannel(t *testing.T, db *gorm.DB, id string, reward int64, dailyLimit int) *models.TaskChannel {
	t.Helper()
	channel := models.TaskChannel{
		ID:           id,
		Name:         id,
		RewardPoints: reward,
		DailyLimit:   dailyLimit,
		Active:       true,
	}
	require.NoError(t, db.Create(&channel).Error)
	return &channel
}

func seedGiftcode(t *testing.T, db *gorm.DB, code string, amount int64, maxUses int) *models.Giftcode {
	t.Helper()
	gc := models.Giftcode{
		ID:      uuid.NewString(),
		Code:    code,
		Amount:  amount,
		MaxUses: maxUses,
		Active:  true,
	}
	require.NoError(t, db.Create(&gc).Error)
	return &gc
}
