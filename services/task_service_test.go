package services

import (
	"strings"
	"sync"
	"testing"
	"time"

	"nova-rewards-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskService_StartTask(t *testing.T) {
	db := newTestDB(t)
	svc := NewTaskService(db, testConfig(), NewLocks())

	account := seedAccount(t, db, 0, false)
	seedChannel(t, db, "link4m", 100, 3)

	t.Run("IssuesPrefixedToken", func(t *testing.T) {
		claim, err := svc.StartTask(account.ID, "link4m")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(claim.Token, "NOVA-"))
		assert.Len(t, claim.Token, len("NOVA-")+8)
		assert.Equal(t, int64(100), claim.RewardPoints)
		for _, c := range strings.TrimPrefix(claim.Token, "NOVA-") {
			assert.Contains(t, tokenAlphabet, string(c))
		}
	})

	t.Run("ReissueOverwritesPreviousClaim", func(t *testing.T) {
		first, err := svc.StartTask(account.ID, "link4m")
		require.NoError(t, err)
		second, err := svc.StartTask(account.ID, "link4m")
		require.NoError(t, err)
		assert.NotEqual(t, first.Token, second.Token)

		var count int64
		db.Model(&models.ClaimToken{}).
			Where("account_id = ? AND channel_id = ?", account.ID, "link4m").
			Count(&count)
		assert.Equal(t, int64(1), count)

		// Old token no longer verifies.
		_, err = svc.SubmitProof(account.ID, "link4m", first.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("UnknownChannel", func(t *testing.T) {
		_, err := svc.StartTask(account.ID, "no-such-channel")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("BannedAccount", func(t *testing.T) {
		banned := seedAccount(t, db, 0, false)
		require.NoError(t, db.Model(banned).Update("banned", true).Error)
		_, err := svc.StartTask(banned.ID, "link4m")
		assert.ErrorIs(t, err, ErrBanned)
	})
}

func TestTaskService_DailyQuotas(t *testing.T) {
	db := newTestDB(t)
	cfg := testConfig()
	cfg.DailyTaskLimit = 2
	svc := NewTaskService(db, cfg, NewLocks())

	seedChannel(t, db, "gate-a", 50, 1)
	seedChannel(t, db, "gate-b", 50, 5)

	completeTask := func(t *testing.T, accountID, channelID string) {
		claim, err := svc.StartTask(accountID, channelID)
		require.NoError(t, err)
		require.NoError(t, db.Model(&models.ClaimToken{}).
			Where("id = ?", claim.ID).
			Update("issued_at", time.Now().Add(-time.Minute)).Error)
		_, err = svc.SubmitProof(accountID, channelID, claim.Token)
		require.NoError(t, err)
	}

	t.Run("PerChannelLimit", func(t *testing.T) {
		account := seedAccount(t, db, 0, false)
		completeTask(t, account.ID, "gate-a")
		_, err := svc.StartTask(account.ID, "gate-a")
		assert.ErrorIs(t, err, ErrQuotaExceeded)
	})

	t.Run("GlobalDailyLimit", func(t *testing.T) {
		account := seedAccount(t, db, 0, false)
		completeTask(t, account.ID, "gate-b")
		completeTask(t, account.ID, "gate-b")
		_, err := svc.StartTask(account.ID, "gate-b")
		assert.ErrorIs(t, err, ErrQuotaExceeded)
	})

	t.Run("VIPGetsHigherGlobalLimit", func(t *testing.T) {
		account := seedAccount(t, db, 0, true)
		completeTask(t, account.ID, "gate-b")
		completeTask(t, account.ID, "gate-b")
		_, err := svc.StartTask(account.ID, "gate-b")
		assert.NoError(t, err)
	})

	t.Run("CountersResetOnNewDay", func(t *testing.T) {
		account := seedAccount(t, db, 0, false)
		completeTask(t, account.ID, "gate-a")

		yesterday := time.Now().Add(-30 * time.Hour)
		require.NoError(t, db.Model(&models.Account{}).
			Where("id = ?", account.ID).
			Update("last_task_at", yesterday).Error)

		_, err := svc.StartTask(account.ID, "gate-a")
		assert.NoError(t, err)
	})
}

func TestTaskService_SubmitProof(t *testing.T) {
	db := newTestDB(t)
	svc := NewTaskService(db, testConfig(), NewLocks())

	seedChannel(t, db, "link4m", 100, 10)

	// Backdate a claim so the fraud threshold does not trip.
	age := func(t *testing.T, claimID string, d time.Duration) {
		t.Helper()
		require.NoError(t, db.Model(&models.ClaimToken{}).
			Where("id = ?", claimID).
			Update("issued_at", time.Now().Add(-d)).Error)
	}

	t.Run("CreditsRewardAndCounters", func(t *testing.T) {
		account := seedAccount(t, db, 0, false)
		claim, err := svc.StartTask(account.ID, "link4m")
		require.NoError(t, err)
		age(t, claim.ID, time.Minute)

		credited, err := svc.SubmitProof(account.ID, "link4m", claim.Token)
		require.NoError(t, err)
		assert.Equal(t, int64(100), credited)

		var after models.Account
		require.NoError(t, db.Where("id = ?", account.ID).First(&after).Error)
		assert.Equal(t, int64(100), after.Balance)
		assert.Equal(t, int64(100), after.TotalTaskEarned)
		assert.Equal(t, 1, after.TasksToday)

		var counter models.ChannelCounter
		require.NoError(t, db.Where("account_id = ? AND channel_id = ?", account.ID, "link4m").
			First(&counter).Error)
		assert.Equal(t, 1, counter.Count)
	})

	t.Run("VIPMultiplierFlooredTaskOnly", func(t *testing.T) {
		account := seedAccount(t, db, 0, true)
		claim, err := svc.StartTask(account.ID, "link4m")
		require.NoError(t, err)
		age(t, claim.ID, time.Minute)

		credited, err := svc.SubmitProof(account.ID, "link4m", claim.Token)
		require.NoError(t, err)
		assert.Equal(t, int64(120), credited) // floor(100 * 12/10)
	})

	t.Run("AcceptsPrefixStrippedLowercase", func(t *testing.T) {
		account := seedAccount(t, db, 0, false)
		claim, err := svc.StartTask(account.ID, "link4m")
		require.NoError(t, err)
		age(t, claim.ID, time.Minute)

		bare := strings.ToLower(strings.TrimPrefix(claim.Token, "NOVA-"))
		credited, err := svc.SubmitProof(account.ID, "link4m", " "+bare+" ")
		require.NoError(t, err)
		assert.Equal(t, int64(100), credited)
	})

	t.Run("WrongTokenKeepsClaimForRetry", func(t *testing.T) {
		account := seedAccount(t, db, 0, false)
		claim, err := svc.StartTask(account.ID, "link4m")
		require.NoError(t, err)
		age(t, claim.ID, time.Minute)

		_, err = svc.SubmitProof(account.ID, "link4m", "NOVA-WRONGKEY")
		assert.ErrorIs(t, err, ErrInvalidToken)

		credited, err := svc.SubmitProof(account.ID, "link4m", claim.Token)
		require.NoError(t, err)
		assert.Equal(t, int64(100), credited)
	})

	t.Run("SecondVerifySeesNotFound", func(t *testing.T) {
		account := seedAccount(t, db, 0, false)
		claim, err := svc.StartTask(account.ID, "link4m")
		require.NoError(t, err)
		age(t, claim.ID, time.Minute)

		_, err = svc.SubmitProof(account.ID, "link4m", claim.Token)
		require.NoError(t, err)

		_, err = svc.SubmitProof(account.ID, "link4m", claim.Token)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ExpiredClaimConsumed", func(t *testing.T) {
		account := seedAccount(t, db, 0, false)
		claim, err := svc.StartTask(account.ID, "link4m")
		require.NoError(t, err)
		age(t, claim.ID, 31*time.Minute)

		_, err = svc.SubmitProof(account.ID, "link4m", claim.Token)
		assert.ErrorIs(t, err, ErrExpired)

		// The claim is gone; another submit is NotFound, and the caller must re-issue.
		_, err = svc.SubmitProof(account.ID, "link4m", claim.Token)
		assert.ErrorIs(t, err, ErrNotFound)

		var after models.Account
		require.NoError(t, db.Where("id = ?", account.ID).First(&after).Error)
		assert.Equal(t, int64(0), after.Balance)
	})

	t.Run("SubThresholdCompletionBans", func(t *testing.T) {
		account := seedAccount(t, db, 0, false)
		claim, err := svc.StartTask(account.ID, "link4m")
		require.NoError(t, err)

		_, err = svc.SubmitProof(account.ID, "link4m", claim.Token)
		assert.ErrorIs(t, err, ErrFraudSuspected)

		var after models.Account
		require.NoError(t, db.Where("id = ?", account.ID).First(&after).Error)
		assert.True(t, after.Banned)
		assert.NotEmpty(t, after.BanReason)
		assert.Equal(t, int64(0), after.Balance)

		// Banned means no further issuance either.
		_, err = svc.StartTask(account.ID, "link4m")
		assert.ErrorIs(t, err, ErrBanned)
	})
}

func TestTaskService_ConcurrentVerify(t *testing.T) {
	db := newTestDB(t)
	svc := NewTaskService(db, testConfig(), NewLocks())

	seedChannel(t, db, "link4m", 100, 10)
	account := seedAccount(t, db, 0, false)

	claim, err := svc.StartTask(account.ID, "link4m")
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.ClaimToken{}).
		Where("id = ?", claim.ID).
		Update("issued_at", time.Now().Add(-time.Minute)).Error)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.SubmitProof(account.ID, "link4m", claim.Token)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ErrNotFound)
		}
	}
	assert.Equal(t, 1, successes)

	var after models.Account
	require.NoError(t, db.Where("id = ?", account.ID).First(&after).Error)
	assert.Equal(t, int64(100), after.Balance)
}

func TestTaskService_PluggableFraudPolicy(t *testing.T) {
	db := newTestDB(t)
	svc := NewTaskService(db, testConfig(), NewLocks())

	// Replace the elapsed-time policy with one that always rejects.
	svc.FraudCheck = func(claim *models.ClaimToken, elapsed time.Duration) error {
		return ErrFraudSuspected
	}

	seedChannel(t, db, "link4m", 100, 10)
	account := seedAccount(t, db, 0, false)

	claim, err := svc.StartTask(account.ID, "link4m")
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.ClaimToken{}).
		Where("id = ?", claim.ID).
		Update("issued_at", time.Now().Add(-time.Minute)).Error)

	_, err = svc.SubmitProof(account.ID, "link4m", claim.Token)
	assert.ErrorIs(t, err, ErrFraudSuspected)
}
