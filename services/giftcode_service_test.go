package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"nova-rewards-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGiftcodeService_Redeem(t *testing.T) {
	db := newTestDB(t)
	svc := NewGiftcodeService(db, NewLocks())

	t.Run("CreditsOncePerAccount", func(t *testing.T) {
		account := seedAccount(t, db, 0, false)
		seedGiftcode(t, db, "WELCOME2026", 500, 10)

		amount, err := svc.Redeem(account.ID, "welcome2026") // case-insensitive
		require.NoError(t, err)
		assert.Equal(t, int64(500), amount)

		var after models.Account
		require.NoError(t, db.Where("id = ?", account.ID).First(&after).Error)
		assert.Equal(t, int64(500), after.Balance)
		assert.Equal(t, int64(500), after.TotalGiftcodeEarned)
		assert.Equal(t, int64(0), after.TotalTaskEarned) // no multiplier, wrong counter untouched

		_, err = svc.Redeem(account.ID, "WELCOME2026")
		assert.ErrorIs(t, err, ErrAlreadyRedeemed)

		// Balance unchanged after the rejected second attempt.
		require.NoError(t, db.Where("id = ?", account.ID).First(&after).Error)
		assert.Equal(t, int64(500), after.Balance)
	})

	t.Run("UnknownCode", func(t *testing.T) {
		account := seedAccount(t, db, 0, false)
		_, err := svc.Redeem(account.ID, "NOPE")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("InactiveCode", func(t *testing.T) {
		account := seedAccount(t, db, 0, false)
		gc := seedGiftcode(t, db, "RETIRED", 500, 10)
		require.NoError(t, db.Model(gc).Update("active", false).Error)

		_, err := svc.Redeem(account.ID, "RETIRED")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("OutsideValidityWindow", func(t *testing.T) {
		account := seedAccount(t, db, 0, false)

		past := time.Now().Add(-time.Hour)
		gc := seedGiftcode(t, db, "ENDED", 500, 10)
		require.NoError(t, db.Model(gc).Update("valid_until", past).Error)
		_, err := svc.Redeem(account.ID, "ENDED")
		assert.ErrorIs(t, err, ErrNotFound)

		future := time.Now().Add(time.Hour)
		gc2 := seedGiftcode(t, db, "NOTYET", 500, 10)
		require.NoError(t, db.Model(gc2).Update("valid_from", future).Error)
		_, err = svc.Redeem(account.ID, "NOTYET")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("BannedAccount", func(t *testing.T) {
		account := seedAccount(t, db, 0, false)
		require.NoError(t, db.Model(account).Update("banned", true).Error)
		seedGiftcode(t, db, "FORBANNED", 500, 10)

		_, err := svc.Redeem(account.ID, "FORBANNED")
		assert.ErrorIs(t, err, ErrBanned)
	})
}

func TestGiftcodeService_Capacity(t *testing.T) {
	db := newTestDB(t)
	svc := NewGiftcodeService(db, NewLocks())

	const maxUses = 3
	seedGiftcode(t, db, "LIMITED", 100, maxUses)

	// Exactly maxUses distinct accounts succeed.
	for i := 0; i < maxUses; i++ {
		account := seedAccount(t, db, 0, false)
		_, err := svc.Redeem(account.ID, "LIMITED")
		require.NoError(t, err, fmt.Sprintf("redeemer %d should fit", i+1))
	}

	extra := seedAccount(t, db, 0, false)
	_, err := svc.Redeem(extra.ID, "LIMITED")
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	var used int64
	db.Model(&models.GiftcodeRedemption{}).Count(&used)
	assert.Equal(t, int64(maxUses), used)
}

func TestGiftcodeService_LastSlotRace(t *testing.T) {
	db := newTestDB(t)
	svc := NewGiftcodeService(db, NewLocks())

	seedGiftcode(t, db, "LASTSLOT", 100, 1)
	a := seedAccount(t, db, 0, false)
	b := seedAccount(t, db, 0, false)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, account := range []*models.Account{a, b} {
		wg.Add(1)
		go func(i int, accountID string) {
			defer wg.Done()
			_, errs[i] = svc.Redeem(accountID, "LASTSLOT")
		}(i, account.ID)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ErrCapacityExceeded)
		}
	}
	assert.Equal(t, 1, successes)

	// Exactly one account got credited.
	var total int64
	db.Model(&models.Account{}).Select("COALESCE(SUM(balance), 0)").Scan(&total)
	assert.Equal(t, int64(100), total)
}
