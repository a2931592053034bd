package services

import "errors"

// Error kinds reported verbatim to callers. None of these are retried by the
// core; ErrFraudSuspected is the only one with a side effect (it bans the
// account before returning).
var (
	ErrNotFound            = errors.New("not found")
	ErrExpired             = errors.New("claim expired")
	ErrInvalidToken        = errors.New("invalid token")
	ErrFraudSuspected      = errors.New("fraud suspected")
	ErrAlreadyRedeemed     = errors.New("giftcode already redeemed")
	ErrCapacityExceeded    = errors.New("giftcode capacity exceeded")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAlreadyFinalized    = errors.New("withdrawal already finalized")
	ErrIntegrityMismatch   = errors.New("ledger integrity mismatch")
	ErrBanned              = errors.New("account banned")
	ErrQuotaExceeded       = errors.New("daily quota exceeded")
)
