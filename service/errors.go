package service

import "errors"

var (
	ErrUnknownSite         = errors.New("unknown or disabled site")
	ErrInvalidToken        = errors.New("invalid token")
	ErrUserNotFound        = errors.New("user not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrDuplicateRound      = errors.New("round already settled")
	ErrLedgerFailure       = errors.New("transaction failed")
	ErrRoomUnavailable     = errors.New("room not available")
	ErrInvalidProvider     = errors.New("invalid provider")
	ErrUpstream            = errors.New("external api error")
)
