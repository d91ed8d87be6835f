package domain

import "errors"

var (
	ErrNotFound             = errors.New("not-found")
	UnexpectedDatabaseError = errors.New("unexpected-database-error")
	UnexpectedStoreError    = errors.New("unexpected-store-error")
)

var (
	TokenError               = errors.New("token-error")
	ErrInvalidSigningAlg     = errors.New("invalid-signing-method")
	ErrExpiredToken          = errors.New("expired-token")
	ErrInvalidTokenSignature = errors.New("invalid-token-signature")
	ErrCorruptedToken        = errors.New("corrupted-token")
)
