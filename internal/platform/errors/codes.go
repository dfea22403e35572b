// Package errors provides structured error handling with machine-readable codes.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Match errors
	CodeMatchNotFound        Code = "MATCH_NOT_FOUND"
	CodeMatchNotActive       Code = "MATCH_NOT_ACTIVE"
	CodeMatchAlreadyFinished Code = "MATCH_ALREADY_FINISHED"
	CodeMatchInvalidRules    Code = "MATCH_INVALID_RULES"

	// Player errors
	CodePlayerNotInMatch    Code = "PLAYER_NOT_IN_MATCH"
	CodePlayerEmptyID       Code = "PLAYER_EMPTY_ID"
	CodePlayerDuplicateSeat Code = "PLAYER_DUPLICATE_SEAT"
	CodePlayerEmptyDisplay  Code = "PLAYER_EMPTY_DISPLAY_NAME"

	// Throw errors
	CodeThrowInvalidInput Code = "THROW_INVALID_INPUT"
	CodeThrowConflict     Code = "THROW_CONFLICT"

	// Session errors
	CodeSessionTokenInvalid Code = "SESSION_TOKEN_INVALID"
	CodeSessionTokenExpired Code = "SESSION_TOKEN_EXPIRED"

	// Storage errors
	CodeNotFound           Code = "NOT_FOUND"
	CodeStorageUnavailable Code = "STORAGE_UNAVAILABLE"
)
