package constants

import "time"

const (
	// ContextKeyUserID is the gin context key holding the authenticated user id.
	ContextKeyUserID = "user_id"
	// ContextKeyClaims is the gin context key holding the parsed token claims.
	ContextKeyClaims = "claims"

	// TokenTTL is the lifetime of an issued bearer token.
	TokenTTL = time.Hour
	// OTPTTL is the lifetime of a password-reset OTP.
	OTPTTL = time.Hour
	// OTPLength is the number of digits in a password-reset OTP.
	OTPLength = 6
	// GeneratedPasswordLength is the length of passwords issued to newly
	// registered users.
	GeneratedPasswordLength = 10

	// ReminderLead is how far ahead of a meeting or task deadline the
	// reminder email goes out.
	ReminderLead = time.Hour
	// ReminderTick is the reminder dispatcher's scan interval.
	ReminderTick = time.Minute

	// DepartmentIDPrefix prefixes department ids in listing responses.
	DepartmentIDPrefix = "warcat-"
)
