package entity

import "time"

// TokenKind classifies a verification token by the action it proves.
type TokenKind string

const (
	// TokenKindEmail proves control of the registration email address.
	TokenKindEmail TokenKind = "email"
	// TokenKindPasswordReset proves a password-reset request.
	TokenKindPasswordReset TokenKind = "password_reset"
)

// VerificationToken is a single-use random token attached to a user.
// A token transitions Verified from false to true exactly once; a token
// that has already been consumed must never be consumed again.
type VerificationToken struct {
	ID        uint      `gorm:"primaryKey"`
	Kind      TokenKind `gorm:"size:32;not null;index:idx_kind_token"`
	Token     string    `gorm:"size:128;not null;index:idx_kind_token"`
	Verified  bool      `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// UserID references the owning user. A user may hold many tokens.
	UserID uint `gorm:"index;not null"`
}
