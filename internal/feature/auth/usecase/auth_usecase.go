// Package usecase implements the business logic for the auth feature.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"auth_backend/internal/feature/auth/domain/entity"
)

const (
	// activationSubject is the subject line of the activation email.
	activationSubject = "Activate your account"

	// activationTemplate is the notifier template rendered into the activation email.
	activationTemplate = "verify_email.html"

	// notifyTimeout bounds the blocking activation-email send. The storage
	// writes are already committed before the send starts.
	notifyTimeout = 10 * time.Second
)

// UserRepository abstracts the persistence layer for user entities.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type UserRepository interface {
	// Create persists a new user atomically.
	// It returns ErrEmailAlreadyRegistered when the email is taken.
	Create(ctx context.Context, user *entity.User) error

	// FindByEmail retrieves the user registered with email.
	// It returns ErrUserNotFound when no such user exists.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByID retrieves the user with the given ID.
	// It returns ErrUserNotFound when no such user exists.
	FindByID(ctx context.Context, id uint) (*entity.User, error)
}

// TokenRepository abstracts the persistence layer for verification tokens.
type TokenRepository interface {
	// Create persists a new verification token attached to its user.
	Create(ctx context.Context, token *entity.VerificationToken) error

	// FindByKindAndToken retrieves a token by kind and opaque value.
	// It returns ErrTokenNotFound when no such token exists.
	FindByKindAndToken(ctx context.Context, kind entity.TokenKind, token string) (*entity.VerificationToken, error)

	// MarkVerified flips Verified from false to true for the token with the
	// given ID. It returns ErrTokenNotFound when the token is absent or was
	// already verified, so concurrent consumers cannot both win.
	MarkVerified(ctx context.Context, id uint) error
}

// SessionIssuer creates signed session tokens for authenticated users.
type SessionIssuer interface {
	Issue(userID uint, email string) (string, error)
}

// TokenGenerator mints opaque random verification-token strings.
type TokenGenerator interface {
	Generate() (string, error)
}

// PasswordHasher hashes and verifies login passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

// Notifier sends a templated email to a recipient.
type Notifier interface {
	Send(ctx context.Context, subject, from, to, template string, data map[string]string) error
}

// authUsecase orchestrates registration, email verification and login.
type authUsecase struct {
	users    UserRepository
	tokens   TokenRepository
	hasher   PasswordHasher
	issuer   SessionIssuer
	gen      TokenGenerator
	notifier Notifier

	fromAddress string
	webAppURL   string
}

// NewAuthUsecase creates a new instance of authUsecase.
// fromAddress is the sender of activation emails, webAppURL the base URL
// embedded in activation links.
func NewAuthUsecase(
	users UserRepository,
	tokens TokenRepository,
	hasher PasswordHasher,
	issuer SessionIssuer,
	gen TokenGenerator,
	notifier Notifier,
	fromAddress, webAppURL string,
) *authUsecase {
	return &authUsecase{
		users:       users,
		tokens:      tokens,
		hasher:      hasher,
		issuer:      issuer,
		gen:         gen,
		notifier:    notifier,
		fromAddress: fromAddress,
		webAppURL:   webAppURL,
	}
}

// Register creates a new account and emails an activation link.
//
// The user and its verification token are committed before the email is
// sent; a send failure is logged and does not fail the registration. No
// session token is issued here, only Verify and Login issue one.
func (u *authUsecase) Register(ctx context.Context, email, password string) error {
	hashed, err := u.hasher.Hash(password)
	if err != nil {
		return err
	}

	user := &entity.User{Email: email, Password: hashed}
	if err := u.users.Create(ctx, user); err != nil {
		return err
	}

	opaque, err := u.gen.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate verification token: %w", err)
	}
	vt := &entity.VerificationToken{
		Kind:   entity.TokenKindEmail,
		Token:  opaque,
		UserID: user.ID,
	}
	if err := u.tokens.Create(ctx, vt); err != nil {
		return err
	}

	nctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	link := fmt.Sprintf("%s/verify?token=%s&email=%s",
		u.webAppURL, url.QueryEscape(opaque), url.QueryEscape(email))
	data := map[string]string{"link": link, "email": email}
	if err := u.notifier.Send(nctx, activationSubject, u.fromAddress, email, activationTemplate, data); err != nil {
		// The account is already committed; the user can request a fresh
		// link, so the send failure is not surfaced to the caller.
		slog.Warn("activation email failed", "email", email, "error", err)
	}

	return nil
}

// Verify consumes an email verification token and returns a session token
// for the owning user.
//
// An unknown token and an already-consumed token produce the same
// ErrTokenNotFound, so probing cannot reveal verification state. At most
// one concurrent call per token succeeds; losers observe ErrTokenNotFound.
func (u *authUsecase) Verify(ctx context.Context, tokenStr string) (string, error) {
	vt, err := u.tokens.FindByKindAndToken(ctx, entity.TokenKindEmail, tokenStr)
	if err != nil {
		return "", err
	}
	if vt.Verified {
		return "", ErrTokenNotFound
	}

	if err := u.tokens.MarkVerified(ctx, vt.ID); err != nil {
		return "", err
	}

	user, err := u.users.FindByID(ctx, vt.UserID)
	if err != nil {
		return "", err
	}

	session, err := u.issuer.Issue(user.ID, user.Email)
	if err != nil {
		return "", fmt.Errorf("failed to issue session token: %w", err)
	}
	return session, nil
}

// Login authenticates a user and returns a session token on success.
// Unknown email and wrong password produce the same ErrInvalidCredentials.
// A bcrypt comparison runs even when the user does not exist, to keep the
// two failure paths close in timing.
func (u *authUsecase) Login(ctx context.Context, email, password string) (string, error) {
	user, err := u.users.FindByEmail(ctx, email)

	// Dummy digest compared on the miss path so a lookup miss costs as much
	// as a password mismatch.
	digest := "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
	if err == nil {
		digest = user.Password
	}

	ok := u.hasher.Verify(password, digest)
	if err != nil || !ok {
		return "", ErrInvalidCredentials
	}

	session, err := u.issuer.Issue(user.ID, user.Email)
	if err != nil {
		return "", fmt.Errorf("failed to issue session token: %w", err)
	}
	return session, nil
}

// CurrentUser returns the account behind an authenticated user ID.
func (u *authUsecase) CurrentUser(ctx context.Context, id uint) (*entity.User, error) {
	return u.users.FindByID(ctx, id)
}
