package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"auth_backend/internal/feature/auth/domain/entity"
	jwtmw "auth_backend/internal/platform/jwt"
	"auth_backend/internal/platform/token"
)

// The fakes below persist to maps so the full registration/verification/login
// cycle can be exercised end to end with real hashing and real token issuance.

type fakeUserStore struct {
	mu     sync.Mutex
	nextID uint
	users  map[string]*entity.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{nextID: 1, users: map[string]*entity.User{}}
}

func (s *fakeUserStore) Create(_ context.Context, user *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Email]; ok {
		return ErrEmailAlreadyRegistered
	}
	user.ID = s.nextID
	s.nextID++
	cp := *user
	s.users[user.Email] = &cp
	return nil
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) FindByID(_ context.Context, id uint) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *fakeUserStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

type fakeTokenStore struct {
	mu     sync.Mutex
	nextID uint
	tokens map[uint]*entity.VerificationToken
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{nextID: 1, tokens: map[uint]*entity.VerificationToken{}}
}

func (s *fakeTokenStore) Create(_ context.Context, t *entity.VerificationToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.nextID
	s.nextID++
	cp := *t
	s.tokens[t.ID] = &cp
	return nil
}

func (s *fakeTokenStore) FindByKindAndToken(_ context.Context, kind entity.TokenKind, opaque string) (*entity.VerificationToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tokens {
		if t.Kind == kind && t.Token == opaque {
			cp := *t
			return &cp, nil
		}
	}
	return nil, ErrTokenNotFound
}

func (s *fakeTokenStore) MarkVerified(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[id]
	if !ok || t.Verified {
		return ErrTokenNotFound
	}
	t.Verified = true
	return nil
}

// recordingNotifier captures sent mail instead of delivering it.
type recordingNotifier struct {
	mu    sync.Mutex
	sends []map[string]string
}

func (n *recordingNotifier) Send(_ context.Context, _, _, to, _ string, data map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	cp := map[string]string{"to": to}
	for k, v := range data {
		cp[k] = v
	}
	n.sends = append(n.sends, cp)
	return nil
}

func (n *recordingNotifier) last(t *testing.T) map[string]string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sends) == 0 {
		t.Fatal("no mail was sent")
	}
	return n.sends[len(n.sends)-1]
}

type workflowFixture struct {
	uc       *authUsecase
	users    *fakeUserStore
	tokens   *fakeTokenStore
	notifier *recordingNotifier
	issuer   *jwtmw.Issuer
}

func newWorkflowFixture() *workflowFixture {
	users := newFakeUserStore()
	tokens := newFakeTokenStore()
	notifier := &recordingNotifier{}
	issuer := jwtmw.NewIssuer("workflow-test-secret", 72*time.Hour)
	uc := NewAuthUsecase(users, tokens, bcryptHasher{}, issuer, token.NewGenerator(), notifier,
		"hello@souvenir.app", "https://app.example.com")
	return &workflowFixture{uc: uc, users: users, tokens: tokens, notifier: notifier, issuer: issuer}
}

// issuedToken returns the opaque token persisted by the latest registration.
func (f *workflowFixture) issuedToken(t *testing.T) string {
	t.Helper()
	f.notifier.last(t) // the activation mail must have gone out

	f.tokens.mu.Lock()
	defer f.tokens.mu.Unlock()
	var opaque string
	var maxID uint
	for id, vt := range f.tokens.tokens {
		if id >= maxID {
			maxID = id
			opaque = vt.Token
		}
	}
	if opaque == "" {
		t.Fatal("no verification token stored")
	}
	return opaque
}

func TestWorkflow_LoginBeforeVerification(t *testing.T) {
	f := newWorkflowFixture()
	ctx := context.Background()

	if err := f.uc.Register(ctx, "a@x.com", "p1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Verification is not a login precondition.
	session, err := f.uc.Login(ctx, "a@x.com", "p1")
	if err != nil {
		t.Fatalf("login before verification must succeed, got: %v", err)
	}
	userID, err := f.issuer.Decode(session)
	if err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if userID != 1 {
		t.Errorf("session decodes to user %d, want 1", userID)
	}
}

func TestWorkflow_DuplicateRegistrationKeepsFirstPassword(t *testing.T) {
	f := newWorkflowFixture()
	ctx := context.Background()

	if err := f.uc.Register(ctx, "a@x.com", "p1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	err := f.uc.Register(ctx, "a@x.com", "p2")
	if !errors.Is(err, ErrEmailAlreadyRegistered) {
		t.Fatalf("expected ErrEmailAlreadyRegistered, got: %v", err)
	}
	if got := f.users.count(); got != 1 {
		t.Errorf("user count changed: got %d, want 1", got)
	}

	stored, err := f.users.FindByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("p1")) != nil {
		t.Error("stored hash no longer verifies against the first password")
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("p2")) == nil {
		t.Error("stored hash verifies against the losing password")
	}
}

func TestWorkflow_VerifyConsumesTokenExactlyOnce(t *testing.T) {
	f := newWorkflowFixture()
	ctx := context.Background()

	if err := f.uc.Register(ctx, "a@x.com", "p1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	opaque := f.issuedToken(t)

	session, err := f.uc.Verify(ctx, opaque)
	if err != nil {
		t.Fatalf("first verify: %v", err)
	}
	userID, err := f.issuer.Decode(session)
	if err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if userID != 1 {
		t.Errorf("session decodes to user %d, want 1", userID)
	}

	_, err = f.uc.Verify(ctx, opaque)
	if !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("second verify: expected ErrTokenNotFound, got: %v", err)
	}
}

func TestWorkflow_UnknownAndConsumedTokensShareErrorShape(t *testing.T) {
	f := newWorkflowFixture()
	ctx := context.Background()

	if err := f.uc.Register(ctx, "a@x.com", "p1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	opaque := f.issuedToken(t)
	if _, err := f.uc.Verify(ctx, opaque); err != nil {
		t.Fatalf("verify: %v", err)
	}

	_, errConsumed := f.uc.Verify(ctx, opaque)
	_, errUnknown := f.uc.Verify(ctx, "nonexistent-token")

	if !errors.Is(errConsumed, ErrTokenNotFound) || !errors.Is(errUnknown, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound for both, got consumed=%v unknown=%v", errConsumed, errUnknown)
	}
	if errConsumed.Error() != errUnknown.Error() {
		t.Errorf("error shapes differ: %q vs %q", errConsumed, errUnknown)
	}
}

func TestWorkflow_LoginFailuresAreIndistinguishable(t *testing.T) {
	f := newWorkflowFixture()
	ctx := context.Background()

	if err := f.uc.Register(ctx, "a@x.com", "p1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, errWrongPassword := f.uc.Login(ctx, "a@x.com", "wrong")
	_, errUnknownEmail := f.uc.Login(ctx, "b@x.com", "p1")

	if !errors.Is(errWrongPassword, ErrInvalidCredentials) || !errors.Is(errUnknownEmail, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for both, got password=%v email=%v", errWrongPassword, errUnknownEmail)
	}
	if errWrongPassword.Error() != errUnknownEmail.Error() {
		t.Errorf("error shapes differ: %q vs %q", errWrongPassword, errUnknownEmail)
	}
}

func TestWorkflow_ConcurrentVerifyAdmitsOneWinner(t *testing.T) {
	f := newWorkflowFixture()
	ctx := context.Background()

	if err := f.uc.Register(ctx, "a@x.com", "p1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	opaque := f.issuedToken(t)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.uc.Verify(ctx, opaque)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrTokenNotFound):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("expected exactly one winning verify, got %d", wins)
	}
}
