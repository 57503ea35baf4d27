package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	accountdomain "cloudpad-admin/backend/internal/account/domain"
	"cloudpad-admin/backend/internal/security"

	"golang.org/x/crypto/bcrypt"
)

type memAccountRepo struct {
	mu      sync.Mutex
	byID    map[string]*accountdomain.Account
	byEmail map[string]*accountdomain.Account
}

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{
		byID:    make(map[string]*accountdomain.Account),
		byEmail: make(map[string]*accountdomain.Account),
	}
}

func (r *memAccountRepo) GetByID(ctx context.Context, id string) (*accountdomain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.byID[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (r *memAccountRepo) GetByEmail(ctx context.Context, email string) (*accountdomain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.byEmail[email]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (r *memAccountRepo) Create(ctx context.Context, a *accountdomain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.byID[a.ID] = &cp
	r.byEmail[a.Email] = &cp
	return nil
}

func (r *memAccountRepo) UpdateRefreshHash(ctx context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.byID[id]; ok {
		a.RefreshTokenHash = hash
	}
	return nil
}

func (r *memAccountRepo) RotateRefreshHash(ctx context.Context, id, oldHash, newHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok || a.RefreshTokenHash != oldHash {
		return false, nil
	}
	a.RefreshTokenHash = newHash
	return true, nil
}

func newTestService(t *testing.T) (*AuthService, *memAccountRepo, *security.TokenProvider) {
	t.Helper()
	repo := newMemAccountRepo()
	hasher := security.NewHasher(bcrypt.MinCost)
	tokens := security.NewTokenProvider(
		[]byte("test-access-secret"), []byte("test-refresh-secret"),
		"test-issuer", 30*time.Minute, 168*time.Hour)
	return NewAuthService(repo, hasher, tokens, nil), repo, tokens
}

func mustRegister(t *testing.T, s *AuthService, email, password string) *security.TokenPair {
	t.Helper()
	pair, err := s.Register(context.Background(), RegisterParams{
		FirstName: "John", LastName: "Doe", Email: email, Password: password,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return pair
}

func TestLogin_AccessTokenCarriesIdentity(t *testing.T) {
	s, repo, tokens := newTestService(t)
	mustRegister(t, s, "a@x.com", "secret123")

	res, err := s.Login(context.Background(), "a@x.com", "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	acct, _ := repo.GetByEmail(context.Background(), "a@x.com")

	subject, role, err := tokens.ValidateAccess(res.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccess: %v", err)
	}
	if subject != acct.ID {
		t.Errorf("subject = %q, want account id %q", subject, acct.ID)
	}
	if role != string(acct.Role) {
		t.Errorf("role = %q, want %q", role, acct.Role)
	}
	if res.Identity.Email != "a@x.com" {
		t.Errorf("identity email = %q, want a@x.com", res.Identity.Email)
	}
}

func TestLogin_UniformFailure(t *testing.T) {
	s, _, _ := newTestService(t)
	mustRegister(t, s, "a@x.com", "secret123")

	_, errWrongPassword := s.Login(context.Background(), "a@x.com", "wrong-password")
	_, errUnknownEmail := s.Login(context.Background(), "nobody@x.com", "secret123")

	if !errors.Is(errWrongPassword, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v, want ErrInvalidCredentials", errWrongPassword)
	}
	if !errors.Is(errUnknownEmail, ErrInvalidCredentials) {
		t.Errorf("unknown email: got %v, want ErrInvalidCredentials", errUnknownEmail)
	}
	// Same externally observable error kind for both causes.
	if errWrongPassword.Error() != errUnknownEmail.Error() {
		t.Error("login failure messages must be indistinguishable")
	}
}

func TestLogin_EmailCaseInsensitive(t *testing.T) {
	s, _, _ := newTestService(t)
	mustRegister(t, s, "a@x.com", "secret123")
	if _, err := s.Login(context.Background(), "A@X.com", "secret123"); err != nil {
		t.Errorf("Login with different email case: %v", err)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	s, repo, _ := newTestService(t)
	mustRegister(t, s, "a@x.com", "secret123")
	first, _ := repo.GetByEmail(context.Background(), "a@x.com")

	_, err := s.Register(context.Background(), RegisterParams{
		FirstName: "Jane", LastName: "Doe", Email: "a@x.com", Password: "other-secret",
	})
	if !errors.Is(err, ErrDuplicateAccount) {
		t.Fatalf("second Register: got %v, want ErrDuplicateAccount", err)
	}

	// First account's stored data is unaffected.
	after, _ := repo.GetByEmail(context.Background(), "a@x.com")
	if after.ID != first.ID || after.FirstName != "John" || after.PasswordHash != first.PasswordHash {
		t.Error("duplicate registration must not mutate the existing account")
	}
}

func TestRegister_BaseRoleAndSession(t *testing.T) {
	s, repo, _ := newTestService(t)
	pair := mustRegister(t, s, "a@x.com", "secret123")

	acct, _ := repo.GetByEmail(context.Background(), "a@x.com")
	if acct.Role != accountdomain.RoleAdmin {
		t.Errorf("role = %q, want base role admin", acct.Role)
	}
	if acct.RefreshTokenHash == "" {
		t.Error("registration must persist a session")
	}
	if !security.RefreshTokenHashEqual(pair.RefreshToken, acct.RefreshTokenHash) {
		t.Error("stored hash must match the issued refresh token")
	}
}

func TestRegister_Validation(t *testing.T) {
	s, _, _ := newTestService(t)
	tests := []struct {
		name   string
		params RegisterParams
	}{
		{"missing first name", RegisterParams{LastName: "Doe", Email: "a@x.com", Password: "secret123"}},
		{"missing last name", RegisterParams{FirstName: "John", Email: "a@x.com", Password: "secret123"}},
		{"missing email", RegisterParams{FirstName: "John", LastName: "Doe", Password: "secret123"}},
		{"bad email", RegisterParams{FirstName: "John", LastName: "Doe", Email: "not-an-email", Password: "secret123"}},
		{"missing password", RegisterParams{FirstName: "John", LastName: "Doe", Email: "a@x.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Register(context.Background(), tt.params); !errors.Is(err, ErrValidation) {
				t.Errorf("got %v, want ErrValidation", err)
			}
		})
	}
}

func TestRefresh_SingleUse(t *testing.T) {
	s, repo, _ := newTestService(t)
	t1 := mustRegister(t, s, "a@x.com", "secret123")
	acct, _ := repo.GetByEmail(context.Background(), "a@x.com")

	t2, err := s.Refresh(context.Background(), acct.ID, t1.RefreshToken)
	if err != nil {
		t.Fatalf("first Refresh: %v", err)
	}
	if t2.AccessToken == t1.AccessToken || t2.RefreshToken == t1.RefreshToken {
		t.Error("rotation must produce a pair distinct from the original")
	}

	// Re-using the original refresh token after rotation must fail.
	if _, err := s.Refresh(context.Background(), acct.ID, t1.RefreshToken); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("reused token: got %v, want ErrAccessDenied", err)
	}

	// The rotated token is usable exactly once more.
	if _, err := s.Refresh(context.Background(), acct.ID, t2.RefreshToken); err != nil {
		t.Errorf("rotated token: %v", err)
	}
}

func TestRefresh_AfterLogoutDenied(t *testing.T) {
	s, repo, _ := newTestService(t)
	pair := mustRegister(t, s, "a@x.com", "secret123")
	acct, _ := repo.GetByEmail(context.Background(), "a@x.com")

	if err := s.Logout(context.Background(), acct.ID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := s.Refresh(context.Background(), acct.ID, pair.RefreshToken); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("refresh after logout: got %v, want ErrAccessDenied", err)
	}
}

func TestRefresh_UnknownAccountDenied(t *testing.T) {
	s, _, _ := newTestService(t)
	if _, err := s.Refresh(context.Background(), "no-such-account", "whatever"); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("got %v, want ErrAccessDenied", err)
	}
}

func TestLogout_Idempotent(t *testing.T) {
	s, repo, _ := newTestService(t)
	mustRegister(t, s, "a@x.com", "secret123")
	acct, _ := repo.GetByEmail(context.Background(), "a@x.com")

	if err := s.Logout(context.Background(), acct.ID); err != nil {
		t.Fatalf("first Logout: %v", err)
	}
	if err := s.Logout(context.Background(), acct.ID); err != nil {
		t.Errorf("second Logout: %v", err)
	}
	if err := s.Logout(context.Background(), "never-logged-in"); err != nil {
		t.Errorf("Logout of unknown account: %v", err)
	}
}

func TestRefresh_ConcurrentRotationSingleWinner(t *testing.T) {
	s, repo, _ := newTestService(t)
	pair := mustRegister(t, s, "a@x.com", "secret123")
	acct, _ := repo.GetByEmail(context.Background(), "a@x.com")

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Refresh(context.Background(), acct.ID, pair.RefreshToken)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, ErrAccessDenied):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Errorf("winners = %d, want exactly 1", winners)
	}
}
