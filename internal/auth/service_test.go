package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-pos/internal/repo"
)

type fakeUsers struct {
	byEmail map[string]repo.User
	nextID  int64
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (repo.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return repo.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (f *fakeUsers) Get(_ context.Context, id int64) (repo.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return repo.User{}, pgx.ErrNoRows
}

func (f *fakeUsers) Create(_ context.Context, u repo.User) (repo.User, error) {
	f.nextID++
	u.ID = f.nextID
	f.byEmail[u.Email] = u
	return u, nil
}

func newTestAuth(t *testing.T) (*Service, *fakeUsers) {
	t.Helper()
	users := &fakeUsers{byEmail: map[string]repo.User{}}
	svc, err := NewService(Config{Users: users, Secret: "test-secret-please-rotate"})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, users
}

func seedUser(t *testing.T, users *fakeUsers, email, password, role string) repo.User {
	t.Helper()
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	users.nextID++
	u := repo.User{ID: users.nextID, Email: email, PasswordHash: hash, Name: "Test", Role: role, CreatedAt: time.Now()}
	users.byEmail[email] = u
	return u
}

func TestLoginIssuesRoleToken(t *testing.T) {
	svc, users := newTestAuth(t)
	seedUser(t, users, "admin@example.com", "correct horse", RoleAdmin)

	result, err := svc.Login(context.Background(), "Admin@Example.com ", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.AccessToken == "" {
		t.Fatal("empty access token")
	}
	userID, role, err := svc.ParseAccessToken(result.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if userID != result.User.ID || role != RoleAdmin {
		t.Errorf("claims = (%d, %s), want (%d, %s)", userID, role, result.User.ID, RoleAdmin)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	svc, users := newTestAuth(t)
	seedUser(t, users, "seller@example.com", "right", RoleSeller)

	if _, err := svc.Login(context.Background(), "seller@example.com", "wrong"); err == nil {
		t.Fatal("bad password accepted")
	}
	if _, err := svc.Login(context.Background(), "nobody@example.com", "right"); err == nil {
		t.Fatal("unknown user accepted")
	}
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	svc, users := newTestAuth(t)
	seedUser(t, users, "seller@example.com", "password1", RoleSeller)

	past := time.Now().Add(-48 * time.Hour)
	svc.WithNow(func() time.Time { return past })
	result, err := svc.Login(context.Background(), "seller@example.com", "password1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	svc.WithNow(time.Now)
	if _, _, err := svc.ParseAccessToken(result.AccessToken); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestParseAccessTokenRejectsGarbage(t *testing.T) {
	svc, _ := newTestAuth(t)
	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, _, err := svc.ParseAccessToken(token); err == nil {
			t.Errorf("token %q accepted", token)
		}
	}
}

func TestCreateStaffValidation(t *testing.T) {
	svc, _ := newTestAuth(t)

	if _, err := svc.CreateStaff(context.Background(), "X", "x@example.com", "short", RoleSeller); err == nil {
		t.Error("short password accepted")
	}
	if _, err := svc.CreateStaff(context.Background(), "X", "x@example.com", "long enough", "owner"); err == nil {
		t.Error("unknown role accepted")
	}
	u, err := svc.CreateStaff(context.Background(), "X", "X@Example.com", "long enough", RoleSeller)
	if err != nil {
		t.Fatalf("CreateStaff: %v", err)
	}
	if u.Email != "x@example.com" {
		t.Errorf("email not normalized: %q", u.Email)
	}
	m, err := svc.CreateStaff(context.Background(), "M", "m@example.com", "long enough", RoleManager)
	if err != nil {
		t.Fatalf("CreateStaff manager: %v", err)
	}
	if m.Role != RoleManager {
		t.Errorf("role = %q, want %q", m.Role, RoleManager)
	}
}
