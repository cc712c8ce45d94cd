package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"qrollcall/internal/auth"
)

func newTestService() *Service {
	return NewService(NewMemoryStore(), 3, 15*time.Minute)
}

func studentInput() RegisterInput {
	return RegisterInput{
		Name:         "Ada Obi",
		Email:        "ada@example.edu",
		Password:     "correct-horse",
		Role:         auth.RoleStudent,
		MatricNumber: "2021/12345",
		Department:   "Computer Science",
	}
}

func registerVerified(t *testing.T, svc *Service, in RegisterInput) *User {
	t.Helper()
	u, code, err := svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.Verify(context.Background(), in.Email, code); err != nil {
		t.Fatalf("verify: %v", err)
	}
	return u
}

func TestRegisterRoleMatricInvariant(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	noMatric := studentInput()
	noMatric.MatricNumber = ""
	if _, _, err := svc.Register(ctx, noMatric); err == nil {
		t.Error("student without matric number accepted")
	}

	lecturer := studentInput()
	lecturer.Email = "prof@example.edu"
	lecturer.Role = auth.RoleLecturer
	if _, _, err := svc.Register(ctx, lecturer); err == nil {
		t.Error("lecturer with matric number accepted")
	}
	lecturer.MatricNumber = ""
	if _, _, err := svc.Register(ctx, lecturer); err != nil {
		t.Errorf("valid lecturer rejected: %v", err)
	}
}

func TestRegisterDuplicates(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, studentInput()); err != nil {
		t.Fatalf("register: %v", err)
	}

	dup := studentInput()
	dup.MatricNumber = "2021/99999"
	if _, _, err := svc.Register(ctx, dup); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate email = %v, want ErrEmailTaken", err)
	}

	dup = studentInput()
	dup.Email = "other@example.edu"
	if _, _, err := svc.Register(ctx, dup); !errors.Is(err, ErrMatricTaken) {
		t.Errorf("duplicate matric = %v, want ErrMatricTaken", err)
	}
}

func TestLoginFlow(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	registerVerified(t, svc, studentInput())

	u, err := svc.Login(ctx, "ada@example.edu", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if u.Role != auth.RoleStudent || u.MatricNumber != "2021/12345" {
		t.Errorf("logged-in user = %+v", u)
	}

	if _, err := svc.Login(ctx, "ada@example.edu", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.edu", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginUnverified(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	if _, _, err := svc.Register(ctx, studentInput()); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Login(ctx, "ada@example.edu", "correct-horse"); !errors.Is(err, ErrNotVerified) {
		t.Errorf("unverified login = %v, want ErrNotVerified", err)
	}
}

func TestLoginLockout(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	registerVerified(t, svc, studentInput())

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	for i := 0; i < 3; i++ {
		if _, err := svc.Login(ctx, "ada@example.edu", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d = %v, want ErrInvalidCredentials", i+1, err)
		}
	}

	// Third failure opened the window; even the right password is refused.
	if _, err := svc.Login(ctx, "ada@example.edu", "correct-horse"); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("locked login = %v, want ErrAccountLocked", err)
	}

	// Past the window the account works again and counters reset.
	svc.now = func() time.Time { return base.Add(16 * time.Minute) }
	u, err := svc.Login(ctx, "ada@example.edu", "correct-horse")
	if err != nil {
		t.Fatalf("login after window: %v", err)
	}
	if u.LoginAttempts != 0 || u.LockUntil != nil {
		t.Errorf("counters not reset: attempts=%d lock=%v", u.LoginAttempts, u.LockUntil)
	}
}

func TestVerify(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, code, err := svc.Register(ctx, studentInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.Verify(ctx, "ada@example.edu", "000000x"); !errors.Is(err, ErrBadVerifyCode) {
		t.Errorf("wrong code = %v, want ErrBadVerifyCode", err)
	}
	if err := svc.Verify(ctx, "ada@example.edu", code); err != nil {
		t.Fatalf("verify: %v", err)
	}
	// Verifying twice is an idempotent no-op.
	if err := svc.Verify(ctx, "ada@example.edu", "anything"); err != nil {
		t.Errorf("re-verify = %v, want nil", err)
	}
}

func TestUpdateProfileAndDelete(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	u := registerVerified(t, svc, studentInput())

	updated, err := svc.UpdateProfile(ctx, u.ID, "Ada O.", "", "https://cdn.example/p.png")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Ada O." || updated.ProfilePicture != "https://cdn.example/p.png" {
		t.Errorf("updated user = %+v", updated)
	}
	if updated.Department != "Computer Science" {
		t.Error("empty field overwrote department")
	}

	if err := svc.Delete(ctx, u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetByID(ctx, u.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("get after delete = %v, want ErrUserNotFound", err)
	}
}
