package services

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/habitflow-backend/internal/apierr"
	"github.com/yungbote/habitflow-backend/internal/logger"
	"github.com/yungbote/habitflow-backend/internal/repos"
	"github.com/yungbote/habitflow-backend/internal/requestdata"
)

func setupAuthService(t *testing.T) (*completionFixture, AuthService) {
	t.Helper()
	f := setupCompletionFixture(t)
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger init failed: %v", err)
	}
	tokenRepo := repos.NewUserTokenRepo(f.db, log)
	svc := NewAuthService(f.db, log, f.userRepo, tokenRepo, "test-secret", time.Hour, 24*time.Hour)
	return f, svc
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	_, svc := setupAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Username: "newbie", Email: "Newbie@Example.com", Password: "hunter22"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Email != "newbie@example.com" {
		t.Errorf("email not normalized: %s", user.Email)
	}
	if user.Password == "hunter22" {
		t.Error("password stored in plaintext")
	}

	access, refresh, err := svc.Login(ctx, "newbie@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if access == "" || refresh == "" {
		t.Fatal("Login returned empty tokens")
	}

	authedCtx, err := svc.SetContextFromToken(ctx, access)
	if err != nil {
		t.Fatalf("SetContextFromToken failed: %v", err)
	}
	rd := requestdata.GetRequestData(authedCtx)
	if rd == nil || rd.UserID != user.ID {
		t.Fatalf("request data = %+v, want user %s", rd, user.ID)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f, svc := setupAuthService(t)

	_, err := svc.Register(context.Background(), RegisterInput{Username: "dupe", Email: f.user.Email, Password: "pw"})
	if err == nil {
		t.Fatal("Register accepted a duplicate email")
	}
	if ae := apierr.From(err); ae.Code != apierr.CodeConflict {
		t.Errorf("error code = %s, want %s", ae.Code, apierr.CodeConflict)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	_, svc := setupAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Username: "locked", Email: "locked@example.com", Password: "correct"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	_, _, err := svc.Login(ctx, "locked@example.com", "wrong")
	if err == nil {
		t.Fatal("Login accepted a wrong password")
	}
	if ae := apierr.From(err); ae.Code != apierr.CodeUnauthenticated {
		t.Errorf("error code = %s, want %s", ae.Code, apierr.CodeUnauthenticated)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	_, svc := setupAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Username: "rotator", Email: "rotator@example.com", Password: "pw"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	_, refresh, err := svc.Login(ctx, "rotator@example.com", "pw")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	rctx := requestdata.WithRequestData(ctx, &requestdata.RequestData{RefreshToken: refresh})
	newAccess, newRefresh, err := svc.Refresh(rctx)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if newAccess == "" || newRefresh == refresh {
		t.Error("refresh token not rotated")
	}

	// the old refresh token is burned
	if _, _, err := svc.Refresh(rctx); err == nil {
		t.Error("consumed refresh token accepted a second time")
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	_, svc := setupAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Username: "leaver", Email: "leaver@example.com", Password: "pw"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	access, _, err := svc.Login(ctx, "leaver@example.com", "pw")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	authedCtx, err := svc.SetContextFromToken(ctx, access)
	if err != nil {
		t.Fatalf("SetContextFromToken failed: %v", err)
	}
	if err := svc.Logout(authedCtx); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if _, err := svc.SetContextFromToken(ctx, access); err == nil {
		t.Error("revoked session token still accepted")
	}
}
