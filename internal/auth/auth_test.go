package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestService() *Service {
	return NewService(NewMemoryStore(), Config{TokenSecret: "test-secret", TokenTTL: time.Hour}, nil)
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.HasPrefix(hash, "argon2id$") {
		t.Errorf("hash %q missing argon2id prefix", hash)
	}

	ok, err := VerifyPassword("correct horse battery staple", hash)
	if err != nil || !ok {
		t.Fatalf("correct password rejected: ok=%v err=%v", ok, err)
	}
	ok, err = VerifyPassword("wrong password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if ok {
		t.Error("wrong password accepted")
	}
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	if _, err := VerifyPassword("pw", "not-a-hash"); err == nil {
		t.Error("malformed hash should error")
	}
}

func TestRegisterLoginVerifyRoundTrip(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	session, err := svc.Login(ctx, "alice", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if session.Token == "" || !session.ExpiresAt.After(time.Now()) {
		t.Fatalf("bad session: %+v", session)
	}

	username, err := svc.Verify(session.Token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if username != "alice" {
		t.Errorf("token verified as %q, want alice", username)
	}
}

func TestRegisterRejectsDuplicatesAndWeakInput(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "bob", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, "bob", "password456"); !errors.Is(err, ErrUserExists) {
		t.Errorf("duplicate register: got %v, want ErrUserExists", err)
	}
	if _, err := svc.Register(ctx, "ab", "password123"); err == nil {
		t.Error("short username accepted")
	}
	if _, err := svc.Register(ctx, "carol", "short"); err == nil {
		t.Error("short password accepted")
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	if _, err := svc.Register(ctx, "dave", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, wrongPw := svc.Login(ctx, "dave", "not-the-password")
	_, noUser := svc.Login(ctx, "nobody", "password123")
	if !errors.Is(wrongPw, ErrInvalidCredentials) || !errors.Is(noUser, ErrInvalidCredentials) {
		t.Errorf("got %v and %v, both should be ErrInvalidCredentials", wrongPw, noUser)
	}
}

func TestTokenTamperingAndExpiry(t *testing.T) {
	codec := newTokenCodec([]byte("secret"), time.Hour)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec.now = func() time.Time { return base }

	token, _ := codec.Issue("alice")
	if _, err := codec.Verify(token + "x"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("tampered token: got %v, want ErrTokenInvalid", err)
	}

	other := newTokenCodec([]byte("different-secret"), time.Hour)
	if _, err := other.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("cross-secret token: got %v, want ErrTokenInvalid", err)
	}

	codec.now = func() time.Time { return base.Add(2 * time.Hour) }
	if _, err := codec.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expired token: got %v, want ErrTokenExpired", err)
	}
}
