package tokens

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/memeboard/memeboard/internal/config"
	"github.com/memeboard/memeboard/internal/models"
)

func TestGenerateSessionToken_RoundTrip(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret-32-bytes-should-be-long-enough"

	p := models.Principal{Username: "alice", Role: models.RoleUser}
	tokenStr, err := GenerateSessionToken(cfg, p, 2*time.Minute)
	if err != nil {
		t.Fatalf("GenerateSessionToken error: %v", err)
	}

	got, err := ParseSessionToken(cfg, tokenStr)
	if err != nil {
		t.Fatalf("ParseSessionToken error: %v", err)
	}
	if got.Username != "alice" {
		t.Fatalf("unexpected username: got=%q want=%q", got.Username, "alice")
	}
	if got.IsAdmin() {
		t.Fatalf("regular user token must not carry admin capability")
	}
}

func TestGenerateSessionToken_AdminClaim(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "another-secret-32-bytes-longgggg"

	tokenStr, err := GenerateSessionToken(cfg, models.Principal{Username: "root", Role: models.RoleAdmin}, time.Minute)
	if err != nil {
		t.Fatalf("GenerateSessionToken error: %v", err)
	}
	got, err := ParseSessionToken(cfg, tokenStr)
	if err != nil {
		t.Fatalf("ParseSessionToken error: %v", err)
	}
	if !got.IsAdmin() {
		t.Fatalf("expected admin capability to round-trip")
	}
}

func TestParseSessionToken_Expired(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "expiry-secret-32-bytes-xxxxxxxxxx"
	tokenStr, err := GenerateSessionToken(cfg, models.Principal{Username: "u2"}, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateSessionToken error: %v", err)
	}
	if _, err := ParseSessionToken(cfg, tokenStr); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestParseSessionToken_WrongSecretFails(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "secret-one-32-bytes-xxxxxxxxxxxxxxxx"
	tokenStr, err := GenerateSessionToken(cfg, models.Principal{Username: "u3"}, 2*time.Minute)
	if err != nil {
		t.Fatalf("GenerateSessionToken error: %v", err)
	}
	other := &config.Config{}
	other.JWT.Secret = "different-secret-xxxxxxxxxxxxxxxx"
	if _, err := ParseSessionToken(other, tokenStr); err == nil {
		t.Fatalf("expected parse to fail with wrong secret")
	}
}

func TestParseSessionToken_Malformed(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "x"
	if _, err := ParseSessionToken(cfg, "not.a.jwt"); err == nil {
		t.Fatalf("expected parse to fail for malformed token")
	}
}

// Rejected when alg=none (unsigned token)
func TestParseSessionToken_AlgNoneRejected(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "x"
	headerEnc := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	payloadEnc := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"u-none","exp":9999999999}`))
	tok := headerEnc + "." + payloadEnc + "."
	if _, err := ParseSessionToken(cfg, tok); err == nil {
		t.Fatalf("expected parse to reject alg=none token")
	}
}

// Tampering with payload must fail signature verification
func TestParseSessionToken_TamperedPayload(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "tamper-test-secret-32-bytes-xxxxxxx"
	tokenStr, err := GenerateSessionToken(cfg, models.Principal{Username: "user-t"}, 5*time.Minute)
	if err != nil {
		t.Fatalf("GenerateSessionToken error: %v", err)
	}
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token parts")
	}
	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	payloadStr := strings.Replace(string(payloadBytes), "user-t", "attacker", 1)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(payloadStr))
	if _, err := ParseSessionToken(cfg, strings.Join(parts, ".")); err == nil {
		t.Fatalf("expected signature verification to fail for tampered token")
	}
}
