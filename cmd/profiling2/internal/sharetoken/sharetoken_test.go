package sharetoken

import (
	"testing"
	"time"

	"github.com/emallson/profiling2-decode/internal/schema"
)

func TestMintVerifyRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	enc := &schema.Encounter{
		Kind:      schema.EncounterDungeon,
		StartTime: 100,
		EndTime:   200,
		MapID:     42,
	}

	token, err := Mint(enc, secret, time.Unix(1700000000, 0))
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	got, err := Verify(token, secret)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.Kind != enc.Kind || got.StartTime != enc.StartTime || got.MapID != enc.MapID {
		t.Fatalf("got %+v, want %+v", got, enc)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	enc := &schema.Encounter{Kind: schema.EncounterManual, StartTime: 1, EndTime: 2}
	token, err := Mint(enc, []byte("secret-a"), time.Unix(1700000000, 0))
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if _, err := Verify(token, []byte("secret-b")); err == nil {
		t.Fatal("expected verification failure with wrong secret")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	secret := []byte("test-secret")
	enc := &schema.Encounter{Kind: schema.EncounterManual, StartTime: 1, EndTime: 2}
	token, err := Mint(enc, secret, time.Unix(1700000000, 0).Add(-2*TTL))
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if _, err := Verify(token, secret); err == nil {
		t.Fatal("expected verification failure for an expired token")
	}
}
