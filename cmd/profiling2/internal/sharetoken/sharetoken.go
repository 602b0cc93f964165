// Package sharetoken mints and verifies short-lived signed tokens that
// carry a single recording's encounter metadata, so the CLI can hand a
// decoded recording's summary to the (external, out-of-scope) web
// dashboard without re-uploading the full saved-variables blob.
package sharetoken

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/emallson/profiling2-decode/internal/schema"
)

// TTL is how long a minted share token remains valid.
const TTL = 15 * time.Minute

// claims is the JWT payload: just enough of an Encounter to render a
// summary card without the full decoded recording.
type claims struct {
	Kind          string  `json:"kind"`
	StartTime     uint64  `json:"startTime"`
	EndTime       uint64  `json:"endTime"`
	EncounterName string  `json:"encounterName,omitempty"`
	MapID         *uint64 `json:"mapId,omitempty"`
	jwt.RegisteredClaims
}

// Mint signs a token describing enc's metadata using secret as the HMAC
// key, valid for TTL from now.
func Mint(enc *schema.Encounter, secret []byte, now time.Time) (string, error) {
	c := claims{
		Kind:          string(enc.Kind),
		StartTime:     enc.StartTime,
		EndTime:       enc.EndTime,
		EncounterName: enc.EncounterName,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TTL)),
		},
	}
	if enc.Kind == schema.EncounterDungeon {
		id := enc.MapID
		c.MapID = &id
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign share token: %w", err)
	}
	return signed, nil
}

// Verify checks tokenString's signature and expiry against secret and
// returns the encounter metadata it carries.
func Verify(tokenString string, secret []byte) (*schema.Encounter, error) {
	var c claims
	_, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("verify share token: %w", err)
	}

	enc := &schema.Encounter{
		Kind:          schema.EncounterKind(c.Kind),
		StartTime:     c.StartTime,
		EndTime:       c.EndTime,
		EncounterName: c.EncounterName,
	}
	if c.MapID != nil {
		enc.MapID = *c.MapID
	}
	return enc, nil
}
