package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	ts := TokenService{Secret: []byte("test-secret"), Issuer: "animehub", Duration: time.Hour}
	u := &User{ID: "u-1", Username: "misaka"}

	token, exp, err := ts.Sign(u)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatal("expiry is in the past")
	}

	claims, err := ts.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "u-1" || claims.Username != "misaka" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	ts := TokenService{Secret: []byte("secret-a"), Issuer: "animehub", Duration: time.Hour}
	token, _, err := ts.Sign(&User{ID: "u-1", Username: "misaka"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	other := TokenService{Secret: []byte("secret-b"), Issuer: "animehub", Duration: time.Hour}
	if _, err := other.Parse(token); err == nil {
		t.Fatal("expected parse to fail with a different secret")
	}
}
