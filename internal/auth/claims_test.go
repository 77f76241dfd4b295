package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key-at-least-32-chars!"

func TestGenerateAndParseAccessToken(t *testing.T) {
	token, expires, err := GenerateAccessToken("driver", testSecret, 10*time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if until := time.Until(expires); until < 9*time.Minute || until > 10*time.Minute {
		t.Errorf("expiry in %v, want about 10m", until)
	}

	claims, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Subject != "driver" || claims.Role != RoleOperator || claims.ID == "" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestGenerateAccessToken_DefaultTTL(t *testing.T) {
	_, expires, err := GenerateAccessToken("driver", testSecret, 0)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if until := time.Until(expires); until < 14*time.Minute {
		t.Errorf("expiry in %v, want the 15m default", until)
	}
}

func TestParseToken_Rejects(t *testing.T) {
	valid, _, err := GenerateAccessToken("driver", testSecret, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	sign := func(c Claims, method jwt.SigningMethod, key any) string {
		s, err := jwt.NewWithClaims(method, c).SignedString(key)
		if err != nil {
			t.Fatalf("signing: %v", err)
		}
		return s
	}
	past := jwt.NewNumericDate(time.Now().Add(-time.Hour))
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"wrong secret", valid, "another-secret-key-at-least-32-chars"},
		{"garbage", "not.a.token", testSecret},
		{"expired", sign(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "driver", ExpiresAt: past}, Role: RoleOperator}, jwt.SigningMethodHS256, []byte(testSecret)), testSecret},
		{"no expiry", sign(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "driver"}, Role: RoleOperator}, jwt.SigningMethodHS256, []byte(testSecret)), testSecret},
		{"no subject", sign(Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}, Role: RoleOperator}, jwt.SigningMethodHS256, []byte(testSecret)), testSecret},
		{"no role", sign(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "driver", ExpiresAt: future}}, jwt.SigningMethodHS256, []byte(testSecret)), testSecret},
		{"HS512", sign(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "driver", ExpiresAt: future}, Role: RoleOperator}, jwt.SigningMethodHS512, []byte(testSecret)), testSecret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseToken(tt.token, tt.secret); !errors.Is(err, ErrTokenInvalid) {
				t.Errorf("ParseToken() = %v, want ErrTokenInvalid", err)
			}
		})
	}
}
