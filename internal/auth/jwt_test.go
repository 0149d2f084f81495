package auth

import (
	"errors"
	"testing"

	"wastetracker/internal/models"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestGenerateAndParseToken(t *testing.T) {
	user := &models.User{ID: 3, Email: "op@example.com", Role: models.RoleOperator}

	token, err := GenerateToken(testSecret, user)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := ParseToken(testSecret, token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if claims.UserID != 3 || claims.Email != "op@example.com" || claims.Role != models.RoleOperator {
		t.Errorf("claims = %+v", claims)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != TokenTTL {
		t.Errorf("token lifetime = %s, want %s", got, TokenTTL)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, _ := GenerateToken(testSecret, &models.User{ID: 1, Role: models.RoleAdmin})

	if _, err := ParseToken("another-secret-another-secret-123", token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("error = %v, want ErrInvalidToken", err)
	}
	if _, err := ParseToken(testSecret, "not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage token error = %v, want ErrInvalidToken", err)
	}
}
