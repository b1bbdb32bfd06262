package routes

import (
	"testing"

	"affiliatehub/internal/config"
	"affiliatehub/internal/pkg/jwt"
)

func accessToken(t *testing.T, cfg *config.Config, userID, email string) string {
	t.Helper()
	token, err := jwt.GenerateAccessToken(userID, email, "", cfg.JWT.Secret, cfg.JWT.AccessTokenMins)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return token
}
