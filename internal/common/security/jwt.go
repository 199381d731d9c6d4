package security

import (
	"errors"
	"time"

	"jobpilot/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

// TokenAuth is nil when no JWT_SECRET is configured; the API then runs open,
// which is the expected mode for a single-machine deployment.
var TokenAuth *jwtauth.JWTAuth

func InitJWT() {
	if len(config.AppConfig.JWTSecret) == 0 {
		return
	}
	TokenAuth = jwtauth.New("HS256", config.AppConfig.JWTSecret, nil)
}

func Enabled() bool {
	return TokenAuth != nil
}

// GenerateAgentToken mints a bearer token for an external agent (planner or
// local executor) calling the API.
func GenerateAgentToken(agentName, role string) (string, error) {
	if TokenAuth == nil {
		return "", errors.New("auth is not enabled (no JWT_SECRET configured)")
	}
	claims := jwt.MapClaims{
		"agent": agentName,
		"role":  role,
		"exp":   time.Now().Add(config.AppConfig.JWTExp).Unix(),
		"iat":   time.Now().Unix(),
	}
	_, tokenString, err := TokenAuth.Encode(claims)
	return tokenString, err
}

func GetAgentFromClaims(claims jwt.MapClaims) (string, error) {
	name, ok := claims["agent"].(string)
	if !ok {
		return "", errors.New("agent claim is missing or not a string")
	}
	return name, nil
}
