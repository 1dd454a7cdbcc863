package net

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// TicketVerifier validates HS256 join tickets minted by the platform/lobby.
// A ticket binds a connection to a durable player identity; the game server
// never mints tickets itself.
type TicketVerifier struct {
	secret []byte
}

func NewTicketVerifier(secret string) *TicketVerifier {
	return &TicketVerifier{secret: []byte(secret)}
}

// Verify parses and validates a ticket, returning the player identity and
// display name from its claims.
func (v *TicketVerifier) Verify(tokenStr string) (int64, string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return 0, "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, "", fmt.Errorf("invalid ticket")
	}

	pid, ok := claims["pid"].(float64)
	if !ok || pid <= 0 {
		return 0, "", fmt.Errorf("invalid ticket claims")
	}
	name, ok := claims["name"].(string)
	if !ok || name == "" {
		return 0, "", fmt.Errorf("invalid ticket claims")
	}

	return int64(pid), name, nil
}
