package utilities

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
)

// ErrNoToken is returned when the request carries neither a token cookie nor a bearer header
var ErrNoToken = errors.New("Authorization token not provided")

// ExtractToken reads the access token from the named cookie, falling back to the
// Authorization bearer header.
func ExtractToken(c *gin.Context, cookieName string) (string, error) {
	if cookieName != "" {
		if token, err := c.Cookie(cookieName); err == nil && token != "" {
			return token, nil
		}
	}
	return ExtractBearerToken(c)
}

// ExtractBearerToken reads the token of an "Authorization: Bearer <token>" header
func ExtractBearerToken(c *gin.Context) (string, error) {
	const bearerSchema = "Bearer "
	authHeader := c.GetHeader("Authorization")

	if len(authHeader) <= len(bearerSchema) || !strings.EqualFold(authHeader[:len(bearerSchema)], bearerSchema) {
		return "", ErrNoToken
	}

	return strings.TrimSpace(authHeader[len(bearerSchema):]), nil
}
