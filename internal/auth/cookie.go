package auth

import (
	"github.com/Internmain07/I-INTERN/internal/config"
	"github.com/gin-gonic/gin"
)

// SetTokenCookie stores the access token in the configured HttpOnly cookie
func SetTokenCookie(c *gin.Context, cfg config.CookieConfig, token string) {
	c.SetSameSite(cfg.SameSite)
	c.SetCookie(cfg.Name, token, cfg.MaxAge, "/", cfg.Domain, cfg.Secure, cfg.HTTPOnly)
}

// ClearTokenCookie expires the access token cookie
func ClearTokenCookie(c *gin.Context, cfg config.CookieConfig) {
	c.SetSameSite(cfg.SameSite)
	c.SetCookie(cfg.Name, "", -1, "/", cfg.Domain, cfg.Secure, cfg.HTTPOnly)
}
