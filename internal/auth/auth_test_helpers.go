package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Internmain07/I-INTERN/internal/config"
	"github.com/Internmain07/I-INTERN/internal/database"
	"github.com/Internmain07/I-INTERN/internal/model"
	"github.com/Internmain07/I-INTERN/internal/utilities"
)

// TestTokens signs the tokens of every test that logs in through GetAccessToken
var TestTokens = NewTokenManager("test-secret-key", time.Hour)

// TestConfig returns the configuration the auth handlers use in tests
func TestConfig() *config.Config {
	return &config.Config{
		FrontendURL:    "http://frontend.test",
		SecretKey:      "test-secret-key",
		AccessTokenTTL: time.Hour,
		Cookie: config.CookieConfig{
			Name:     "access_token",
			HTTPOnly: true,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   3600,
		},
		EmailOTPTTL: 10 * time.Minute,
		ResetOTPTTL: 15 * time.Minute,
	}
}

// RecordingMailer keeps the codes it was asked to send
type RecordingMailer struct {
	mu           sync.Mutex
	Verification map[string]string
	Reset        map[string]string
	Welcomed     []string
}

// NewRecordingMailer creates an empty RecordingMailer
func NewRecordingMailer() *RecordingMailer {
	return &RecordingMailer{
		Verification: map[string]string{},
		Reset:        map[string]string{},
	}
}

// SendEmailVerification implements AccountMailer
func (m *RecordingMailer) SendEmailVerification(_ context.Context, email, otp string, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Verification[email] = otp
	return nil
}

// SendPasswordReset implements AccountMailer
func (m *RecordingMailer) SendPasswordReset(_ context.Context, email, otp string, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reset[email] = otp
	return nil
}

// SendWelcome implements AccountMailer
func (m *RecordingMailer) SendWelcome(_ context.Context, user model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Welcomed = append(m.Welcomed, user.Email)
	return nil
}

// GetAccessToken is a helper function to obtain an access token for a user by simulating a login API call.
// It takes the testing object, database connection, email, and password as parameters.
// It returns the access token as a string and any error encountered during the process.
func GetAccessToken(
	t *testing.T,
	db *database.DBinstanceStruct,
	email string,
	password string,
) (string, error) {
	t.Helper()
	handler := NewLocalAuthHandler(db, TestTokens, NewRecordingMailer(), TestConfig(), zap.NewNop())
	rec, resp, err := utilities.SimulateAPICall(handler.LoginHandler, "/auth/login", http.MethodPost, map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", err
	}
	if rec.Code != http.StatusOK {
		return "", fmt.Errorf("login Failed: status %d, body: %s", rec.Code, rec.Body.String())
	}
	token, ok := resp["access_token"].(string)
	if !ok {
		return "", fmt.Errorf("login Failed: no access_token in response: %s", rec.Body.String())
	}
	return token, nil
}
