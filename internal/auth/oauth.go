package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/Internmain07/I-INTERN/internal/config"
	"github.com/Internmain07/I-INTERN/internal/database"
	"github.com/Internmain07/I-INTERN/internal/logger"
	"github.com/Internmain07/I-INTERN/internal/model"
	"github.com/Internmain07/I-INTERN/internal/utilities"
)

// GoogleUserInfoEndpoint returns the profile of the signed in Google account
const GoogleUserInfoEndpoint = "https://www.googleapis.com/oauth2/v2/userinfo"

const oauthStateTTL = 10 * time.Minute

// NewGoogleOauthConfig builds the OAuth2 client for Google sign-in
func NewGoogleOauthConfig(cfg config.GoogleConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

type googleUserInfo struct {
	GID           string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// OauthLoginHandler struct holds the database connection and OAuth2 configuration for handling OAuth login.
type OauthLoginHandler struct {
	DB               *database.DBinstanceStruct
	OauthConfig      *oauth2.Config
	UserInfoEndpoint string
	States           StateStore
	Tokens           *TokenManager
	Cookie           config.CookieConfig
	FrontendURL      string
	Log              *zap.Logger
}

// NewOauthLoginHandler creates a new instance of OauthLoginHandler
func NewOauthLoginHandler(
	db *database.DBinstanceStruct,
	oauthConfig *oauth2.Config,
	states StateStore,
	tokens *TokenManager,
	cfg *config.Config,
	log *zap.Logger,
) *OauthLoginHandler {
	return &OauthLoginHandler{
		DB:               db,
		OauthConfig:      oauthConfig,
		UserInfoEndpoint: GoogleUserInfoEndpoint,
		States:           states,
		Tokens:           tokens,
		Cookie:           cfg.Cookie,
		FrontendURL:      cfg.FrontendURL,
		Log:              log,
	}
}

// GoogleLoginHandler redirects to the Google consent screen
// @Summary Start Google sign-in
// @Tags Auth
// @Success 307 "Redirect to Google"
// @Failure 500 {object} utilities.ErrorResponse "Failed to create state"
// @Router /auth/google/login [get]
func (h *OauthLoginHandler) GoogleLoginHandler(c *gin.Context) {
	state, err := utilities.RandomToken(16)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: "Failed to create state"})
		return
	}
	if err := h.States.Save(c.Request.Context(), state, oauthStateTTL); err != nil {
		h.Log.Error("Failed to store oauth state", zap.Error(err))
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: "Failed to create state"})
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, h.OauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline))
}

// GoogleCallbackHandler finishes Google sign-in, sets the access token cookie and
// redirects to the frontend
// @Summary Google sign-in callback
// @Tags Auth
// @Param state query string true "OAuth state"
// @Param code query string true "Authorization code from google"
// @Success 307 "Redirect to the frontend"
// @Failure 400 {object} utilities.ErrorResponse "Invalid state or code"
// @Router /auth/google/callback [get]
func (h *OauthLoginHandler) GoogleCallbackHandler(c *gin.Context) {
	ctx := c.Request.Context()

	ok, err := h.States.Consume(ctx, c.Query("state"))
	if err != nil {
		h.Log.Error("Failed to read oauth state", zap.Error(err))
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: "Failed to verify state"})
		return
	}
	if !ok {
		logger.LogAuthAttempt("warning", "Google", "Fail", "", "Invalid state")
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Invalid or expired state"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "No authorization code provided"})
		return
	}

	uInfo, err := h.getUserInfo(ctx, code)
	if err != nil {
		logger.LogAuthAttempt("warning", "Google", "Fail", "", err.Error())
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	user, err := h.loginOrRegisterUser(uInfo)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}
	if user.IsSuspended || !user.IsActive {
		logger.LogAuthAttempt("warning", "Google", "Fail", user.Email, "Suspended account")
		c.Redirect(http.StatusTemporaryRedirect, h.frontendRedirect(url.Values{"error": {"suspended"}}))
		return
	}

	accessToken, _, err := h.Tokens.Generate(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: "Failed to generate access token"})
		return
	}

	logger.LogAuthAttempt("info", "Google", "Success", user.Email, "Login")
	SetTokenCookie(c, h.Cookie, accessToken)
	c.Redirect(http.StatusTemporaryRedirect, h.frontendRedirect(nil))
}

func (h *OauthLoginHandler) frontendRedirect(query url.Values) string {
	target := strings.TrimRight(h.FrontendURL, "/") + "/auth/callback"
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return target
}

func (h *OauthLoginHandler) getUserInfo(ctx context.Context, code string) (googleUserInfo, error) {
	var uInfo googleUserInfo

	token, err := h.OauthConfig.Exchange(ctx, code)
	if err != nil {
		return uInfo, fmt.Errorf("Failed to receive token: %w", err)
	}

	client := h.OauthConfig.Client(ctx, token)
	resp, err := client.Get(h.UserInfoEndpoint)
	if err != nil {
		return uInfo, fmt.Errorf("Failed to fetch user information: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return uInfo, fmt.Errorf("Failed to fetch user information: status=%d body=%s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(&uInfo); err != nil {
		return uInfo, fmt.Errorf("Failed to decode user info: %w", err)
	}
	if uInfo.GID == "" || uInfo.Email == "" {
		return uInfo, errors.New("Google account has no id or email")
	}
	return uInfo, nil
}

// loginOrRegisterUser finds the account linked to the Google id, links an existing
// account with the same email, or registers a new intern.
func (h *OauthLoginHandler) loginOrRegisterUser(uInfo googleUserInfo) (model.User, error) {
	var user model.User
	email := normalizeEmail(uInfo.Email)

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("google_id = ?", uInfo.GID).First(&user).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		err = tx.Where("email = ?", email).First(&user).Error
		switch {
		case err == nil:
			updates := map[string]interface{}{"google_id": uInfo.GID}
			if uInfo.VerifiedEmail {
				updates["email_verified"] = true
			}
			return tx.Model(&user).Updates(updates).Error
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		gid := uInfo.GID
		user = model.User{
			Email:         email,
			GoogleID:      &gid,
			Role:          model.RoleIntern,
			FullName:      uInfo.Name,
			IsActive:      true,
			EmailVerified: uInfo.VerifiedEmail,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Omit("User").Create(&model.StudentProfile{UserID: user.ID}).Error
	})
	if err != nil {
		h.Log.Error("Google login failed", zap.String("email", email), zap.Error(err))
		return user, fmt.Errorf("Database error: %w", err)
	}
	return user, nil
}
