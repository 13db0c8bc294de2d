// Package auth contains handler relate to log in and create user account
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Internmain07/I-INTERN/internal/apperror"
	"github.com/Internmain07/I-INTERN/internal/config"
	"github.com/Internmain07/I-INTERN/internal/database"
	"github.com/Internmain07/I-INTERN/internal/logger"
	"github.com/Internmain07/I-INTERN/internal/model"
	"github.com/Internmain07/I-INTERN/internal/utilities"
)

// AccountMailer sends the account related emails
type AccountMailer interface {
	SendEmailVerification(ctx context.Context, email, otp string, expiresInMinutes int) error
	SendPasswordReset(ctx context.Context, email, otp string, expiresInMinutes int) error
	SendWelcome(ctx context.Context, user model.User) error
}

// LocalAuthHandler holds the dependencies of the email and password handlers
type LocalAuthHandler struct {
	DB     *database.DBinstanceStruct
	Tokens *TokenManager
	Mailer AccountMailer
	Log    *zap.Logger

	Cookie             config.CookieConfig
	BypassVerification bool
	EmailOTPTTL        time.Duration
	ResetOTPTTL        time.Duration
}

// NewLocalAuthHandler creates a LocalAuthHandler and registers the custom binding validators
func NewLocalAuthHandler(db *database.DBinstanceStruct, tokens *TokenManager, mailer AccountMailer, cfg *config.Config, log *zap.Logger) *LocalAuthHandler {
	if err := utilities.RegisterValidators(); err != nil {
		log.Error("Failed to register validators", zap.Error(err))
	}
	return &LocalAuthHandler{
		DB:                 db,
		Tokens:             tokens,
		Mailer:             mailer,
		Log:                log,
		Cookie:             cfg.Cookie,
		BypassVerification: cfg.BypassVerification,
		EmailOTPTTL:        cfg.EmailOTPTTL,
		ResetOTPTTL:        cfg.ResetOTPTTL,
	}
}

type registerInfo struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,strongpassword"`
	Role        string `json:"role" binding:"required,oneof=intern company"`
	FullName    string `json:"full_name" binding:"required"`
	CompanyName string `json:"company_name"`
}

type loginInfo struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterHandler creates an intern or company account with email and password
// @Summary Register with email and password
// @Description Creates the account and its profile, sends the email verification code and sets the access token cookie
// @Tags Auth
// @Accept json
// @Produce json
// @Param registerInfo body registerInfo true "Account details"
// @Success 201 {object} model.AuthResponse "Register success"
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body"
// @Failure 409 {object} utilities.ErrorResponse "Email already registered"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /auth/register [post]
func (h *LocalAuthHandler) RegisterHandler(c *gin.Context) {
	var info registerInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	hashedPassword, err := utilities.HashPassword(info.Password)
	if err != nil {
		utilities.WriteError(c, apperror.Internal(err, "Failed to hash password"))
		return
	}

	user := model.User{
		Email:         normalizeEmail(info.Email),
		Password:      hashedPassword,
		Role:          info.Role,
		FullName:      strings.TrimSpace(info.FullName),
		IsActive:      true,
		EmailVerified: h.BypassVerification,
	}

	var otp string
	if !h.BypassVerification {
		if otp, err = h.assignVerificationOTP(&user); err != nil {
			utilities.WriteError(c, err)
			return
		}
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperror.Conflict("Email already registered")
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		switch user.Role {
		case model.RoleCompany:
			companyName := strings.TrimSpace(info.CompanyName)
			if companyName == "" {
				companyName = user.FullName
			}
			company := model.EmployerProfile{
				UserID:              user.ID,
				EditableCompanyInfo: model.EditableCompanyInfo{CompanyName: companyName},
				VerifiedStatus:      model.StatusPending,
			}
			if h.BypassVerification {
				company.VerifiedStatus = model.StatusVerified
			}
			return tx.Omit("User").Create(&company).Error
		default:
			return tx.Omit("User").Create(&model.StudentProfile{UserID: user.ID}).Error
		}
	})
	if err != nil {
		err = apperror.FromDB(err, "User not found")
		if apperror.Is(err, apperror.KindConflict) {
			err = apperror.Conflict("Email already registered")
		}
		utilities.WriteError(c, err)
		return
	}

	ctx := c.Request.Context()
	if otp != "" {
		if err := h.Mailer.SendEmailVerification(ctx, user.Email, otp, int(h.EmailOTPTTL.Minutes())); err != nil {
			h.Log.Warn("Failed to send verification email", zap.String("email", user.Email), zap.Error(err))
		}
	}
	if err := h.Mailer.SendWelcome(ctx, user); err != nil {
		h.Log.Warn("Failed to send welcome email", zap.String("email", user.Email), zap.Error(err))
	}

	logger.LogAuthAttempt("info", "Local", "Success", user.Email, "Register")
	h.respondWithToken(c, http.StatusCreated, user)
}

// LoginHandler authenticates with email and password
// @Summary Log in with email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param loginInfo body loginInfo true "Credentials"
// @Success 200 {object} model.AuthResponse "Login success"
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body"
// @Failure 401 {object} utilities.ErrorResponse "Invalid email or password"
// @Failure 403 {object} utilities.ErrorResponse "Account suspended"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /auth/login [post]
func (h *LocalAuthHandler) LoginHandler(c *gin.Context) {
	var info loginInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	email := normalizeEmail(info.Email)
	var user model.User
	err := h.DB.Where("email = ?", email).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		logger.LogAuthAttempt("warning", "Local", "Fail", email, "Unknown email")
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: "Invalid email or password"})
		return
	case err != nil:
		utilities.WriteError(c, apperror.FromDB(err, "User not found"))
		return
	}

	if user.Password == "" || !utilities.VerifyPassword(user.Password, info.Password) {
		logger.LogAuthAttempt("warning", "Local", "Fail", email, "Wrong password")
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: "Invalid email or password"})
		return
	}

	if user.IsSuspended || !user.IsActive {
		logger.LogAuthAttempt("warning", "Local", "Fail", email, "Suspended account")
		c.JSON(http.StatusForbidden, utilities.ErrorResponse{Error: "Your account has been suspended"})
		return
	}

	logger.LogAuthAttempt("info", "Local", "Success", email, "Login")
	h.respondWithToken(c, http.StatusOK, user)
}

// MeHandler returns the authenticated user
// @Summary Get the current user
// @Tags Auth
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} model.User
// @Failure 401 {object} utilities.ErrorResponse "Not authenticated"
// @Router /auth/me [get]
func (h *LocalAuthHandler) MeHandler(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *LocalAuthHandler) respondWithToken(c *gin.Context, status int, user model.User) {
	accessToken, _, err := h.Tokens.Generate(user.ID)
	if err != nil {
		utilities.WriteError(c, apperror.Internal(err, "Failed to generate access token"))
		return
	}

	SetTokenCookie(c, h.Cookie, accessToken)

	resp := model.AuthResponse{User: user}
	resp.SetAccessToken(accessToken)
	c.JSON(status, resp)
}
