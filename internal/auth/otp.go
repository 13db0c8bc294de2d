package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Internmain07/I-INTERN/internal/apperror"
	"github.com/Internmain07/I-INTERN/internal/logger"
	"github.com/Internmain07/I-INTERN/internal/model"
	"github.com/Internmain07/I-INTERN/internal/utilities"
)

// Response messages that must not reveal whether an email is registered
const (
	verificationSentMessage = "If the email is registered, a verification code has been sent"
	resetSentMessage        = "If the email is registered, a password reset code has been sent"
)

var errInvalidOTP = apperror.Validation("Invalid or expired code")

type emailInfo struct {
	Email string `json:"email" binding:"required,email"`
}

type otpInfo struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,otp"`
}

type resetPasswordInfo struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required,otp"`
	NewPassword string `json:"new_password" binding:"required,strongpassword"`
}

// newOTP returns a fresh code, its hash and its expiry
func newOTP(ttl time.Duration) (string, string, time.Time, error) {
	otp, err := utilities.GenerateOTP()
	if err != nil {
		return "", "", time.Time{}, apperror.Internal(err, "Failed to generate code")
	}
	hashed, err := utilities.HashPassword(otp)
	if err != nil {
		return "", "", time.Time{}, apperror.Internal(err, "Failed to hash code")
	}
	return otp, hashed, time.Now().UTC().Add(ttl), nil
}

func (h *LocalAuthHandler) assignVerificationOTP(user *model.User) (string, error) {
	otp, hashed, expires, err := newOTP(h.EmailOTPTTL)
	if err != nil {
		return "", err
	}
	user.EmailVerificationOTP = &hashed
	user.EmailVerificationOTPExpires = &expires
	return otp, nil
}

func checkOTP(hash *string, expires *time.Time, otp string) error {
	if hash == nil || expires == nil || time.Now().After(*expires) {
		return errInvalidOTP
	}
	if !utilities.VerifyPassword(*hash, otp) {
		return errInvalidOTP
	}
	return nil
}

func (h *LocalAuthHandler) findByEmail(email string) (*model.User, error) {
	var user model.User
	err := h.DB.Where("email = ?", normalizeEmail(email)).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SendVerificationHandler sends a new email verification code
// @Summary Send the email verification code
// @Tags Auth
// @Accept json
// @Produce json
// @Param emailInfo body emailInfo true "Email"
// @Success 200 {object} utilities.MessageResponse
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body"
// @Router /auth/send-verification [post]
func (h *LocalAuthHandler) SendVerificationHandler(c *gin.Context) {
	var info emailInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	user, err := h.findByEmail(info.Email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			utilities.WriteError(c, apperror.FromDB(err, "User not found"))
			return
		}
		c.JSON(http.StatusOK, utilities.MessageResponse{Message: verificationSentMessage})
		return
	}

	if user.EmailVerified {
		c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Email already verified"})
		return
	}

	otp, err := h.assignVerificationOTP(user)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}
	if err := h.DB.Model(user).Updates(map[string]interface{}{
		"email_verification_otp":         user.EmailVerificationOTP,
		"email_verification_otp_expires": user.EmailVerificationOTPExpires,
	}).Error; err != nil {
		utilities.WriteError(c, apperror.FromDB(err, "User not found"))
		return
	}

	if err := h.Mailer.SendEmailVerification(c.Request.Context(), user.Email, otp, int(h.EmailOTPTTL.Minutes())); err != nil {
		h.Log.Warn("Failed to send verification email", zap.String("email", user.Email), zap.Error(err))
	}
	c.JSON(http.StatusOK, utilities.MessageResponse{Message: verificationSentMessage})
}

// VerifyEmailHandler confirms the email with the code sent to it
// @Summary Verify email address
// @Tags Auth
// @Accept json
// @Produce json
// @Param otpInfo body otpInfo true "Email and code"
// @Success 200 {object} utilities.MessageResponse
// @Failure 400 {object} utilities.ErrorResponse "Invalid or expired code"
// @Router /auth/verify-email [post]
func (h *LocalAuthHandler) VerifyEmailHandler(c *gin.Context) {
	var info otpInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	user, err := h.findByEmail(info.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = errInvalidOTP
		}
		utilities.WriteError(c, apperror.FromDB(err, "User not found"))
		return
	}

	if user.EmailVerified {
		c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Email already verified"})
		return
	}

	if err := checkOTP(user.EmailVerificationOTP, user.EmailVerificationOTPExpires, info.OTP); err != nil {
		logger.LogAuthAttempt("warning", "OTP", "Fail", user.Email, "Email verification")
		utilities.WriteError(c, err)
		return
	}

	if err := h.DB.Model(user).Updates(map[string]interface{}{
		"email_verified":                 true,
		"email_verification_otp":         nil,
		"email_verification_otp_expires": nil,
	}).Error; err != nil {
		utilities.WriteError(c, apperror.FromDB(err, "User not found"))
		return
	}

	logger.LogAuthAttempt("info", "OTP", "Success", user.Email, "Email verification")
	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Email verified"})
}

// ForgotPasswordHandler sends a password reset code
// @Summary Request a password reset code
// @Tags Auth
// @Accept json
// @Produce json
// @Param emailInfo body emailInfo true "Email"
// @Success 200 {object} utilities.MessageResponse
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body"
// @Router /auth/forgot-password [post]
func (h *LocalAuthHandler) ForgotPasswordHandler(c *gin.Context) {
	var info emailInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	user, err := h.findByEmail(info.Email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			utilities.WriteError(c, apperror.FromDB(err, "User not found"))
			return
		}
		c.JSON(http.StatusOK, utilities.MessageResponse{Message: resetSentMessage})
		return
	}

	otp, hashed, expires, err := newOTP(h.ResetOTPTTL)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}
	if err := h.DB.Model(user).Updates(map[string]interface{}{
		"reset_otp":         hashed,
		"reset_otp_expires": expires,
	}).Error; err != nil {
		utilities.WriteError(c, apperror.FromDB(err, "User not found"))
		return
	}

	if err := h.Mailer.SendPasswordReset(c.Request.Context(), user.Email, otp, int(h.ResetOTPTTL.Minutes())); err != nil {
		h.Log.Warn("Failed to send password reset email", zap.String("email", user.Email), zap.Error(err))
	}
	c.JSON(http.StatusOK, utilities.MessageResponse{Message: resetSentMessage})
}

func (h *LocalAuthHandler) checkResetOTP(email, otp string) (*model.User, error) {
	user, err := h.findByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInvalidOTP
		}
		return nil, apperror.FromDB(err, "User not found")
	}
	if err := checkOTP(user.ResetOTP, user.ResetOTPExpires, otp); err != nil {
		logger.LogAuthAttempt("warning", "OTP", "Fail", user.Email, "Password reset")
		return nil, err
	}
	return user, nil
}

// VerifyResetOTPHandler checks a password reset code without consuming it
// @Summary Check a password reset code
// @Tags Auth
// @Accept json
// @Produce json
// @Param otpInfo body otpInfo true "Email and code"
// @Success 200 {object} utilities.MessageResponse
// @Failure 400 {object} utilities.ErrorResponse "Invalid or expired code"
// @Router /auth/verify-reset-otp [post]
func (h *LocalAuthHandler) VerifyResetOTPHandler(c *gin.Context) {
	var info otpInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	if _, err := h.checkResetOTP(info.Email, info.OTP); err != nil {
		utilities.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Code verified"})
}

// ResetPasswordHandler sets a new password using a valid reset code
// @Summary Reset password
// @Tags Auth
// @Accept json
// @Produce json
// @Param resetPasswordInfo body resetPasswordInfo true "Email, code and new password"
// @Success 200 {object} utilities.MessageResponse
// @Failure 400 {object} utilities.ErrorResponse "Invalid or expired code or weak password"
// @Router /auth/reset-password [post]
func (h *LocalAuthHandler) ResetPasswordHandler(c *gin.Context) {
	var info resetPasswordInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	user, err := h.checkResetOTP(info.Email, info.OTP)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	hashedPassword, err := utilities.HashPassword(info.NewPassword)
	if err != nil {
		utilities.WriteError(c, apperror.Internal(err, "Failed to hash password"))
		return
	}

	if err := h.DB.Model(user).Updates(map[string]interface{}{
		"password":          hashedPassword,
		"reset_otp":         nil,
		"reset_otp_expires": nil,
	}).Error; err != nil {
		utilities.WriteError(c, apperror.FromDB(err, "User not found"))
		return
	}

	logger.LogAuthAttempt("info", "OTP", "Success", user.Email, "Password reset")
	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Password has been reset"})
}
