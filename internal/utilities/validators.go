package utilities

import (
	"errors"
	"regexp"
	"sync"

	"github.com/Internmain07/I-INTERN/internal/match"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// OTPPattern matches a 6 digit one time password
var OTPPattern = regexp.MustCompile(`^[0-9]{6}$`)

var registerOnce sync.Once

// ValidateOTP validates a 6 digit one time password
func ValidateOTP(fl validator.FieldLevel) bool {
	return OTPPattern.MatchString(fl.Field().String())
}

// ValidateStrongPassword validates the strong password rule
func ValidateStrongPassword(fl validator.FieldLevel) bool {
	return IsStrongPassword(fl.Field().String())
}

// ValidateSkillLevel accepts beginner, intermediate or advanced in any case
func ValidateSkillLevel(fl validator.FieldLevel) bool {
	return match.IsLevelName(fl.Field().String())
}

// RegisterValidators registers the custom binding validators with gin. Safe to call repeatedly.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		err = errors.Join(
			v.RegisterValidation("otp", ValidateOTP),
			v.RegisterValidation("strongpassword", ValidateStrongPassword),
			v.RegisterValidation("skilllevel", ValidateSkillLevel),
		)
	})
	return err
}
