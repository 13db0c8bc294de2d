package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Internmain07/I-INTERN/internal/model"
	"github.com/Internmain07/I-INTERN/internal/utilities"
)

// CheckSuspension blocks suspended or deactivated accounts whose token is still valid
func CheckSuspension() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, err := utilities.ExtractUser(ctx)
		if err != nil {
			utilities.AbortWithError(ctx, err)
			return
		}

		// Admins cannot be suspended
		if user.Role == model.RoleAdmin {
			ctx.Next()
			return
		}

		if user.IsSuspended || !user.IsActive {
			ctx.AbortWithStatusJSON(http.StatusForbidden, utilities.ErrorResponse{
				Error: "Your account has been suspended",
			})
			return
		}

		ctx.Next()
	}
}
