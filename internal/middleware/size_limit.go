package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Internmain07/I-INTERN/internal/utilities"
)

// multipartOverhead leaves room for multipart boundaries and form fields
const multipartOverhead = int64(8 * 1024)

// SizeLimit rejects bodies larger than maxBodyBytes. A declared Content-Length over the
// limit is answered with 413 right away; otherwise reading past the limit fails with
// *http.MaxBytesError, which handlers turn into 413.
func SizeLimit(maxBodyBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := maxBodyBytes + multipartOverhead
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, utilities.ErrorResponse{
				Error: "Entity too large",
			})
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
