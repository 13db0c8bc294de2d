package internship

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Internmain07/I-INTERN/internal/apperror"
	"github.com/Internmain07/I-INTERN/internal/model"
	"github.com/Internmain07/I-INTERN/internal/utilities"
)

// LandingStats are the public headline numbers of the platform
type LandingStats struct {
	InternshipsPosted   int64 `json:"internships_posted"`
	CompaniesRegistered int64 `json:"companies_registered"`
	StudentsRegistered  int64 `json:"students_registered"`
}

// GetLandingStats counts internships, companies and interns for the landing page
// @Summary Public platform statistics
// @Tags Internship
// @Produce json
// @Success 200 {object} LandingStats
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /stats [get]
func (ic *InternshipController) GetLandingStats(c *gin.Context) {
	var stats LandingStats
	if err := ic.DB.Model(&model.Internship{}).Count(&stats.InternshipsPosted).Error; err != nil {
		utilities.WriteError(c, apperror.Internal(err, "Failed to count internships"))
		return
	}
	if err := ic.DB.Model(&model.EmployerProfile{}).Count(&stats.CompaniesRegistered).Error; err != nil {
		utilities.WriteError(c, apperror.Internal(err, "Failed to count companies"))
		return
	}
	if err := ic.DB.Model(&model.User{}).
		Where("role = ?", model.RoleIntern).
		Count(&stats.StudentsRegistered).Error; err != nil {
		utilities.WriteError(c, apperror.Internal(err, "Failed to count interns"))
		return
	}

	c.JSON(http.StatusOK, stats)
}
