package internship

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Internmain07/I-INTERN/internal/apperror"
	"github.com/Internmain07/I-INTERN/internal/lifecycle"
	"github.com/Internmain07/I-INTERN/internal/model"
	"github.com/Internmain07/I-INTERN/internal/utilities"
)

// trendMonths is how many calendar months the monthly trend covers, current included
const trendMonths = 6

// DashboardStats summarizes a company's postings and applicants
type DashboardStats struct {
	TotalInternships  int64            `json:"total_internships"`
	ActiveInternships int64            `json:"active_internships"`
	TotalApplicants   int64            `json:"total_applicants"`
	TotalHires        int64            `json:"total_hires"`
	PendingReviews    int64            `json:"pending_reviews"`
	ByStatus          map[string]int64 `json:"by_status"`
}

// HiringFunnel counts applications that reached each stage
type HiringFunnel struct {
	Applied  int64 `json:"applied"`
	Reviewed int64 `json:"reviewed"`
	Offered  int64 `json:"offered"`
	Accepted int64 `json:"accepted"`
	Hired    int64 `json:"hired"`
}

// MonthlyApplications is one month of the application trend
type MonthlyApplications struct {
	Month             string `json:"month"`
	Year              int    `json:"year"`
	TotalApplications int64  `json:"total_applications"`
	Hired             int64  `json:"hired"`
	Rejected          int64  `json:"rejected"`
}

type statusCount struct {
	Status string
	Count  int64
}

// countByStatus folds raw status counts into canonical statuses
func countByStatus(rows []statusCount) map[lifecycle.Status]int64 {
	counts := map[lifecycle.Status]int64{}
	for _, row := range rows {
		counts[lifecycle.Canonical(row.Status)] += row.Count
	}
	return counts
}

func sumOf(counts map[lifecycle.Status]int64, statuses ...lifecycle.Status) int64 {
	var n int64
	for _, s := range statuses {
		n += counts[s]
	}
	return n
}

func total(counts map[lifecycle.Status]int64) int64 {
	var n int64
	for _, c := range counts {
		n += c
	}
	return n
}

// funnelFrom computes the stages from canonical status counts. A stage includes
// every application that went past it; rejected ones only count as applied.
func funnelFrom(counts map[lifecycle.Status]int64) HiringFunnel {
	return HiringFunnel{
		Applied: total(counts),
		Reviewed: sumOf(counts, lifecycle.StatusReviewed, lifecycle.StatusOffered,
			lifecycle.StatusAccepted, lifecycle.StatusDeclined, lifecycle.StatusHired),
		Offered:  sumOf(counts, lifecycle.StatusOffered, lifecycle.StatusAccepted, lifecycle.StatusDeclined, lifecycle.StatusHired),
		Accepted: sumOf(counts, lifecycle.StatusAccepted, lifecycle.StatusHired),
		Hired:    counts[lifecycle.StatusHired],
	}
}

type datedStatus struct {
	ApplicationDate time.Time
	Status          string
}

func trendStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(trendMonths - 1), 0)
}

// monthlyTrend buckets applications into the last trendMonths calendar months,
// oldest first. Months without applications are reported with zero counts.
func monthlyTrend(now time.Time, rows []datedStatus) []MonthlyApplications {
	start := trendStart(now)
	months := make([]MonthlyApplications, trendMonths)
	for i := range months {
		m := start.AddDate(0, i, 0)
		months[i] = MonthlyApplications{Month: m.Format("Jan"), Year: m.Year()}
	}

	for _, row := range rows {
		d := row.ApplicationDate.In(now.Location())
		idx := (d.Year()-start.Year())*12 + int(d.Month()) - int(start.Month())
		if idx < 0 || idx >= trendMonths {
			continue
		}
		months[idx].TotalApplications++
		switch lifecycle.Canonical(row.Status) {
		case lifecycle.StatusAccepted, lifecycle.StatusHired:
			months[idx].Hired++
		case lifecycle.StatusRejected:
			months[idx].Rejected++
		}
	}
	return months
}

// companyApplications is the query over every application to the company's internships
func (ic *InternshipController) companyApplications(companyID uuid.UUID) *gorm.DB {
	return ic.DB.Model(&model.Application{}).
		Joins("JOIN internships ON internships.id = applications.internship_id").
		Where("internships.employer_user_id = ?", companyID)
}

func (ic *InternshipController) statusCounts(companyID uuid.UUID) (map[lifecycle.Status]int64, error) {
	var rows []statusCount
	if err := ic.companyApplications(companyID).
		Select("applications.status AS status, COUNT(*) AS count").
		Group("applications.status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return countByStatus(rows), nil
}

// GetDashboardStats summarizes the current company's internships and applicants
// @Summary Company dashboard statistics
// @Tags Company
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} DashboardStats
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as company"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /company/dashboard/stats [get]
func (ic *InternshipController) GetDashboardStats(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	stats := DashboardStats{ByStatus: map[string]int64{}}
	if err := ic.DB.Model(&model.Internship{}).
		Where("employer_user_id = ?", user.ID).
		Count(&stats.TotalInternships).Error; err != nil {
		utilities.WriteError(c, apperror.Internal(err, "Failed to count internships"))
		return
	}
	if err := ic.DB.Model(&model.Internship{}).
		Where("employer_user_id = ? AND status = ?", user.ID, model.InternshipStatusActive).
		Count(&stats.ActiveInternships).Error; err != nil {
		utilities.WriteError(c, apperror.Internal(err, "Failed to count internships"))
		return
	}

	counts, err := ic.statusCounts(user.ID)
	if err != nil {
		utilities.WriteError(c, apperror.Internal(err, "Failed to count applications"))
		return
	}
	for s, n := range counts {
		stats.ByStatus[s.String()] = n
	}
	stats.TotalApplicants = total(counts)
	stats.TotalHires = sumOf(counts, lifecycle.StatusAccepted, lifecycle.StatusHired)
	stats.PendingReviews = counts[lifecycle.StatusPending]

	c.JSON(http.StatusOK, stats)
}

// GetHiringFunnel shows how far the current company's applications progressed
// @Summary Company hiring funnel
// @Tags Company
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} HiringFunnel
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as company"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /company/dashboard/funnel [get]
func (ic *InternshipController) GetHiringFunnel(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	counts, err := ic.statusCounts(user.ID)
	if err != nil {
		utilities.WriteError(c, apperror.Internal(err, "Failed to count applications"))
		return
	}
	c.JSON(http.StatusOK, funnelFrom(counts))
}

// GetMonthlyApplications returns the application trend of the last six months
// @Summary Company monthly applications
// @Description Six calendar months ending with the current one, oldest first
// @Tags Company
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} MonthlyApplications
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as company"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /company/dashboard/monthly [get]
func (ic *InternshipController) GetMonthlyApplications(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	now := time.Now()
	var rows []datedStatus
	if err := ic.companyApplications(user.ID).
		Select("applications.application_date, applications.status").
		Where("applications.application_date >= ?", trendStart(now)).
		Scan(&rows).Error; err != nil {
		utilities.WriteError(c, apperror.Internal(err, "Failed to fetch applications"))
		return
	}
	c.JSON(http.StatusOK, monthlyTrend(now, rows))
}
