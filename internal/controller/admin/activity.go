package admin

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Internmain07/I-INTERN/internal/apperror"
	"github.com/Internmain07/I-INTERN/internal/model"
	"github.com/Internmain07/I-INTERN/internal/utilities"
)

const (
	defaultActivityLimit = 10
	maxActivityLimit     = 50
	weekDays             = 7
)

// RecentActivity is one entry of the admin activity feed
type RecentActivity struct {
	ID              uuid.UUID `json:"id"`
	Type            string    `json:"type"`
	Activity        string    `json:"activity"`
	Timestamp       time.Time `json:"timestamp"`
	UserName        string    `json:"user_name"`
	CompanyName     string    `json:"company_name"`
	InternshipTitle string    `json:"internship_title"`
}

// DailyActivity counts what happened on one calendar day (UTC)
type DailyActivity struct {
	Date         string `json:"date"`
	Postings     int64  `json:"postings"`
	Applications int64  `json:"applications"`
}

func displayName(name, email string) string {
	if name != "" {
		return name
	}
	return email
}

// GetRecentActivities lists the newest applications on the platform
// @Summary Recent platform activities
// @Description Only admin can access this endpoint
// @Tags Admin
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "Number of entries, 1 to 50" default(10)
// @Success 200 {array} RecentActivity
// @Failure 400 {object} utilities.ErrorResponse "Invalid limit"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not logged in as admin"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/activities [get]
func (jc *AdminController) GetRecentActivities(c *gin.Context) {
	limit := defaultActivityLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxActivityLimit {
			utilities.WriteError(c, apperror.Newf(apperror.KindValidation, "Invalid limit '%s'", raw))
			return
		}
		limit = n
	}

	var apps []model.Application
	if err := jc.DB.
		Preload("Student").
		Preload("Internship.Employer.User").
		Order("application_date DESC").
		Limit(limit).
		Find(&apps).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Database error: %s", err.Error()),
		})
		return
	}

	activities := make([]RecentActivity, 0, len(apps))
	for _, app := range apps {
		intern := displayName(app.Student.FullName, app.Student.Email)
		employer := app.Internship.Employer
		activities = append(activities, RecentActivity{
			ID:              app.ID,
			Type:            "application",
			Activity:        fmt.Sprintf("%s applied to %s", intern, app.Internship.Title),
			Timestamp:       app.ApplicationDate,
			UserName:        intern,
			CompanyName:     displayName(employer.CompanyName, employer.User.Email),
			InternshipTitle: app.Internship.Title,
		})
	}
	c.JSON(http.StatusOK, activities)
}

// GetWeeklyActivity counts postings and applications per day over the last seven days
// @Summary Weekly activity
// @Description Only admin can access this endpoint. Days are UTC, oldest first, today last.
// @Tags Admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} DailyActivity
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not logged in as admin"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/analytics/weekly-activity [get]
func (jc *AdminController) GetWeeklyActivity(c *gin.Context) {
	now := jc.Now().UTC()
	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(weekDays - 1))

	days := make([]DailyActivity, weekDays)
	index := make(map[string]int, weekDays)
	for i := range days {
		key := start.AddDate(0, 0, i).Format(time.DateOnly)
		days[i].Date = key
		index[key] = i
	}

	var posted, applied []time.Time
	if err := jc.DB.Model(&model.Internship{}).
		Where("date_posted >= ?", start).
		Pluck("date_posted", &posted).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Database error: %s", err.Error()),
		})
		return
	}
	if err := jc.DB.Model(&model.Application{}).
		Where("application_date >= ?", start).
		Pluck("application_date", &applied).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Database error: %s", err.Error()),
		})
		return
	}

	for _, t := range posted {
		if i, ok := index[t.UTC().Format(time.DateOnly)]; ok {
			days[i].Postings++
		}
	}
	for _, t := range applied {
		if i, ok := index[t.UTC().Format(time.DateOnly)]; ok {
			days[i].Applications++
		}
	}

	c.JSON(http.StatusOK, days)
}

// ApproveInternship publishes a draft internship
// @Summary Approve a draft internship
// @Description Only admin can access this endpoint. Approving an active internship is a no-op.
// @Tags Admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Internship ID"
// @Success 200 {object} model.Internship
// @Failure 400 {object} utilities.ErrorResponse "Internship is closed or archived"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not logged in as admin"
// @Failure 404 {object} utilities.ErrorResponse "Internship not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/internships/{id}/approve [patch]
func (jc *AdminController) ApproveInternship(c *gin.Context) {
	internship, err := jc.findInternship(c.Param("id"))
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	switch internship.Status {
	case model.InternshipStatusActive:
	case model.InternshipStatusDraft:
		if err := jc.DB.Model(internship).Update("status", model.InternshipStatusActive).Error; err != nil {
			utilities.WriteError(c, apperror.Internal(err, "Failed to approve internship"))
			return
		}
		internship.Status = model.InternshipStatusActive
	default:
		utilities.WriteError(c, apperror.Newf(apperror.KindValidation,
			"Only draft internships can be approved, this one is %s", internship.Status))
		return
	}

	c.JSON(http.StatusOK, internship)
}
