// Package admin provides HTTP handlers for platform administration.
package admin

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Internmain07/I-INTERN/internal/apperror"
	"github.com/Internmain07/I-INTERN/internal/database"
	"github.com/Internmain07/I-INTERN/internal/lifecycle"
	"github.com/Internmain07/I-INTERN/internal/model"
	"github.com/Internmain07/I-INTERN/internal/utilities"
)

// FilePurger removes the stored objects of a deleted user
type FilePurger interface {
	PurgeUserFiles(ctx context.Context, userID uuid.UUID) error
}

// AdminController handles admin only endpoints
type AdminController struct {
	DB    *database.DBinstanceStruct
	Files FilePurger
	Log   *zap.Logger
	Now   func() time.Time
}

// NewAdminController creates a new instance of AdminController. files may be nil.
func NewAdminController(db *database.DBinstanceStruct, files FilePurger, log *zap.Logger) *AdminController {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminController{
		DB:    db,
		Files: files,
		Log:   log,
		Now:   time.Now,
	}
}

// AdminStats is the platform overview shown on the admin dashboard
type AdminStats struct {
	TotalInterns      int64 `json:"total_interns"`
	TotalCompanies    int64 `json:"total_companies"`
	VerifiedCompanies int64 `json:"verified_companies"`
	PendingCompanies  int64 `json:"pending_companies"`
	SuspendedUsers    int64 `json:"suspended_users"`
	TotalInternships  int64 `json:"total_internships"`
	ActiveInternships int64 `json:"active_internships"`
	TotalApplications int64 `json:"total_applications"`
	TotalHires        int64 `json:"total_hires"`
}

func parseUUID(raw, notFound string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.NotFound(notFound)
	}
	return id, nil
}

// titleCase turns "pending" into "Pending"
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// GetDashboardStats counts users, companies, internships and applications
// @Summary Admin dashboard statistics
// @Description Only admin can access this endpoint
// @Tags Admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} AdminStats
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not logged in as admin"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/stats [get]
func (jc *AdminController) GetDashboardStats(c *gin.Context) {
	var stats AdminStats
	counts := []struct {
		dst   *int64
		model interface{}
		query string
		args  []interface{}
	}{
		{&stats.TotalInterns, &model.User{}, "role = ?", []interface{}{model.RoleIntern}},
		{&stats.TotalCompanies, &model.EmployerProfile{}, "", nil},
		{&stats.VerifiedCompanies, &model.EmployerProfile{}, "verified_status = ?", []interface{}{model.StatusVerified}},
		{&stats.PendingCompanies, &model.EmployerProfile{}, "verified_status = ?", []interface{}{model.StatusPending}},
		{&stats.SuspendedUsers, &model.User{}, "is_suspended = ?", []interface{}{true}},
		{&stats.TotalInternships, &model.Internship{}, "", nil},
		{&stats.ActiveInternships, &model.Internship{}, "status = ?", []interface{}{model.InternshipStatusActive}},
		{&stats.TotalApplications, &model.Application{}, "", nil},
	}

	for _, q := range counts {
		tx := jc.DB.Model(q.model)
		if q.query != "" {
			tx = tx.Where(q.query, q.args...)
		}
		if err := tx.Count(q.dst).Error; err != nil {
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: fmt.Sprintf("Database error: %s", err.Error()),
			})
			return
		}
	}

	hires, err := jc.countHires()
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Database error: %s", err.Error()),
		})
		return
	}
	stats.TotalHires = hires

	c.JSON(http.StatusOK, stats)
}

// countHires counts accepted and hired applications under any stored spelling
func (jc *AdminController) countHires() (int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := jc.DB.Model(&model.Application{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return 0, err
	}

	var hires int64
	for _, row := range rows {
		switch lifecycle.Canonical(row.Status) {
		case lifecycle.StatusAccepted, lifecycle.StatusHired:
			hires += row.Count
		}
	}
	return hires, nil
}

// GetUsers function query users based on given query "role", "suspended" and "search"
// @Summary Get users based on given query
// @Description Only admin can access this endpoint
// @Description If no query given, the server will return all users
// @Tags Admin
// @Produce json
// @Security ApiKeyAuth
// @Param role query string false "intern, company or admin"
// @Param suspended query boolean false "Only suspended (true) or not suspended (false) users"
// @Param search query string false "Substring of email or full name, case insensitive"
// @Success 200 {array} model.User
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not logged in as admin"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/users [get]
func (jc *AdminController) GetUsers(c *gin.Context) {
	rawRole := c.Query("role")
	rawSuspended := c.Query("suspended")
	rawSearch := c.Query("search")

	result := jc.DB.Model(&model.User{})
	if rawRole != "" {
		result = result.Where("role = ?", strings.ToLower(rawRole))
	}
	if rawSuspended != "" {
		result = result.Where("is_suspended = ?", strings.ToLower(rawSuspended) == "true")
	}
	if rawSearch != "" {
		result = result.Where("(email ILIKE ? OR full_name ILIKE ?)", "%"+rawSearch+"%", "%"+rawSearch+"%")
	}

	users := []model.User{}
	if err := result.Order("created_at DESC").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Database error: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, users)
}

// GetCompanies function query the result from the database based on given query "verify" and "suspended"
// @Summary Get companies based on given query
// @Description Only admin can access this endpoint
// @Description If no query given, the server will return all companies
// @Tags Admin
// @Produce json
// @Security ApiKeyAuth
// @Param verify query string false "Only pending, unverified, or verified with case insensitive" example(pending unverified)
// @Param suspended query boolean false "Only suspended (true) or not suspended (false) companies"
// @Success 200 {array} model.EmployerProfile
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not logged in as admin"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/companies [get]
func (jc *AdminController) GetCompanies(c *gin.Context) {
	rawVerify := c.Query("verify")
	rawSuspended := c.Query("suspended")

	result := jc.DB.Model(&model.EmployerProfile{}).Preload("User")
	if rawVerify != "" {
		verify := strings.Fields(rawVerify)
		for i := range verify {
			verify[i] = titleCase(verify[i])
		}
		result = result.Where("verified_status IN ?", verify)
	}

	if rawSuspended != "" {
		result = result.Joins("JOIN users ON users.id = employer_profiles.user_id").
			Where("users.is_suspended = ?", strings.ToLower(rawSuspended) == "true")
	}

	companies := []model.EmployerProfile{}
	if err := result.Order("employer_profiles.created_at DESC").Find(&companies).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Database error: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, companies)
}

// GetInternships lists every internship, including suspended and archived ones
// @Summary Get internships based on given query
// @Description Only admin can access this endpoint
// @Tags Admin
// @Produce json
// @Security ApiKeyAuth
// @Param status query string false "Active, Draft, Closed or Archived"
// @Param suspended query boolean false "Only suspended (true) or not suspended (false) internships"
// @Success 200 {array} model.InternshipResponse
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not logged in as admin"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/internships [get]
func (jc *AdminController) GetInternships(c *gin.Context) {
	rawStatus := c.Query("status")
	rawSuspended := c.Query("suspended")

	result := jc.DB.Model(&model.Internship{}).Preload("Employer")
	if rawStatus != "" {
		result = result.Where("status = ?", titleCase(rawStatus))
	}
	if rawSuspended != "" {
		result = result.Where("is_suspended = ?", strings.ToLower(rawSuspended) == "true")
	}

	var internships []model.Internship
	if err := result.Order("date_posted DESC").Find(&internships).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Database error: %s", err.Error()),
		})
		return
	}

	resp := make([]model.InternshipResponse, 0, len(internships))
	for _, i := range internships {
		resp = append(resp, model.InternshipResponse{Internship: i, CompanyName: i.Employer.CompanyName})
	}
	c.JSON(http.StatusOK, resp)
}

// VerifyCompany function allow admin to change status of given company id to Verified or Unverified
// @Summary Verify, or unverify companies
// @Description Only admin can access this endpoint
// @Tags Admin
// @Produce json
// @Security ApiKeyAuth
// @Param company_id path string true "Company ID"
// @Param status query string false "Status is case insensitive and allow only unverified, or verified (verified by default)" default(verified)
// @Success 200 {object} model.EmployerProfile
// @Failure 400 {object} utilities.ErrorResponse "Invalid status"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not logged in as admin"
// @Failure 404 {object} utilities.ErrorResponse "Given company ID not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/companies/{company_id}/verify [patch]
func (jc *AdminController) VerifyCompany(c *gin.Context) {
	status := c.Query("status")
	if status == "" {
		status = "verified"
	}
	status = titleCase(status)

	allowedStatus := map[string]bool{
		model.StatusVerified:   true,
		model.StatusUnverified: true,
	}
	if !allowedStatus[status] {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Unknown status: %s", status),
		})
		return
	}

	company, err := jc.findCompany(c.Param("company_id"))
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	if err := jc.DB.Model(company).Update("verified_status", status).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to update company: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, company)
}

func (jc *AdminController) findCompany(rawID string) (*model.EmployerProfile, error) {
	id, err := parseUUID(rawID, "Company not found")
	if err != nil {
		return nil, err
	}
	var company model.EmployerProfile
	if err := jc.DB.Preload("User").Where("user_id = ?", id).First(&company).Error; err != nil {
		return nil, apperror.FromDB(err, "Company not found")
	}
	return &company, nil
}

func (jc *AdminController) findUser(rawID string) (*model.User, error) {
	id, err := parseUUID(rawID, "User not found")
	if err != nil {
		return nil, err
	}
	var user model.User
	if err := jc.DB.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, apperror.FromDB(err, "User not found")
	}
	return &user, nil
}

func (jc *AdminController) findInternship(rawID string) (*model.Internship, error) {
	id, err := parseUUID(rawID, "Internship not found")
	if err != nil {
		return nil, err
	}
	var internship model.Internship
	if err := jc.DB.Where("id = ?", id).First(&internship).Error; err != nil {
		return nil, apperror.FromDB(err, "Internship not found")
	}
	return &internship, nil
}
