// Package internship provides HTTP handlers for internship postings.
package internship

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Internmain07/I-INTERN/internal/apperror"
	"github.com/Internmain07/I-INTERN/internal/database"
	"github.com/Internmain07/I-INTERN/internal/match"
	"github.com/Internmain07/I-INTERN/internal/model"
	"github.com/Internmain07/I-INTERN/internal/utilities"
)

// InternshipController handles internship related endpoints
type InternshipController struct {
	DB *database.DBinstanceStruct
	// BypassVerification lets unverified companies post, for development
	BypassVerification bool
}

// NewInternshipController creates a new instance of InternshipController
func NewInternshipController(db *database.DBinstanceStruct, bypassVerification bool) *InternshipController {
	return &InternshipController{
		DB:                 db,
		BypassVerification: bypassVerification,
	}
}

// InternshipUpdate lists the fields a company may change on its internship.
// Absent fields are left untouched.
type InternshipUpdate struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	Location     *string    `json:"location"`
	Stipend      *string    `json:"stipend"`
	Duration     *string    `json:"duration"`
	Type         *string    `json:"type"`
	Level        *string    `json:"level"`
	Category     *string    `json:"category"`
	Skills       *[]string  `json:"skills"`
	Requirements *string    `json:"requirements"`
	Benefits     *string    `json:"benefits"`
	Deadline     *time.Time `json:"deadline"`
	Status       *string    `json:"status"`
}

var companyStatuses = []string{
	model.InternshipStatusActive,
	model.InternshipStatusDraft,
	model.InternshipStatusClosed,
}

var errInternshipNotFound = apperror.NotFound("Internship not found")

func validateLevel(level string) error {
	if strings.TrimSpace(level) != "" && !match.IsLevelName(level) {
		return apperror.Newf(apperror.KindValidation, "Invalid level '%s'", level)
	}
	return nil
}

func validateStatus(status string) error {
	if !utilities.Contains(companyStatuses, status) {
		return apperror.Newf(apperror.KindValidation, "Invalid status '%s'", status)
	}
	return nil
}

// updates turns the provided fields into a column map
func (u *InternshipUpdate) updates() (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	if u.Title != nil {
		if strings.TrimSpace(*u.Title) == "" {
			return nil, apperror.Validation("Title cannot be empty")
		}
		fields["title"] = *u.Title
	}
	if u.Description != nil {
		fields["description"] = *u.Description
	}
	if u.Location != nil {
		fields["location"] = *u.Location
	}
	if u.Stipend != nil {
		fields["stipend"] = *u.Stipend
	}
	if u.Duration != nil {
		fields["duration"] = *u.Duration
	}
	if u.Type != nil {
		fields["type"] = *u.Type
	}
	if u.Level != nil {
		if err := validateLevel(*u.Level); err != nil {
			return nil, err
		}
		fields["level"] = *u.Level
	}
	if u.Category != nil {
		fields["category"] = *u.Category
	}
	if u.Skills != nil {
		fields["skills"] = pq.StringArray(*u.Skills)
	}
	if u.Requirements != nil {
		fields["requirements"] = *u.Requirements
	}
	if u.Benefits != nil {
		fields["benefits"] = *u.Benefits
	}
	if u.Deadline != nil {
		fields["deadline"] = *u.Deadline
	}
	if u.Status != nil {
		if err := validateStatus(*u.Status); err != nil {
			return nil, err
		}
		fields["status"] = *u.Status
		if *u.Status == model.InternshipStatusActive {
			fields["archived_at"] = nil
		}
	}
	return fields, nil
}

func parseID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, errInternshipNotFound
	}
	return id, nil
}

// visibleInternships is the base query of everything students can browse
func (ic *InternshipController) visibleInternships() *gorm.DB {
	return ic.DB.Model(&model.Internship{}).
		Preload("Employer").
		Joins("JOIN users AS owners ON owners.id = internships.employer_user_id").
		Where("internships.status = ?", model.InternshipStatusActive).
		Where("internships.is_suspended = ?", false).
		Where("owners.is_suspended = ?", false)
}

// applicantCounts counts the applications of each internship
func (ic *InternshipController) applicantCounts(ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}

	var rows []struct {
		InternshipID uuid.UUID
		Count        int64
	}
	if err := ic.DB.Model(&model.Application{}).
		Select("internship_id, COUNT(*) AS count").
		Where("internship_id IN ?", ids).
		Group("internship_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.InternshipID] = row.Count
	}
	return counts, nil
}

func toResponse(i model.Internship, count int64) model.InternshipResponse {
	return model.InternshipResponse{
		Internship:     i,
		CompanyName:    i.Employer.CompanyName,
		ApplicantCount: count,
	}
}

func internshipIDs(internships []model.Internship) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(internships))
	for _, i := range internships {
		ids = append(ids, i.ID)
	}
	return ids
}

// CreateInternship handles the creation of a new internship by a company user.
// @Summary Create internship based on given json structure
// @Description Only verified companies have access to this endpoint unless verification is bypassed
// @Tags Internship
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param Internship body model.EditableInternshipInfo true "Input internship information"
// @Success 201 {object} model.Internship "Successfully create internship"
// @Failure 400 {object} utilities.ErrorResponse "Invalid internship struct"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as verified company"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /internships [post]
func (ic *InternshipController) CreateInternship(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	var company model.EmployerProfile
	if err := ic.DB.Where("user_id = ?", user.ID).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusForbidden, utilities.ErrorResponse{Error: "Only company users can create internships"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve company information: %s", err.Error()),
		})
		return
	}
	if !company.IsVerified() && !ic.BypassVerification {
		c.JSON(http.StatusForbidden, utilities.ErrorResponse{
			Error: "Only verified companies can create internships",
		})
		return
	}

	internship := model.Internship{}
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&internship.EditableInternshipInfo); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return
	}

	if strings.TrimSpace(internship.Title) == "" {
		utilities.WriteError(c, apperror.Validation("Title is required"))
		return
	}
	if internship.Status == "" {
		internship.Status = model.InternshipStatusActive
	}
	if err := validateStatus(internship.Status); err != nil {
		utilities.WriteError(c, err)
		return
	}
	if err := validateLevel(internship.Level); err != nil {
		utilities.WriteError(c, err)
		return
	}

	internship.EmployerUserID = user.ID
	if err := ic.DB.Create(&internship).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprint("Failed to create internship: ", err),
		})
		return
	}

	c.JSON(http.StatusCreated, internship)
}

// GetInternships fetches all active internships that match query from the database
// @Summary Get active internships based on query
// @Description Every query is optional. Suspended internships and internships of suspended companies are hidden.
// @Tags Internship
// @Produce json
// @Param search query string false "Substring of title or description, case insensitive"
// @Param location query string false "Substring of location, case insensitive"
// @Param type query string false "Substring of type, case insensitive"
// @Param category query string false "Substring of category, case insensitive"
// @Param level query string false "Exact level"
// @Param skill query string false "Internship requires this skill, case insensitive"
// @Param company query string false "Substring of company name, case insensitive"
// @Param desc query boolean false "Sort by posting date descending unless false"
// @Success 200 {array} model.InternshipResponse "Return active internship(s)"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /internships [get]
func (ic *InternshipController) GetInternships(c *gin.Context) {
	rawSearch := c.Query("search")
	rawLocation := c.Query("location")
	rawType := c.Query("type")
	rawCategory := c.Query("category")
	rawLevel := c.Query("level")
	rawSkill := c.Query("skill")
	rawCompany := c.Query("company")
	rawDesc := c.Query("desc")

	result := ic.visibleInternships()

	if rawSearch != "" {
		result = result.Where("(internships.title ILIKE ? OR internships.description ILIKE ?)", "%"+rawSearch+"%", "%"+rawSearch+"%")
	}
	if rawLocation != "" {
		result = result.Where("internships.location ILIKE ?", "%"+rawLocation+"%")
	}
	if rawType != "" {
		result = result.Where("internships.type ILIKE ?", "%"+rawType+"%")
	}
	if rawCategory != "" {
		result = result.Where("internships.category ILIKE ?", "%"+rawCategory+"%")
	}
	if rawLevel != "" {
		result = result.Where("LOWER(internships.level) = LOWER(?)", rawLevel)
	}
	if rawSkill != "" {
		result = result.Where("? ILIKE ANY(internships.skills)", rawSkill)
	}
	if rawCompany != "" {
		result = result.Joins("JOIN employer_profiles ON employer_profiles.user_id = internships.employer_user_id").
			Where("employer_profiles.company_name ILIKE ?", "%"+rawCompany+"%")
	}

	var internships []model.Internship
	if err := result.Order(clause.OrderByColumn{
		Column: clause.Column{Table: "internships", Name: "date_posted"},
		Desc:   strings.ToLower(rawDesc) != "false",
	}).Find(&internships).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprint("Failed to fetch internships: ", err.Error()),
		})
		return
	}

	counts, err := ic.applicantCounts(internshipIDs(internships))
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprint("Failed to count applicants: ", err.Error()),
		})
		return
	}

	resp := make([]model.InternshipResponse, 0, len(internships))
	for _, i := range internships {
		resp = append(resp, toResponse(i, counts[i.ID]))
	}
	c.JSON(http.StatusOK, resp)
}

// GetInternshipByID fetches an internship by its ID
// @Summary Get internship by ID
// @Tags Internship
// @Produce json
// @Param id path string true "ID of desired internship"
// @Success 200 {object} model.InternshipResponse "Return the internship with the specified ID"
// @Failure 404 {object} utilities.ErrorResponse "Internship not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /internships/{id} [get]
func (ic *InternshipController) GetInternshipByID(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	var internship model.Internship
	if err := ic.DB.Preload("Employer").Where("id = ?", id).First(&internship).Error; err != nil {
		utilities.WriteError(c, apperror.FromDB(err, "Internship not found"))
		return
	}
	if internship.IsSuspended {
		utilities.WriteError(c, errInternshipNotFound)
		return
	}

	counts, err := ic.applicantCounts([]uuid.UUID{internship.ID})
	if err != nil {
		utilities.WriteError(c, apperror.Internal(err, "Failed to count applicants"))
		return
	}
	c.JSON(http.StatusOK, toResponse(internship, counts[internship.ID]))
}

// loadOwned fetches an internship and checks that user may change it
func (ic *InternshipController) loadOwned(c *gin.Context, user model.User, action string) (*model.Internship, bool) {
	id, err := parseID(c)
	if err != nil {
		utilities.WriteError(c, err)
		return nil, false
	}

	var internship model.Internship
	if err := ic.DB.Where("id = ?", id).First(&internship).Error; err != nil {
		utilities.WriteError(c, apperror.FromDB(err, "Internship not found"))
		return nil, false
	}

	if internship.EmployerUserID != user.ID && user.Role != model.RoleAdmin {
		c.JSON(http.StatusForbidden, utilities.ErrorResponse{
			Error: fmt.Sprintf("You are not allowed to %s this internship", action),
		})
		return nil, false
	}
	return &internship, true
}

// UpdateInternship allows a company user to update an internship they own.
// @Summary Edit internship based on given json structure
// @Description Only the company that owns the internship can edit it. Absent fields are left untouched.
// @Tags Internship
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "ID of desired internship"
// @Param Internship body InternshipUpdate true "Fields to change"
// @Success 200 {object} model.Internship "Successfully update internship"
// @Failure 400 {object} utilities.ErrorResponse "Invalid internship struct"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not have permission to edit"
// @Failure 404 {object} utilities.ErrorResponse "Internship not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /internships/{id} [patch]
func (ic *InternshipController) UpdateInternship(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	internship, ok := ic.loadOwned(c, user, "edit")
	if !ok {
		return
	}

	var req InternshipUpdate
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to parse request body: %s", err.Error()),
		})
		return
	}

	fields, err := req.updates()
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	if len(fields) > 0 {
		if err := ic.DB.Model(internship).Updates(fields).Error; err != nil {
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: fmt.Sprintf("Failed to update internship: %s", err.Error()),
			})
			return
		}
	}

	if err := ic.DB.Where("id = ?", internship.ID).First(internship).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve updated internship: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, internship)
}

// DeleteInternship allows a company user to delete an internship they own.
// @Summary Delete given internship ID
// @Description Only the company that owns the internship or an admin can delete it. Its applications are deleted with it.
// @Tags Internship
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "ID of desired internship"
// @Success 200 {object} utilities.MessageResponse "Successfully delete internship"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not have permission to delete this internship"
// @Failure 404 {object} utilities.ErrorResponse "Internship not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /internships/{id} [delete]
func (ic *InternshipController) DeleteInternship(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	internship, ok := ic.loadOwned(c, user, "delete")
	if !ok {
		return
	}

	if err := ic.DB.Delete(internship).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to delete internship: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Internship deleted"})
}

// GetMyInternships lists every internship of the current company with its applicant count
// @Summary Get internships posted by the current company
// @Description Includes drafts, closed and archived internships
// @Tags Company
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} model.InternshipResponse
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as company"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /company/internships [get]
func (ic *InternshipController) GetMyInternships(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	var internships []model.Internship
	if err := ic.DB.Preload("Employer").
		Where("employer_user_id = ?", user.ID).
		Order("date_posted DESC").
		Find(&internships).Error; err != nil {
		utilities.WriteError(c, apperror.Internal(err, "Failed to fetch internships"))
		return
	}

	counts, err := ic.applicantCounts(internshipIDs(internships))
	if err != nil {
		utilities.WriteError(c, apperror.Internal(err, "Failed to count applicants"))
		return
	}

	resp := make([]model.InternshipResponse, 0, len(internships))
	for _, i := range internships {
		resp = append(resp, toResponse(i, counts[i.ID]))
	}
	c.JSON(http.StatusOK, resp)
}

// GetInternshipsWithMatch lists active internships ranked by how well they match
// the current intern's profile
// @Summary Get internships ranked by match
// @Description Best match first. Internships with equal scores keep posting order, newest first.
// @Tags Intern
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} model.InternshipResponse
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as intern"
// @Failure 404 {object} utilities.ErrorResponse "Profile not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /intern/internships/matches [get]
func (ic *InternshipController) GetInternshipsWithMatch(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	var profile model.StudentProfile
	if err := ic.DB.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
		utilities.WriteError(c, apperror.FromDB(err, "Profile not found"))
		return
	}

	var internships []model.Internship
	if err := ic.visibleInternships().
		Order("internships.date_posted DESC").
		Find(&internships).Error; err != nil {
		utilities.WriteError(c, apperror.Internal(err, "Failed to fetch internships"))
		return
	}

	var appliedIDs []uuid.UUID
	if err := ic.DB.Model(&model.Application{}).
		Where("student_id = ?", user.ID).
		Pluck("internship_id", &appliedIDs).Error; err != nil {
		utilities.WriteError(c, apperror.Internal(err, "Failed to fetch applications"))
		return
	}
	applied := make(map[uuid.UUID]bool, len(appliedIDs))
	for _, id := range appliedIDs {
		applied[id] = true
	}

	counts, err := ic.applicantCounts(internshipIDs(internships))
	if err != nil {
		utilities.WriteError(c, apperror.Internal(err, "Failed to count applicants"))
		return
	}

	candidate := match.Requirement{
		Skills: match.SkillSetFromList(profile.Skills),
		Level:  profile.SkillLevel,
	}
	ranked := match.RankPostings(candidate, internships, func(i model.Internship) match.Requirement {
		return match.Requirement{Skills: match.SkillSetFromList(i.Skills), Level: i.Level}
	})

	resp := make([]model.InternshipResponse, 0, len(ranked))
	for _, r := range ranked {
		result := r.Result
		item := toResponse(r.Item, counts[r.Item.ID])
		item.UserApplied = applied[r.Item.ID]
		item.MatchScore = result.MatchScore()
		item.Match = &result
		resp = append(resp, item)
	}
	c.JSON(http.StatusOK, resp)
}
