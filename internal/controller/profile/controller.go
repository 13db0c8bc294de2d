// Package profile provides HTTP handlers for intern profiles, work history and projects.
package profile

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Internmain07/I-INTERN/internal/apperror"
	"github.com/Internmain07/I-INTERN/internal/database"
	"github.com/Internmain07/I-INTERN/internal/match"
	"github.com/Internmain07/I-INTERN/internal/model"
	"github.com/Internmain07/I-INTERN/internal/utilities"
)

// ProfileController handles intern profile related endpoints
type ProfileController struct {
	DB *database.DBinstanceStruct
}

// NewProfileController creates a new instance of ProfileController
func NewProfileController(db *database.DBinstanceStruct) *ProfileController {
	return &ProfileController{
		DB: db,
	}
}

type editInternProfile struct {
	model.EditableStudentInfo
	FullName string  `json:"full_name"`
	Phone    *string `json:"phone"`
}

func (pc *ProfileController) loadProfile(userID uuid.UUID) (*model.StudentProfile, error) {
	var profile model.StudentProfile
	if err := pc.DB.Preload("User").
		Preload("WorkExperiences", func(db *gorm.DB) *gorm.DB { return db.Order("start_date DESC NULLS LAST, id") }).
		Preload("Projects", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("user_id = ?", userID).
		First(&profile).Error; err != nil {
		return nil, apperror.FromDB(err, "Profile not found")
	}
	return &profile, nil
}

// GetMyProfile retrieves the current intern's profile with work history and projects
// @Summary Retrieve intern profile from database
// @Tags Intern
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} model.StudentProfile "Successfully retrieve intern profile"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as intern"
// @Failure 404 {object} utilities.ErrorResponse "Profile not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /intern/profile [get]
func (pc *ProfileController) GetMyProfile(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	profile, err := pc.loadProfile(user.ID)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// EditMyProfile merges the given fields into the current intern's profile
// @Summary Edit intern profile
// @Description Only non-empty fields are written. Resume, avatar, work history and projects have their own endpoints.
// @Tags Intern
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param profile body editInternProfile true "Intern info to be written"
// @Success 200 {object} model.StudentProfile "Successfully overwrite"
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as intern"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /intern/profile [patch]
func (pc *ProfileController) EditMyProfile(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	profile, err := pc.loadProfile(user.ID)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	edited := editInternProfile{}
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&edited); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return
	}

	if edited.SkillLevel != "" && !match.IsLevelName(edited.SkillLevel) {
		utilities.WriteError(c, apperror.Newf(apperror.KindValidation, "Invalid skill level '%s'", edited.SkillLevel))
		return
	}

	utilities.MergeNonEmpty(&profile.EditableStudentInfo, &edited.EditableStudentInfo)
	if edited.SkillLevel != "" {
		profile.SkillLevel = strings.ToLower(strings.TrimSpace(edited.SkillLevel))
	}

	userFields := map[string]interface{}{}
	if strings.TrimSpace(edited.FullName) != "" {
		userFields["full_name"] = edited.FullName
	}
	if edited.Phone != nil {
		userFields["phone"] = *edited.Phone
	}

	err = pc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(profile).Error; err != nil {
			return err
		}
		if len(userFields) > 0 {
			return tx.Model(&model.User{}).Where("id = ?", user.ID).Updates(userFields).Error
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to update user information: %s", err.Error()),
		})
		return
	}

	profile, err = pc.loadProfile(user.ID)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func checkDates(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return apperror.Validation("End date cannot be before start date")
	}
	return nil
}

func entryID(c *gin.Context, notFound string) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, apperror.NotFound(notFound)
	}
	return uint(id), nil
}

// findOwned loads the entry named by the path that belongs to the student.
// Entries of other students are reported as missing.
func findOwned[T any](c *gin.Context, db *database.DBinstanceStruct, studentID uuid.UUID, dst *T, notFound string) bool {
	id, err := entryID(c, notFound)
	if err != nil {
		utilities.WriteError(c, err)
		return false
	}
	if err := db.Where("id = ? AND student_id = ?", id, studentID).First(dst).Error; err != nil {
		utilities.WriteError(c, apperror.FromDB(err, notFound))
		return false
	}
	return true
}

// bindEntry binds and validates a work experience or project body
func bindEntry(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return false
	}
	return true
}

// AddWorkExperience adds an entry to the current intern's work history
// @Summary Add work experience
// @Tags Intern
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param experience body model.EditableWorkExperience true "Work experience"
// @Success 201 {object} model.WorkExperience
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as intern"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /intern/profile/experiences [post]
func (pc *ProfileController) AddWorkExperience(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	var req model.EditableWorkExperience
	if !bindEntry(c, &req) {
		return
	}
	if err := checkDates(req.StartDate, req.EndDate); err != nil {
		utilities.WriteError(c, err)
		return
	}

	exp := model.WorkExperience{StudentID: user.ID, EditableWorkExperience: req}
	if err := pc.DB.Create(&exp).Error; err != nil {
		utilities.WriteError(c, apperror.FromDB(err, "Profile not found"))
		return
	}
	c.JSON(http.StatusCreated, exp)
}

// UpdateWorkExperience replaces an entry of the current intern's work history
// @Summary Update work experience
// @Tags Intern
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path integer true "Work experience ID"
// @Param experience body model.EditableWorkExperience true "Work experience"
// @Success 200 {object} model.WorkExperience
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 404 {object} utilities.ErrorResponse "Work experience not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /intern/profile/experiences/{id} [put]
func (pc *ProfileController) UpdateWorkExperience(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	var exp model.WorkExperience
	if !findOwned(c, pc.DB, user.ID, &exp, "Work experience not found") {
		return
	}

	var req model.EditableWorkExperience
	if !bindEntry(c, &req) {
		return
	}
	if err := checkDates(req.StartDate, req.EndDate); err != nil {
		utilities.WriteError(c, err)
		return
	}

	exp.EditableWorkExperience = req
	if err := pc.DB.Save(&exp).Error; err != nil {
		utilities.WriteError(c, apperror.Internal(err, "Failed to update work experience"))
		return
	}
	c.JSON(http.StatusOK, exp)
}

// DeleteWorkExperience removes an entry of the current intern's work history
// @Summary Delete work experience
// @Tags Intern
// @Produce json
// @Security ApiKeyAuth
// @Param id path integer true "Work experience ID"
// @Success 200 {object} utilities.MessageResponse
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 404 {object} utilities.ErrorResponse "Work experience not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /intern/profile/experiences/{id} [delete]
func (pc *ProfileController) DeleteWorkExperience(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	var exp model.WorkExperience
	if !findOwned(c, pc.DB, user.ID, &exp, "Work experience not found") {
		return
	}
	if err := pc.DB.Delete(&exp).Error; err != nil {
		utilities.WriteError(c, apperror.Internal(err, "Failed to delete work experience"))
		return
	}
	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Work experience deleted"})
}

// AddProject adds a project to the current intern's portfolio
// @Summary Add project
// @Tags Intern
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param project body model.EditableProject true "Project"
// @Success 201 {object} model.Project
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as intern"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /intern/profile/projects [post]
func (pc *ProfileController) AddProject(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	var req model.EditableProject
	if !bindEntry(c, &req) {
		return
	}
	if err := checkDates(req.StartDate, req.EndDate); err != nil {
		utilities.WriteError(c, err)
		return
	}

	project := model.Project{StudentID: user.ID, EditableProject: req}
	if err := pc.DB.Create(&project).Error; err != nil {
		utilities.WriteError(c, apperror.FromDB(err, "Profile not found"))
		return
	}
	c.JSON(http.StatusCreated, project)
}

// UpdateProject replaces a project of the current intern
// @Summary Update project
// @Tags Intern
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path integer true "Project ID"
// @Param project body model.EditableProject true "Project"
// @Success 200 {object} model.Project
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 404 {object} utilities.ErrorResponse "Project not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /intern/profile/projects/{id} [put]
func (pc *ProfileController) UpdateProject(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	var project model.Project
	if !findOwned(c, pc.DB, user.ID, &project, "Project not found") {
		return
	}

	var req model.EditableProject
	if !bindEntry(c, &req) {
		return
	}
	if err := checkDates(req.StartDate, req.EndDate); err != nil {
		utilities.WriteError(c, err)
		return
	}

	project.EditableProject = req
	if err := pc.DB.Save(&project).Error; err != nil {
		utilities.WriteError(c, apperror.Internal(err, "Failed to update project"))
		return
	}
	c.JSON(http.StatusOK, project)
}

// DeleteProject removes a project of the current intern
// @Summary Delete project
// @Tags Intern
// @Produce json
// @Security ApiKeyAuth
// @Param id path integer true "Project ID"
// @Success 200 {object} utilities.MessageResponse
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 404 {object} utilities.ErrorResponse "Project not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /intern/profile/projects/{id} [delete]
func (pc *ProfileController) DeleteProject(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	var project model.Project
	if !findOwned(c, pc.DB, user.ID, &project, "Project not found") {
		return
	}
	if err := pc.DB.Delete(&project).Error; err != nil {
		utilities.WriteError(c, apperror.Internal(err, "Failed to delete project"))
		return
	}
	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Project deleted"})
}
