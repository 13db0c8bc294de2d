// Package company provides HTTP handlers for employer profiles.
package company

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Internmain07/I-INTERN/internal/apperror"
	"github.com/Internmain07/I-INTERN/internal/database"
	"github.com/Internmain07/I-INTERN/internal/model"
	"github.com/Internmain07/I-INTERN/internal/utilities"
)

// CompanyController handles company related endpoints
type CompanyController struct {
	DB *database.DBinstanceStruct
}

// NewCompanyController creates a new instance of CompanyController
func NewCompanyController(db *database.DBinstanceStruct) (*CompanyController, error) {
	if err := utilities.RegisterValidators(); err != nil {
		return nil, err
	}
	return &CompanyController{
		DB: db,
	}, nil
}

type editCompanyUser struct {
	model.EditableCompanyInfo
	FullName string  `json:"full_name"`
	Phone    *string `json:"phone"`
}

// ChangePasswordRequest is the body of a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,strongpassword"`
}

// CompanyPublicProfile is a company as students see it
type CompanyPublicProfile struct {
	model.EmployerProfile
	Internships []model.Internship `json:"internships"`
}

func (jc *CompanyController) loadCompany(userID uuid.UUID) (*model.EmployerProfile, error) {
	company := model.EmployerProfile{}
	if err := jc.DB.Preload("User").
		Where("user_id = ?", userID).
		First(&company).Error; err != nil {
		return nil, apperror.FromDB(err, "Company not found")
	}
	return &company, nil
}

// GetCompanyProfile function retrieve company profile from database
// and response as JSON format.
// @Summary Retrieve company profile from database
// @Tags Company
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} model.EmployerProfile "Successfully retrieve company profile"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as company"
// @Failure 404 {object} utilities.ErrorResponse "Company not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /company/profile [get]
func (jc *CompanyController) GetCompanyProfile(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	company, err := jc.loadCompany(user.ID)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

// EditCompanyProfile function merges the given fields into the company profile, saves
// it, and responds with the edited profile as JSON.
// @Summary Edit company profile
// @Description Only non-empty fields are written
// @Description Sensitive fields like id, logo and verified status can't be overwritten
// @Tags Company
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param company_profile body editCompanyUser true "Company info to be written"
// @Success 200 {object} model.EmployerProfile "Successfully overwrite"
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as company"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /company/profile [patch]
func (jc *CompanyController) EditCompanyProfile(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	company, err := jc.loadCompany(user.ID)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	edited := editCompanyUser{}
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&edited); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return
	}

	utilities.MergeNonEmpty(&company.EditableCompanyInfo, &edited.EditableCompanyInfo)

	userFields := map[string]interface{}{}
	if strings.TrimSpace(edited.FullName) != "" {
		userFields["full_name"] = edited.FullName
	}
	if edited.Phone != nil {
		userFields["phone"] = *edited.Phone
	}

	err = jc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(company).Error; err != nil {
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

	company, err = jc.loadCompany(user.ID)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

// GetCompanyByID retrieves a company by its user ID with its active internships.
// @Summary Retrieve company profile from database by given ID
// @Tags Company
// @Produce json
// @Param company_id path string true "ID of company"
// @Success 200 {object} CompanyPublicProfile "Successfully retrieve company profile"
// @Failure 404 {object} utilities.ErrorResponse "Company not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /companies/{company_id} [get]
func (jc *CompanyController) GetCompanyByID(c *gin.Context) {
	companyID, err := uuid.Parse(c.Param("company_id"))
	if err != nil {
		utilities.WriteError(c, apperror.NotFound("Company not found"))
		return
	}

	company, err := jc.loadCompany(companyID)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}
	if company.User.IsSuspended {
		utilities.WriteError(c, apperror.NotFound("Company not found"))
		return
	}

	resp := CompanyPublicProfile{EmployerProfile: *company, Internships: []model.Internship{}}
	if err := jc.DB.
		Where("employer_user_id = ? AND status = ? AND is_suspended = ?", companyID, model.InternshipStatusActive, false).
		Order("date_posted DESC").
		Find(&resp.Internships).Error; err != nil {
		utilities.WriteError(c, apperror.Internal(err, "Failed to fetch internships"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ChangePassword replaces the password of the current company user
// @Summary Change password
// @Description The new password needs at least 8 characters with an upper case letter, a lower case letter and a digit
// @Tags Company
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body ChangePasswordRequest true "Current and new password"
// @Success 200 {object} utilities.MessageResponse
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body or weak password"
// @Failure 401 {object} utilities.ErrorResponse "Current password is incorrect"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /company/password [put]
func (jc *CompanyController) ChangePassword(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return
	}

	if user.Password == "" || !utilities.VerifyPassword(user.Password, req.CurrentPassword) {
		utilities.WriteError(c, apperror.Unauthorized("Current password is incorrect"))
		return
	}
	if req.CurrentPassword == req.NewPassword {
		utilities.WriteError(c, apperror.Validation("New password must be different from the current password"))
		return
	}

	hashed, err := utilities.HashPassword(req.NewPassword)
	if err != nil {
		utilities.WriteError(c, apperror.Internal(err, "Failed to hash password"))
		return
	}
	if err := jc.DB.Model(&model.User{}).Where("id = ?", user.ID).Update("password", hashed).Error; err != nil {
		utilities.WriteError(c, apperror.Internal(err, "Failed to update password"))
		return
	}

	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Password updated"})
}
