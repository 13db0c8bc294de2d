package admin

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Internmain07/I-INTERN/internal/apperror"
	"github.com/Internmain07/I-INTERN/internal/model"
	"github.com/Internmain07/I-INTERN/internal/utilities"
)

// AdminUserUpdate lists the user fields an admin may change
type AdminUserUpdate struct {
	FullName      *string `json:"full_name"`
	Phone         *string `json:"phone"`
	IsActive      *bool   `json:"is_active"`
	EmailVerified *bool   `json:"email_verified"`
}

// AdminCompanyUpdate lists the company fields an admin may change
type AdminCompanyUpdate struct {
	model.EditableCompanyInfo
	VerifiedStatus *string `json:"verified_status"`
}

func decodeStrict(c *gin.Context, dst interface{}) bool {
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return false
	}
	return true
}

func (jc *AdminController) setUserSuspended(c *gin.Context, suspended bool) {
	user, err := jc.findUser(c.Param("user_id"))
	if err != nil {
		utilities.WriteError(c, err)
		return
	}
	if user.Role == model.RoleAdmin {
		utilities.WriteError(c, apperror.Forbidden("Admin accounts cannot be suspended"))
		return
	}

	if err := jc.DB.Model(user).Update("is_suspended", suspended).Error; err != nil {
		utilities.WriteError(c, apperror.Internal(err, "Failed to update user"))
		return
	}

	c.JSON(http.StatusOK, user)
}

// SuspendUser blocks a user from every authenticated endpoint
// @Summary Suspend user
// @Description Only admin can access this endpoint
// @Tags Admin
// @Produce json
// @Security ApiKeyAuth
// @Param user_id path string true "User ID"
// @Success 200 {object} model.User
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not logged in as admin or target is admin"
// @Failure 404 {object} utilities.ErrorResponse "User not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/users/{user_id}/suspend [patch]
func (jc *AdminController) SuspendUser(c *gin.Context) {
	jc.setUserSuspended(c, true)
}

// UnsuspendUser lifts a user suspension
// @Summary Unsuspend user
// @Description Only admin can access this endpoint
// @Tags Admin
// @Produce json
// @Security ApiKeyAuth
// @Param user_id path string true "User ID"
// @Success 200 {object} model.User
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not logged in as admin or target is admin"
// @Failure 404 {object} utilities.ErrorResponse "User not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/users/{user_id}/unsuspend [patch]
func (jc *AdminController) UnsuspendUser(c *gin.Context) {
	jc.setUserSuspended(c, false)
}

func (jc *AdminController) setCompanySuspended(c *gin.Context, suspended bool) {
	company, err := jc.findCompany(c.Param("company_id"))
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	err = jc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.User{}).Where("id = ?", company.UserID).
			Update("is_suspended", suspended).Error; err != nil {
			return err
		}
		return tx.Model(&model.Internship{}).Where("employer_user_id = ?", company.UserID).
			Update("is_suspended", suspended).Error
	})
	if err != nil {
		utilities.WriteError(c, apperror.Internal(err, "Failed to update company"))
		return
	}

	company.User.IsSuspended = suspended
	c.JSON(http.StatusOK, company)
}

// SuspendCompany suspends the company account together with all of its internships
// @Summary Suspend company
// @Description Only admin can access this endpoint
// @Tags Admin
// @Produce json
// @Security ApiKeyAuth
// @Param company_id path string true "Company ID"
// @Success 200 {object} model.EmployerProfile
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not logged in as admin"
// @Failure 404 {object} utilities.ErrorResponse "Company not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/companies/{company_id}/suspend [patch]
func (jc *AdminController) SuspendCompany(c *gin.Context) {
	jc.setCompanySuspended(c, true)
}

// UnsuspendCompany reinstates the company account and its internships
// @Summary Unsuspend company
// @Description Only admin can access this endpoint
// @Tags Admin
// @Produce json
// @Security ApiKeyAuth
// @Param company_id path string true "Company ID"
// @Success 200 {object} model.EmployerProfile
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not logged in as admin"
// @Failure 404 {object} utilities.ErrorResponse "Company not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/companies/{company_id}/unsuspend [patch]
func (jc *AdminController) UnsuspendCompany(c *gin.Context) {
	jc.setCompanySuspended(c, false)
}

func (jc *AdminController) setInternshipSuspended(c *gin.Context, suspended bool) {
	internship, err := jc.findInternship(c.Param("id"))
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	if err := jc.DB.Model(internship).Update("is_suspended", suspended).Error; err != nil {
		utilities.WriteError(c, apperror.Internal(err, "Failed to update internship"))
		return
	}
	c.JSON(http.StatusOK, internship)
}

// SuspendInternship hides an internship from students
// @Summary Suspend internship
// @Description Only admin can access this endpoint
// @Tags Admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Internship ID"
// @Success 200 {object} model.Internship
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not logged in as admin"
// @Failure 404 {object} utilities.ErrorResponse "Internship not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/internships/{id}/suspend [patch]
func (jc *AdminController) SuspendInternship(c *gin.Context) {
	jc.setInternshipSuspended(c, true)
}

// UnsuspendInternship makes a suspended internship visible again
// @Summary Unsuspend internship
// @Description Only admin can access this endpoint
// @Tags Admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Internship ID"
// @Success 200 {object} model.Internship
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not logged in as admin"
// @Failure 404 {object} utilities.ErrorResponse "Internship not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/internships/{id}/unsuspend [patch]
func (jc *AdminController) UnsuspendInternship(c *gin.Context) {
	jc.setInternshipSuspended(c, false)
}

// DeleteUser removes a user with everything they own
// @Summary Delete user
// @Description Only admin can access this endpoint. Admin accounts can't be deleted.
// @Tags Admin
// @Produce json
// @Security ApiKeyAuth
// @Param user_id path string true "User ID"
// @Success 200 {object} utilities.MessageResponse
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not logged in as admin or target is admin"
// @Failure 404 {object} utilities.ErrorResponse "User not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/users/{user_id} [delete]
func (jc *AdminController) DeleteUser(c *gin.Context) {
	admin, err := utilities.ExtractUser(c)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	user, err := jc.findUser(c.Param("user_id"))
	if err != nil {
		utilities.WriteError(c, err)
		return
	}
	if user.Role == model.RoleAdmin || user.ID == admin.ID {
		utilities.WriteError(c, apperror.Forbidden("Admin accounts cannot be deleted"))
		return
	}

	err = jc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_id = ?", user.ID).Delete(&model.File{}).Error; err != nil {
			return err
		}
		return tx.Delete(user).Error
	})
	if err != nil {
		utilities.WriteError(c, apperror.Internal(err, "Failed to delete user"))
		return
	}

	if jc.Files != nil {
		if err := jc.Files.PurgeUserFiles(c.Request.Context(), user.ID); err != nil {
			jc.Log.Warn("failed to purge stored files",
				zap.String("user_id", user.ID.String()), zap.Error(err))
		}
	}
	jc.Log.Info("user deleted",
		zap.String("user_id", user.ID.String()),
		zap.String("by", admin.ID.String()))

	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "User deleted"})
}

// UpdateUser lets an admin correct account fields of a user
// @Summary Update user
// @Description Only admin can access this endpoint. Only listed fields are accepted.
// @Tags Admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param user_id path string true "User ID"
// @Param body body AdminUserUpdate true "Fields to change"
// @Success 200 {object} model.User
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not logged in as admin"
// @Failure 404 {object} utilities.ErrorResponse "User not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/users/{user_id} [patch]
func (jc *AdminController) UpdateUser(c *gin.Context) {
	user, err := jc.findUser(c.Param("user_id"))
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	var req AdminUserUpdate
	if !decodeStrict(c, &req) {
		return
	}

	updates := map[string]interface{}{}
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.EmailVerified != nil {
		updates["email_verified"] = *req.EmailVerified
	}
	if len(updates) > 0 {
		if err := jc.DB.Model(user).Updates(updates).Error; err != nil {
			utilities.WriteError(c, apperror.Internal(err, "Failed to update user"))
			return
		}
	}

	user, err = jc.findUser(user.ID.String())
	if err != nil {
		utilities.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateCompany lets an admin edit a company profile, including its verification
// @Summary Update company
// @Description Only admin can access this endpoint. Empty fields are ignored.
// @Tags Admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param company_id path string true "Company ID"
// @Param body body AdminCompanyUpdate true "Fields to change"
// @Success 200 {object} model.EmployerProfile
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body or status"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not logged in as admin"
// @Failure 404 {object} utilities.ErrorResponse "Company not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/companies/{company_id} [patch]
func (jc *AdminController) UpdateCompany(c *gin.Context) {
	company, err := jc.findCompany(c.Param("company_id"))
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	var req AdminCompanyUpdate
	if !decodeStrict(c, &req) {
		return
	}

	utilities.MergeNonEmpty(&company.EditableCompanyInfo, &req.EditableCompanyInfo)
	if req.VerifiedStatus != nil {
		status := titleCase(*req.VerifiedStatus)
		switch status {
		case model.StatusPending, model.StatusVerified, model.StatusUnverified:
			company.VerifiedStatus = status
		default:
			utilities.WriteError(c, apperror.Validation(fmt.Sprintf("Unknown status: %s", status)))
			return
		}
	}

	if err := jc.DB.Omit(clause.Associations).Save(company).Error; err != nil {
		utilities.WriteError(c, apperror.Internal(err, "Failed to update company"))
		return
	}
	c.JSON(http.StatusOK, company)
}
