// Package application provides HTTP handlers for internship application operations.
package application

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Internmain07/I-INTERN/internal/apperror"
	"github.com/Internmain07/I-INTERN/internal/database"
	"github.com/Internmain07/I-INTERN/internal/lifecycle"
	"github.com/Internmain07/I-INTERN/internal/match"
	"github.com/Internmain07/I-INTERN/internal/model"
	"github.com/Internmain07/I-INTERN/internal/utilities"
)

// ApplicationController handles internship application related endpoints
type ApplicationController struct {
	DB        *database.DBinstanceStruct
	Lifecycle *lifecycle.Service
}

// NewApplicationController creates a new instance of ApplicationController
func NewApplicationController(db *database.DBinstanceStruct, svc *lifecycle.Service) *ApplicationController {
	return &ApplicationController{
		DB:        db,
		Lifecycle: svc,
	}
}

// ApplyRequest optionally names the resume to attach. The profile resume is used otherwise.
type ApplyRequest struct {
	ResumeID *int `json:"resume_id"`
}

// StatusUpdateRequest is the body of a status change
type StatusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
}

// OfferResponseRequest is the body of an answer to an offer
type OfferResponseRequest struct {
	Response string `json:"response" binding:"required"`
}

// StatusUpdateResponse is the updated application and whether an offer email was queued
type StatusUpdateResponse struct {
	Message        string            `json:"message"`
	Application    model.Application `json:"application"`
	PreviousStatus string            `json:"previous_status"`
	EmailTriggered bool              `json:"email_triggered"`
}

func pathID(c *gin.Context, notFound string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperror.NotFound(notFound)
	}
	return id, nil
}

// ApplyHandler creates a pending application of the current intern.
// @Summary Apply to an internship
// @Description Only interns can apply, once per internship
// @Tags Application
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Internship ID"
// @Param application body ApplyRequest false "Resume to attach"
// @Success 201 {object} model.Application "Successfully applied"
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body, internship not accepting applications"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as intern"
// @Failure 404 {object} utilities.ErrorResponse "Internship not found"
// @Failure 409 {object} utilities.ErrorResponse "Already applied"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /internships/{id}/apply [post]
func (ac *ApplicationController) ApplyHandler(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	internshipID, err := pathID(c, "Internship not found")
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	var req ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return
	}

	resumeID, err := ac.resolveResume(user.ID, req.ResumeID)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	app, err := ac.Lifecycle.Apply(c.Request.Context(), user.ID, internshipID, resumeID)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, app)
}

// resolveResume checks that a requested resume belongs to the student, or falls
// back to the resume on their profile
func (ac *ApplicationController) resolveResume(studentID uuid.UUID, requested *int) (*int, error) {
	if requested == nil {
		var profile model.StudentProfile
		if err := ac.DB.Select("resume_id").Where("user_id = ?", studentID).First(&profile).Error; err != nil {
			return nil, apperror.FromDB(err, "Profile not found")
		}
		return profile.ResumeID, nil
	}

	var file model.File
	if err := ac.DB.Select("id", "owner_id").Where("id = ?", *requested).First(&file).Error; err != nil {
		return nil, apperror.FromDB(err, "Resume not found")
	}
	if file.OwnerID == nil || *file.OwnerID != studentID {
		return nil, apperror.Forbidden("You can only attach your own resume")
	}
	return requested, nil
}

// GetMyApplications lists the current intern's applications.
// @Summary Get my applications
// @Description Ordered hired, offered, accepted, pending, reviewed, rejected, declined, newest first within a status
// @Tags Application
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} model.StudentApplicationView
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as intern"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /intern/applications [get]
func (ac *ApplicationController) GetMyApplications(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	views, err := ac.studentApplications(user.ID)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// GetMyOffers lists the current intern's applications holding an offer.
// @Summary Get my offers
// @Description Applications with status offered or accepted
// @Tags Application
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} model.StudentApplicationView
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as intern"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /intern/offers [get]
func (ac *ApplicationController) GetMyOffers(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	views, err := ac.studentApplications(user.ID)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	offers := make([]model.StudentApplicationView, 0, len(views))
	for _, v := range views {
		if slices.Contains(lifecycle.OfferStatuses, lifecycle.Canonical(v.Status)) {
			offers = append(offers, v)
		}
	}
	c.JSON(http.StatusOK, offers)
}

func (ac *ApplicationController) studentApplications(studentID uuid.UUID) ([]model.StudentApplicationView, error) {
	var apps []model.Application
	if err := ac.DB.
		Preload("Internship").
		Preload("Internship.Employer").
		Where("student_id = ?", studentID).
		Order("application_date DESC").
		Find(&apps).Error; err != nil {
		return nil, apperror.Internal(err, "Failed to fetch applications")
	}

	slices.SortStableFunc(apps, func(a, b model.Application) int {
		return lifecycle.Priority(a.Status) - lifecycle.Priority(b.Status)
	})

	views := make([]model.StudentApplicationView, 0, len(apps))
	for _, app := range apps {
		app.Status = lifecycle.Canonical(app.Status).String()
		views = append(views, model.StudentApplicationView{
			Application:     app,
			InternshipTitle: app.Internship.Title,
			CompanyName:     app.Internship.Employer.CompanyName,
			Location:        app.Internship.Location,
			Stipend:         app.Internship.Stipend,
		})
	}
	return views, nil
}

// applicantView builds the company facing view of an application with the
// contact gate applied
func applicantView(app model.Application, profile *model.StudentProfile) model.ApplicantView {
	view := model.ApplicantView{
		ApplicationID:     app.ID,
		InternshipID:      app.InternshipID,
		InternshipTitle:   app.Internship.Title,
		StudentID:         app.StudentID,
		FullName:          app.Student.FullName,
		Status:            lifecycle.Canonical(app.Status).String(),
		ApplicationDate:   app.ApplicationDate,
		OfferSentDate:     app.OfferSentDate,
		OfferResponseDate: app.OfferResponseDate,
		HiredDate:         app.HiredDate,
		ResumeID:          app.ResumeID,
		ContactInfo: model.ContactInfo{
			Email: &app.Student.Email,
			Phone: app.Student.Phone,
		},
		Profile: model.NewApplicantProfile(profile),
	}
	lifecycle.RedactContact(&view)
	return view
}

// profilesOf loads the student profiles, with work history and projects, of the applicants
func (ac *ApplicationController) profilesOf(apps []model.Application) (map[uuid.UUID]*model.StudentProfile, error) {
	ids := make([]uuid.UUID, 0, len(apps))
	for _, app := range apps {
		ids = append(ids, app.StudentID)
	}

	profiles := make(map[uuid.UUID]*model.StudentProfile, len(ids))
	if len(ids) == 0 {
		return profiles, nil
	}

	var rows []model.StudentProfile
	if err := ac.DB.
		Preload("WorkExperiences").
		Preload("Projects").
		Where("user_id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		profiles[rows[i].UserID] = &rows[i]
	}
	return profiles, nil
}

// GetRankedApplicants lists the applicants of one internship, best match first.
// @Summary Get ranked applicants of an internship
// @Description Only the company that owns the internship can access this endpoint. Contact data is only shown for accepted or hired applicants.
// @Tags Application
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Internship ID"
// @Success 200 {array} model.ApplicantView
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not the owner of the internship"
// @Failure 404 {object} utilities.ErrorResponse "Internship not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /internships/{id}/applicants [get]
func (ac *ApplicationController) GetRankedApplicants(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	internshipID, err := pathID(c, "Internship not found")
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	var internship model.Internship
	if err := ac.DB.Where("id = ?", internshipID).First(&internship).Error; err != nil {
		utilities.WriteError(c, apperror.FromDB(err, "Internship not found"))
		return
	}
	if internship.EmployerUserID != user.ID {
		utilities.WriteError(c, apperror.Forbidden("You can only view applicants of your own internships"))
		return
	}

	var apps []model.Application
	if err := ac.DB.
		Preload("Student").
		Where("internship_id = ?", internship.ID).
		Order("application_date ASC").
		Find(&apps).Error; err != nil {
		utilities.WriteError(c, apperror.Internal(err, "Failed to fetch applicants"))
		return
	}

	profiles, err := ac.profilesOf(apps)
	if err != nil {
		utilities.WriteError(c, apperror.Internal(err, "Failed to fetch applicant profiles"))
		return
	}

	views := make([]model.ApplicantView, 0, len(apps))
	for _, app := range apps {
		app.Internship = internship
		views = append(views, applicantView(app, profiles[app.StudentID]))
	}

	posting := match.Requirement{Skills: match.SkillSetFromList(internship.Skills), Level: internship.Level}
	ranked := match.RankCandidates(posting, views, func(v model.ApplicantView) match.Requirement {
		if v.Profile == nil {
			return match.Requirement{}
		}
		return match.Requirement{Skills: match.SkillSetFromList(v.Profile.Skills), Level: v.Profile.SkillLevel}
	})

	resp := make([]model.ApplicantView, 0, len(ranked))
	for _, r := range ranked {
		result := r.Result
		view := r.Item
		view.MatchScore = result.MatchScore()
		view.Match = &result
		resp = append(resp, view)
	}
	c.JSON(http.StatusOK, resp)
}

// GetCompanyApplicants lists every applicant of the current company's internships.
// @Summary Get all applicants of my internships
// @Description Newest first. Contact data is only shown for accepted or hired applicants.
// @Tags Application
// @Produce json
// @Security ApiKeyAuth
// @Param status query string false "Only applications with this status, any accepted spelling"
// @Success 200 {array} model.ApplicantView
// @Failure 400 {object} utilities.ErrorResponse "Invalid status"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as company"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /company/applicants [get]
func (ac *ApplicationController) GetCompanyApplicants(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	var filter lifecycle.Status
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		s, ok := lifecycle.ParseStatus(raw)
		if !ok {
			utilities.WriteError(c, apperror.Newf(apperror.KindValidation, "Invalid status '%s'", raw))
			return
		}
		filter = s
	}

	var apps []model.Application
	if err := ac.DB.
		Preload("Student").
		Preload("Internship").
		Joins("JOIN internships ON internships.id = applications.internship_id").
		Where("internships.employer_user_id = ?", user.ID).
		Order("applications.application_date DESC").
		Find(&apps).Error; err != nil {
		utilities.WriteError(c, apperror.Internal(err, "Failed to fetch applicants"))
		return
	}

	profiles, err := ac.profilesOf(apps)
	if err != nil {
		utilities.WriteError(c, apperror.Internal(err, "Failed to fetch applicant profiles"))
		return
	}

	views := make([]model.ApplicantView, 0, len(apps))
	for _, app := range apps {
		if filter != "" && lifecycle.Canonical(app.Status) != filter {
			continue
		}
		views = append(views, applicantView(app, profiles[app.StudentID]))
	}
	c.JSON(http.StatusOK, views)
}

// UpdateStatusHandler moves an application to a new status.
// @Summary Update application status
// @Description Only the company that owns the internship can change the status. Sending an offer for the first time emails the applicant.
// @Tags Application
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Application ID"
// @Param status body StatusUpdateRequest true "New status"
// @Success 200 {object} StatusUpdateResponse
// @Failure 400 {object} utilities.ErrorResponse "Invalid status"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not the owner of the internship"
// @Failure 404 {object} utilities.ErrorResponse "Application not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /applications/{id}/status [patch]
func (ac *ApplicationController) UpdateStatusHandler(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	id, err := pathID(c, "Application not found")
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	var req StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return
	}

	res, err := ac.Lifecycle.TransitionStatus(c.Request.Context(), id, req.Status, lifecycle.Actor{
		UserID: user.ID,
		Role:   user.Role,
	})
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, StatusUpdateResponse{
		Message:        fmt.Sprintf("Application status updated to %s", res.Application.Status),
		Application:    *res.Application,
		PreviousStatus: res.Previous.String(),
		EmailTriggered: res.EmailTriggered,
	})
}

// RespondToOfferHandler records the current intern's answer to an offer.
// @Summary Respond to an offer
// @Description Only the applicant can respond, with accepted or declined
// @Tags Application
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Application ID"
// @Param response body OfferResponseRequest true "accepted or declined"
// @Success 200 {object} model.Application
// @Failure 400 {object} utilities.ErrorResponse "Invalid response, no offer to respond to"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not the applicant"
// @Failure 404 {object} utilities.ErrorResponse "Application not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /applications/{id}/respond [post]
func (ac *ApplicationController) RespondToOfferHandler(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	id, err := pathID(c, "Application not found")
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	var req OfferResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return
	}

	app, err := ac.Lifecycle.RespondToOffer(c.Request.Context(), id, req.Response, user.ID)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}
