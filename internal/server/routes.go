// Package server contain implementation of go-gin-server and each route handlers
package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	// Init swagger doc
	_ "github.com/Internmain07/I-INTERN/docs"

	"github.com/Internmain07/I-INTERN/internal/auth"
	"github.com/Internmain07/I-INTERN/internal/controller/admin"
	"github.com/Internmain07/I-INTERN/internal/controller/application"
	"github.com/Internmain07/I-INTERN/internal/controller/company"
	"github.com/Internmain07/I-INTERN/internal/controller/file"
	"github.com/Internmain07/I-INTERN/internal/controller/internship"
	"github.com/Internmain07/I-INTERN/internal/controller/profile"
	"github.com/Internmain07/I-INTERN/internal/logger"
	"github.com/Internmain07/I-INTERN/internal/middleware"
	"github.com/Internmain07/I-INTERN/internal/model"
)

const (
	uploadLimit = 10 << 20
	bodyLimit   = 1 << 20
)

// RegisterRoutes will register each http endpoint routes to bound Server instance
func (s *MyServer) RegisterRoutes() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), logger.GinLogger(s.Log), middleware.SafeHeader())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.Cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	lAuth := auth.NewLocalAuthHandler(s.DB, s.Tokens, s.Notifier, s.Cfg, s.Log)
	logout := auth.NewLogoutController(s.Blacklist, s.Cfg.Cookie, s.Log)
	fileController := file.NewFileController(s.DB, s.Storage, s.Log)
	internshipController := internship.NewInternshipController(s.DB, s.Cfg.BypassVerification)
	applicationController := application.NewApplicationController(s.DB, s.Lifecycle)
	profileController := profile.NewProfileController(s.DB)
	adminController := admin.NewAdminController(s.DB, fileController, s.Log)
	companyController, err := company.NewCompanyController(s.DB)
	if err != nil {
		s.Log.Fatal("Failed to create company controller", zap.Error(err))
	}

	rateLimit := middleware.RateLimiterMiddleware(s.Cfg.RateLimitPerSecond)

	r.GET("/", s.HelloWorldHandler)
	r.GET("/health", s.healthHandler)
	v1 := r.Group("/api/v1")
	v1.Use(middleware.SizeLimit(uploadLimit))
	{
		authRoute := v1.Group("/auth")
		{
			authRoute.Use(rateLimit)
			if s.Cfg.Google.Enabled() {
				gAuth := auth.NewOauthLoginHandler(s.DB, auth.NewGoogleOauthConfig(s.Cfg.Google), s.States, s.Tokens, s.Cfg, s.Log)
				authRoute.GET("google/login", gAuth.GoogleLoginHandler)
				authRoute.GET("google/callback", gAuth.GoogleCallbackHandler)
			}

			authRoute.POST("login", lAuth.LoginHandler)
			authRoute.POST("register", lAuth.RegisterHandler)
			authRoute.POST("send-verification", lAuth.SendVerificationHandler)
			authRoute.POST("verify-email", lAuth.VerifyEmailHandler)
			authRoute.POST("forgot-password", lAuth.ForgotPasswordHandler)
			authRoute.POST("verify-reset-otp", lAuth.VerifyResetOTPHandler)
			authRoute.POST("reset-password", lAuth.ResetPasswordHandler)
		}

		// Public browsing
		v1.GET("stats", internshipController.GetLandingStats)
		v1.GET("internships", internshipController.GetInternships)
		v1.GET("internships/:id", internshipController.GetInternshipByID)
		v1.GET("companies/:company_id", companyController.GetCompanyByID)

		signedIn := v1.Group("")
		{
			signedIn.Use(
				middleware.RequireAuth(s.DB, s.Tokens, s.Cfg.Cookie.Name),
				middleware.JwtBlacklistCheck(s.Blacklist),
			)
			signedIn.POST("auth/logout", logout.LogoutHandler)
		}

		// Any routes
		needAuth := signedIn.Group("")
		{
			needAuth.Use(middleware.CheckSuspension(), rateLimit)
			needAuth.GET("auth/me", lAuth.MeHandler)
			needAuth.GET("file/:id", fileController.GetFile)
			needAuth.POST("profile/avatar", fileController.UploadAvatar)
			needAuth.DELETE("profile/avatar", fileController.DeleteAvatar)

			internRoute := needAuth.Group("")
			{
				internRoute.Use(middleware.CheckRole(model.RoleIntern))
				internRoute.GET("intern/profile", profileController.GetMyProfile)
				internRoute.PATCH("intern/profile", middleware.SizeLimit(bodyLimit), profileController.EditMyProfile)
				internRoute.POST("intern/profile/resume", fileController.UploadResume)
				internRoute.POST("intern/profile/experiences", profileController.AddWorkExperience)
				internRoute.PUT("intern/profile/experiences/:id", profileController.UpdateWorkExperience)
				internRoute.DELETE("intern/profile/experiences/:id", profileController.DeleteWorkExperience)
				internRoute.POST("intern/profile/projects", profileController.AddProject)
				internRoute.PUT("intern/profile/projects/:id", profileController.UpdateProject)
				internRoute.DELETE("intern/profile/projects/:id", profileController.DeleteProject)

				internRoute.GET("intern/internships/matches", internshipController.GetInternshipsWithMatch)
				internRoute.GET("intern/applications", applicationController.GetMyApplications)
				internRoute.GET("intern/offers", applicationController.GetMyOffers)
				internRoute.POST("internships/:id/apply", applicationController.ApplyHandler)
				internRoute.POST("applications/:id/respond", applicationController.RespondToOfferHandler)
			}

			companyRoute := needAuth.Group("")
			{
				companyRoute.Use(middleware.CheckRole(model.RoleCompany))
				companyRoute.GET("company/profile", companyController.GetCompanyProfile)
				companyRoute.PATCH("company/profile", middleware.SizeLimit(bodyLimit), companyController.EditCompanyProfile)
				companyRoute.POST("company/profile/logo", fileController.UploadLogo)
				companyRoute.PUT("company/password", companyController.ChangePassword)

				companyRoute.POST("internships", internshipController.CreateInternship)
				companyRoute.GET("company/internships", internshipController.GetMyInternships)
				companyRoute.GET("company/dashboard/stats", internshipController.GetDashboardStats)
				companyRoute.GET("company/dashboard/funnel", internshipController.GetHiringFunnel)
				companyRoute.GET("company/dashboard/monthly", internshipController.GetMonthlyApplications)

				companyRoute.GET("internships/:id/applicants", applicationController.GetRankedApplicants)
				companyRoute.GET("company/applicants", applicationController.GetCompanyApplicants)
				companyRoute.PATCH("applications/:id/status", applicationController.UpdateStatusHandler)
			}

			needCompanyAdmin := needAuth.Group("")
			{
				needCompanyAdmin.Use(middleware.CheckRole(model.RoleAdmin, model.RoleCompany))
				needCompanyAdmin.PATCH("internships/:id", internshipController.UpdateInternship)
				needCompanyAdmin.DELETE("internships/:id", internshipController.DeleteInternship)
			}

			needAdmin := needAuth.Group("/admin")
			{
				needAdmin.Use(middleware.CheckRole(model.RoleAdmin))
				needAdmin.GET("stats", adminController.GetDashboardStats)
				needAdmin.GET("activities", adminController.GetRecentActivities)
				needAdmin.GET("analytics/weekly-activity", adminController.GetWeeklyActivity)

				needAdmin.GET("users", adminController.GetUsers)
				needAdmin.PATCH("users/:user_id", adminController.UpdateUser)
				needAdmin.DELETE("users/:user_id", adminController.DeleteUser)
				needAdmin.PATCH("users/:user_id/suspend", adminController.SuspendUser)
				needAdmin.PATCH("users/:user_id/unsuspend", adminController.UnsuspendUser)

				needAdmin.GET("companies", adminController.GetCompanies)
				needAdmin.PATCH("companies/:company_id", adminController.UpdateCompany)
				needAdmin.PATCH("companies/:company_id/verify", adminController.VerifyCompany)
				needAdmin.PATCH("companies/:company_id/suspend", adminController.SuspendCompany)
				needAdmin.PATCH("companies/:company_id/unsuspend", adminController.UnsuspendCompany)

				needAdmin.GET("internships", adminController.GetInternships)
				needAdmin.PATCH("internships/:id", internshipController.UpdateInternship)
				needAdmin.DELETE("internships/:id", internshipController.DeleteInternship)
				needAdmin.PATCH("internships/:id/approve", adminController.ApproveInternship)
				needAdmin.PATCH("internships/:id/suspend", adminController.SuspendInternship)
				needAdmin.PATCH("internships/:id/unsuspend", adminController.UnsuspendInternship)
			}
		}
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// HelloWorldHandler handle request by return message "Hello World"
func (s *MyServer) HelloWorldHandler(c *gin.Context) {
	resp := make(map[string]string)
	resp["message"] = "Hello World"

	c.JSON(http.StatusOK, resp)
}

func (s *MyServer) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.DB.Health())
}
