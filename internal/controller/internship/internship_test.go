package internship

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"

	"github.com/Internmain07/I-INTERN/internal/auth"
	"github.com/Internmain07/I-INTERN/internal/database"
	"github.com/Internmain07/I-INTERN/internal/lifecycle"
	"github.com/Internmain07/I-INTERN/internal/model"
	"github.com/Internmain07/I-INTERN/internal/testutil"
)

var testDB *database.DBinstanceStruct

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	var err error
	var midTeardown func(context.Context, ...testcontainers.TerminateOption) error
	midTeardown, testDB, err = database.GetTestDB()
	if err != nil {
		os.Exit(1)
	}
	code := m.Run()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if midTeardown != nil {
		_ = midTeardown(ctx)
	}
	os.Exit(code)
}

func newRouter(ic *InternshipController) *gin.Engine {
	r := gin.Default()
	company := testutil.Protected(testDB, model.RoleCompany)
	r.POST("/internships", testutil.Chain(company, ic.CreateInternship)...)
	r.GET("/stats", ic.GetLandingStats)
	r.GET("/internships", ic.GetInternships)
	r.GET("/internships/:id", ic.GetInternshipByID)
	r.PATCH("/internships/:id", testutil.Chain(company, ic.UpdateInternship)...)
	r.DELETE("/internships/:id", testutil.Chain(testutil.Protected(testDB, model.RoleCompany, model.RoleAdmin), ic.DeleteInternship)...)
	r.GET("/company/internships", testutil.Chain(company, ic.GetMyInternships)...)
	r.GET("/company/dashboard/stats", testutil.Chain(company, ic.GetDashboardStats)...)
	r.GET("/company/dashboard/funnel", testutil.Chain(company, ic.GetHiringFunnel)...)
	r.GET("/company/dashboard/monthly", testutil.Chain(company, ic.GetMonthlyApplications)...)
	r.GET("/intern/internships/matches", testutil.Chain(testutil.Protected(testDB, model.RoleIntern), ic.GetInternshipsWithMatch)...)
	return r
}

func login(t *testing.T, email string) string {
	t.Helper()
	token, err := auth.GetAccessToken(t, testDB, email, database.TestSeedPassword)
	require.NoError(t, err)
	return token
}

// newCompany creates a verified company nobody else touches, so counts are exact
func newCompany(t *testing.T) (model.User, string) {
	t.Helper()
	user := model.User{
		Email:    uuid.NewString() + "@company.test",
		Role:     model.RoleCompany,
		IsActive: true,
	}
	require.NoError(t, testDB.Create(&user).Error)
	require.NoError(t, testDB.Create(&model.EmployerProfile{
		UserID:              user.ID,
		VerifiedStatus:      model.StatusVerified,
		EditableCompanyInfo: model.EditableCompanyInfo{CompanyName: "Isolated Co"},
	}).Error)

	token, _, err := auth.TestTokens.Generate(user.ID)
	require.NoError(t, err)
	return user, token
}

func newIntern(t *testing.T, skills []string, level string) (model.User, string) {
	t.Helper()
	user := model.User{
		Email:    uuid.NewString() + "@intern.test",
		Role:     model.RoleIntern,
		IsActive: true,
	}
	require.NoError(t, testDB.Create(&user).Error)
	require.NoError(t, testDB.Create(&model.StudentProfile{
		UserID:              user.ID,
		EditableStudentInfo: model.EditableStudentInfo{Skills: skills, SkillLevel: level},
	}).Error)

	token, _, err := auth.TestTokens.Generate(user.ID)
	require.NoError(t, err)
	return user, token
}

func TestCreateInternship_success(t *testing.T) {
	r := newRouter(NewInternshipController(testDB, false))
	token := login(t, database.TestUserCompany1.Email)

	rec, resp := testutil.MakeJSONRequest(gin.H{
		"title":  "Platform Intern",
		"skills": []string{"Go", "Kubernetes"},
		"level":  "Intermediate",
	}, token, r, "/internships", http.MethodPost)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Platform Intern", resp["title"])
	assert.Equal(t, model.InternshipStatusActive, resp["status"])
	assert.Equal(t, database.TestUserCompany1.ID.String(), resp["company_id"])
	assert.NotEmpty(t, resp["date_posted"])
}

func TestCreateInternship_unverifiedCompany(t *testing.T) {
	token := login(t, database.TestUserCompany2.Email)
	body := gin.H{"title": "Ops Intern"}

	rec, resp := testutil.MakeJSONRequest(body, token, newRouter(NewInternshipController(testDB, false)), "/internships", http.MethodPost)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Only verified companies can create internships", resp["error"])

	rec, _ = testutil.MakeJSONRequest(body, token, newRouter(NewInternshipController(testDB, true)), "/internships", http.MethodPost)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestCreateInternship_invalidBody(t *testing.T) {
	r := newRouter(NewInternshipController(testDB, false))
	token := login(t, database.TestUserCompany1.Email)

	tests := []struct {
		name string
		body gin.H
	}{
		{"missing title", gin.H{"description": "no title"}},
		{"unknown field", gin.H{"title": "x", "employer_user_id": uuid.NewString()}},
		{"bad level", gin.H{"title": "x", "level": "wizard"}},
		{"bad status", gin.H{"title": "x", "status": "Archived"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := testutil.MakeJSONRequest(tt.body, token, r, "/internships", http.MethodPost)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreateInternship_internForbidden(t *testing.T) {
	r := newRouter(NewInternshipController(testDB, false))
	token := login(t, database.TestUserIntern1.Email)

	rec, _ := testutil.MakeJSONRequest(gin.H{"title": "x"}, token, r, "/internships", http.MethodPost)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetInternships_filters(t *testing.T) {
	r := newRouter(NewInternshipController(testDB, false))

	rec, resp := testutil.MakeJSONArrayRequest(nil, "", r, "/internships?search=backend", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, resp)
	for _, item := range resp {
		assert.Equal(t, model.InternshipStatusActive, item["status"])
	}
	assert.Equal(t, database.TestInternship1.Title, resp[0]["title"])
	assert.Equal(t, "TechNova", resp[0]["company_name"])

	rec, resp = testutil.MakeJSONArrayRequest(nil, "", r, "/internships?skill=python&company=dataforge", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp, 1)
	assert.Equal(t, database.TestInternship3.ID.String(), resp[0]["id"])
}

func TestGetInternships_hidesSuspended(t *testing.T) {
	r := newRouter(NewInternshipController(testDB, false))
	company, _ := newCompany(t)
	hidden, err := database.CreateTestInternship(testDB, company, "Suspended Posting Zeta")
	require.NoError(t, err)
	require.NoError(t, testDB.Model(&hidden).Update("is_suspended", true).Error)

	rec, resp := testutil.MakeJSONArrayRequest(nil, "", r, "/internships?search=Zeta", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, resp)

	rec, _ = testutil.MakeJSONRequest(nil, "", r, "/internships/"+hidden.ID.String(), http.MethodGet)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetInternshipByID(t *testing.T) {
	r := newRouter(NewInternshipController(testDB, false))

	rec, resp := testutil.MakeJSONRequest(nil, "", r, "/internships/"+database.TestInternship2.ID.String(), http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, database.TestInternship2.Title, resp["title"])

	rec, resp = testutil.MakeJSONRequest(nil, "", r, "/internships/"+uuid.NewString(), http.MethodGet)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Internship not found", resp["error"])

	rec, _ = testutil.MakeJSONRequest(nil, "", r, "/internships/not-a-uuid", http.MethodGet)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateInternship(t *testing.T) {
	r := newRouter(NewInternshipController(testDB, false))
	company, token := newCompany(t)
	posting, err := database.CreateTestInternship(testDB, company, "Before", "Go")
	require.NoError(t, err)

	rec, resp := testutil.MakeJSONRequest(gin.H{
		"title":  "After",
		"skills": []string{"Go", "gRPC"},
	}, token, r, "/internships/"+posting.ID.String(), http.MethodPatch)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "After", resp["title"])
	assert.Equal(t, []interface{}{"Go", "gRPC"}, resp["skills"])
	assert.Equal(t, "beginner", resp["level"], "absent fields are untouched")

	// ownership
	other := login(t, database.TestUserCompany1.Email)
	rec, _ = testutil.MakeJSONRequest(gin.H{"title": "Hijack"}, other, r, "/internships/"+posting.ID.String(), http.MethodPatch)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// fields outside the allow list
	rec, _ = testutil.MakeJSONRequest(gin.H{"is_suspended": true}, token, r, "/internships/"+posting.ID.String(), http.MethodPatch)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = testutil.MakeJSONRequest(gin.H{"status": "Bogus"}, token, r, "/internships/"+posting.ID.String(), http.MethodPatch)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteInternship(t *testing.T) {
	r := newRouter(NewInternshipController(testDB, false))
	company, token := newCompany(t)
	posting, err := database.CreateTestInternship(testDB, company, "To Delete")
	require.NoError(t, err)
	_, err = database.CreateTestApplication(testDB, database.TestUserIntern1, posting, "pending")
	require.NoError(t, err)

	other := login(t, database.TestUserCompany1.Email)
	rec, _ := testutil.MakeJSONRequest(nil, other, r, "/internships/"+posting.ID.String(), http.MethodDelete)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = testutil.MakeJSONRequest(nil, token, r, "/internships/"+posting.ID.String(), http.MethodDelete)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var count int64
	require.NoError(t, testDB.Model(&model.Application{}).Where("internship_id = ?", posting.ID).Count(&count).Error)
	assert.Zero(t, count, "applications are deleted with their internship")
}

func TestGetMyInternships_applicantCounts(t *testing.T) {
	r := newRouter(NewInternshipController(testDB, false))
	company, token := newCompany(t)
	popular, err := database.CreateTestInternship(testDB, company, "Popular")
	require.NoError(t, err)
	_, err = database.CreateTestInternship(testDB, company, "Quiet")
	require.NoError(t, err)
	_, err = database.CreateTestApplication(testDB, database.TestUserIntern1, popular, "pending")
	require.NoError(t, err)
	_, err = database.CreateTestApplication(testDB, database.TestUserIntern2, popular, "reviewed")
	require.NoError(t, err)

	rec, resp := testutil.MakeJSONArrayRequest(nil, token, r, "/company/internships", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp, 2)

	counts := map[string]interface{}{}
	for _, item := range resp {
		counts[item["title"].(string)] = item["applicant_count"]
	}
	assert.Equal(t, float64(2), counts["Popular"])
	assert.Nil(t, counts["Quiet"], "zero counts are omitted")
}

func TestGetInternshipsWithMatch_ranked(t *testing.T) {
	r := newRouter(NewInternshipController(testDB, false))
	company, _ := newCompany(t)
	intern, token := newIntern(t, []string{"Rust", "WebAssembly"}, "advanced")

	best, err := database.CreateTestInternship(testDB, company, "Rust Wasm Intern", "rust", "webassembly")
	require.NoError(t, err)
	_, err = database.CreateTestApplication(testDB, intern, best, "pending")
	require.NoError(t, err)

	rec, resp := testutil.MakeJSONArrayRequest(nil, token, r, "/intern/internships/matches", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotEmpty(t, resp)

	top := resp[0]
	assert.Equal(t, best.ID.String(), top["id"])
	assert.Equal(t, "100%", top["match_score"])
	assert.Equal(t, true, top["user_applied"])

	details := top["match_details"].(map[string]interface{})
	assert.Equal(t, float64(100), details["overall_match_percentage"])
	assert.Equal(t, []interface{}{"rust", "webassembly"}, details["matching_skills"])

	var previous float64 = 101
	for _, item := range resp {
		score := item["match_details"].(map[string]interface{})["overall_match_percentage"].(float64)
		assert.LessOrEqual(t, score, previous)
		previous = score
	}
}

func TestGetInternshipsWithMatch_companyForbidden(t *testing.T) {
	r := newRouter(NewInternshipController(testDB, false))
	token := login(t, database.TestUserCompany1.Email)

	rec, _ := testutil.MakeJSONRequest(nil, token, r, "/intern/internships/matches", http.MethodGet)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDashboard(t *testing.T) {
	r := newRouter(NewInternshipController(testDB, false))
	company, token := newCompany(t)
	posting, err := database.CreateTestInternship(testDB, company, "Dashboard Intern")
	require.NoError(t, err)
	closed, err := database.CreateTestInternship(testDB, company, "Closed Intern")
	require.NoError(t, err)
	require.NoError(t, testDB.Model(&closed).Update("status", model.InternshipStatusClosed).Error)

	statuses := []string{"pending", "Under Review", "offered", "accepted", "hired", "rejected"}
	for _, status := range statuses {
		student, _ := newIntern(t, nil, "")
		_, err := database.CreateTestApplication(testDB, student, posting, status)
		require.NoError(t, err)
	}

	rec, resp := testutil.MakeJSONRequest(nil, token, r, "/company/dashboard/stats", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(2), resp["total_internships"])
	assert.Equal(t, float64(1), resp["active_internships"])
	assert.Equal(t, float64(6), resp["total_applicants"])
	assert.Equal(t, float64(2), resp["total_hires"])
	assert.Equal(t, float64(1), resp["pending_reviews"])
	assert.Equal(t, float64(1), resp["by_status"].(map[string]interface{})["reviewed"])

	rec, resp = testutil.MakeJSONRequest(nil, token, r, "/company/dashboard/funnel", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(6), resp["applied"])
	assert.Equal(t, float64(4), resp["reviewed"])
	assert.Equal(t, float64(3), resp["offered"])
	assert.Equal(t, float64(2), resp["accepted"])
	assert.Equal(t, float64(1), resp["hired"])

	rec, months := testutil.MakeJSONArrayRequest(nil, token, r, "/company/dashboard/monthly", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, months, trendMonths)
	current := months[trendMonths-1]
	assert.Equal(t, time.Now().Format("Jan"), current["month"])
	assert.Equal(t, float64(6), current["total_applications"])
	assert.Equal(t, float64(2), current["hired"])
	assert.Equal(t, float64(1), current["rejected"])
}

func TestFunnelFrom(t *testing.T) {
	counts := countByStatus([]statusCount{
		{Status: "pending", Count: 4},
		{Status: "Offer Sent", Count: 2},
		{Status: "offered", Count: 1},
		{Status: "declined", Count: 1},
		{Status: "rejected", Count: 3},
	})
	assert.Equal(t, HiringFunnel{Applied: 11, Reviewed: 4, Offered: 4, Accepted: 0, Hired: 0}, funnelFrom(counts))
	assert.Equal(t, HiringFunnel{}, funnelFrom(map[lifecycle.Status]int64{}))
}

func TestMonthlyTrend(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	rows := []datedStatus{
		{ApplicationDate: time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC), Status: "pending"},
		{ApplicationDate: time.Date(2025, time.December, 31, 23, 0, 0, 0, time.UTC), Status: "hired"},
		{ApplicationDate: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), Status: "Rejected"},
		{ApplicationDate: time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC), Status: "offer_accepted"},
		// before the window
		{ApplicationDate: time.Date(2025, time.September, 30, 0, 0, 0, 0, time.UTC), Status: "pending"},
	}

	got := monthlyTrend(now, rows)
	require.Len(t, got, trendMonths)
	assert.Equal(t, MonthlyApplications{Month: "Oct", Year: 2025, TotalApplications: 1}, got[0])
	assert.Equal(t, MonthlyApplications{Month: "Nov", Year: 2025}, got[1])
	assert.Equal(t, MonthlyApplications{Month: "Dec", Year: 2025, TotalApplications: 1, Hired: 1}, got[2])
	assert.Equal(t, MonthlyApplications{Month: "Mar", Year: 2026, TotalApplications: 2, Hired: 1, Rejected: 1}, got[5])
}

func TestGetLandingStats(t *testing.T) {
	r := newRouter(NewInternshipController(testDB, false))

	rec, before := testutil.MakeJSONRequest(nil, "", r, "/stats", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.GreaterOrEqual(t, before["students_registered"], float64(2))

	company, _ := newCompany(t)
	_, err := database.CreateTestInternship(testDB, company, "Landing Counted")
	require.NoError(t, err)
	newIntern(t, nil, "")

	rec, after := testutil.MakeJSONRequest(nil, "", r, "/stats", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, key := range []string{"internships_posted", "companies_registered", "students_registered"} {
		assert.Equal(t, before[key].(float64)+1, after[key], key)
	}
}
