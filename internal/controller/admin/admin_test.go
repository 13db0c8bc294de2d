package admin

import (
	"context"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"

	"github.com/Internmain07/I-INTERN/internal/auth"
	"github.com/Internmain07/I-INTERN/internal/database"
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

type recordingPurger struct {
	mu     sync.Mutex
	purged []uuid.UUID
}

func (p *recordingPurger) PurgeUserFiles(_ context.Context, userID uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.purged = append(p.purged, userID)
	return nil
}

func newRouter(files FilePurger) *gin.Engine {
	return routerFor(NewAdminController(testDB, files, nil))
}

func routerFor(jc *AdminController) *gin.Engine {
	admin := testutil.Protected(testDB, model.RoleAdmin)

	r := gin.Default()
	r.GET("/admin/stats", testutil.Chain(admin, jc.GetDashboardStats)...)
	r.GET("/admin/activities", testutil.Chain(admin, jc.GetRecentActivities)...)
	r.GET("/admin/analytics/weekly-activity", testutil.Chain(admin, jc.GetWeeklyActivity)...)
	r.GET("/admin/users", testutil.Chain(admin, jc.GetUsers)...)
	r.PATCH("/admin/users/:user_id", testutil.Chain(admin, jc.UpdateUser)...)
	r.DELETE("/admin/users/:user_id", testutil.Chain(admin, jc.DeleteUser)...)
	r.PATCH("/admin/users/:user_id/suspend", testutil.Chain(admin, jc.SuspendUser)...)
	r.PATCH("/admin/users/:user_id/unsuspend", testutil.Chain(admin, jc.UnsuspendUser)...)
	r.GET("/admin/companies", testutil.Chain(admin, jc.GetCompanies)...)
	r.PATCH("/admin/companies/:company_id", testutil.Chain(admin, jc.UpdateCompany)...)
	r.PATCH("/admin/companies/:company_id/verify", testutil.Chain(admin, jc.VerifyCompany)...)
	r.PATCH("/admin/companies/:company_id/suspend", testutil.Chain(admin, jc.SuspendCompany)...)
	r.PATCH("/admin/companies/:company_id/unsuspend", testutil.Chain(admin, jc.UnsuspendCompany)...)
	r.GET("/admin/internships", testutil.Chain(admin, jc.GetInternships)...)
	r.PATCH("/admin/internships/:id/approve", testutil.Chain(admin, jc.ApproveInternship)...)
	r.PATCH("/admin/internships/:id/suspend", testutil.Chain(admin, jc.SuspendInternship)...)
	r.PATCH("/admin/internships/:id/unsuspend", testutil.Chain(admin, jc.UnsuspendInternship)...)
	return r
}

func adminToken(t *testing.T) string {
	t.Helper()
	token, err := auth.GetAccessToken(t, testDB, database.TestAdminUser.Email, database.TestSeedPassword)
	require.NoError(t, err)
	return token
}

// newCompany creates a pending company with one active internship
func newCompany(t *testing.T) (model.User, model.Internship) {
	t.Helper()
	user := model.User{
		Email:    uuid.NewString() + "@company.test",
		FullName: "Moderated Owner",
		Role:     model.RoleCompany,
		IsActive: true,
	}
	require.NoError(t, testDB.Create(&user).Error)
	require.NoError(t, testDB.Create(&model.EmployerProfile{
		UserID:              user.ID,
		EditableCompanyInfo: model.EditableCompanyInfo{CompanyName: "Moderated Co"},
	}).Error)
	internship, err := database.CreateTestInternship(testDB, user, "Moderated Intern", "Go")
	require.NoError(t, err)
	return user, internship
}

func newIntern(t *testing.T) model.User {
	t.Helper()
	user := model.User{
		Email:    uuid.NewString() + "@intern.test",
		FullName: "Moderated Intern",
		Role:     model.RoleIntern,
		IsActive: true,
	}
	require.NoError(t, testDB.Create(&user).Error)
	require.NoError(t, testDB.Create(&model.StudentProfile{UserID: user.ID}).Error)
	return user
}

func TestAdminEndpoints_requireAdmin(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestUserCompany1.Email, database.TestSeedPassword)
	require.NoError(t, err)

	rec, _ := testutil.MakeJSONRequest(nil, token, newRouter(nil), "/admin/stats", http.MethodGet)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = testutil.MakeJSONRequest(nil, "", newRouter(nil), "/admin/stats", http.MethodGet)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetDashboardStats(t *testing.T) {
	rec, resp := testutil.MakeJSONRequest(nil, adminToken(t), newRouter(nil), "/admin/stats", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.GreaterOrEqual(t, resp["total_interns"], float64(2))
	assert.GreaterOrEqual(t, resp["total_companies"], float64(2))
	assert.GreaterOrEqual(t, resp["verified_companies"], float64(1))
	assert.GreaterOrEqual(t, resp["total_internships"], float64(3))
}

func TestGetUsers(t *testing.T) {
	r := newRouter(nil)
	token := adminToken(t)

	rec, users := testutil.MakeJSONArrayRequest(nil, token, r, "/admin/users?role=intern", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotEmpty(t, users)
	for _, u := range users {
		assert.Equal(t, model.RoleIntern, u["role"])
	}

	rec, users = testutil.MakeJSONArrayRequest(nil, token, r, "/admin/users?search="+database.TestUserIntern1.Email, http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, users, 1)
	assert.Equal(t, database.TestUserIntern1.ID.String(), users[0]["id"])
}

func TestGetCompanies(t *testing.T) {
	r := newRouter(nil)
	token := adminToken(t)

	rec, companies := testutil.MakeJSONArrayRequest(nil, token, r, "/admin/companies", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.GreaterOrEqual(t, len(companies), 2)

	rec, companies = testutil.MakeJSONArrayRequest(nil, token, r, "/admin/companies?verify=verified", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, companies)
	for _, c := range companies {
		assert.Equal(t, model.StatusVerified, c["verified_status"])
	}

	rec, companies = testutil.MakeJSONArrayRequest(nil, token, r, "/admin/companies?verify=pending%20unverified", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, c := range companies {
		assert.NotEqual(t, model.StatusVerified, c["verified_status"])
	}
}

func TestVerifyCompany(t *testing.T) {
	r := newRouter(nil)
	token := adminToken(t)
	company, _ := newCompany(t)
	url := "/admin/companies/" + company.ID.String() + "/verify"

	rec, resp := testutil.MakeJSONRequest(nil, token, r, url, http.MethodPatch)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.StatusVerified, resp["verified_status"])

	rec, resp = testutil.MakeJSONRequest(nil, token, r, url+"?status=UNVERIFIED", http.MethodPatch)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.StatusUnverified, resp["verified_status"])

	rec, _ = testutil.MakeJSONRequest(nil, token, r, url+"?status=banana", http.MethodPatch)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = testutil.MakeJSONRequest(nil, token, r, "/admin/companies/"+uuid.NewString()+"/verify", http.MethodPatch)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSuspendCompany_cascadesToInternships(t *testing.T) {
	r := newRouter(nil)
	token := adminToken(t)
	company, internship := newCompany(t)

	rec, _ := testutil.MakeJSONRequest(nil, token, r, "/admin/companies/"+company.ID.String()+"/suspend", http.MethodPatch)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var stored model.Internship
	require.NoError(t, testDB.First(&stored, "id = ?", internship.ID).Error)
	assert.True(t, stored.IsSuspended)
	var user model.User
	require.NoError(t, testDB.First(&user, "id = ?", company.ID).Error)
	assert.True(t, user.IsSuspended)

	rec, _ = testutil.MakeJSONRequest(nil, token, r, "/admin/companies/"+company.ID.String()+"/unsuspend", http.MethodPatch)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, testDB.First(&stored, "id = ?", internship.ID).Error)
	assert.False(t, stored.IsSuspended)
}

func TestSuspendUser(t *testing.T) {
	r := newRouter(nil)
	token := adminToken(t)
	intern := newIntern(t)

	rec, resp := testutil.MakeJSONRequest(nil, token, r, "/admin/users/"+intern.ID.String()+"/suspend", http.MethodPatch)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, resp["is_suspended"])

	rec, resp = testutil.MakeJSONRequest(nil, token, r, "/admin/users/"+intern.ID.String()+"/unsuspend", http.MethodPatch)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, resp["is_suspended"])

	rec, _ = testutil.MakeJSONRequest(nil, token, r, "/admin/users/"+database.TestAdminUser.ID.String()+"/suspend", http.MethodPatch)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSuspendInternship(t *testing.T) {
	r := newRouter(nil)
	token := adminToken(t)
	_, internship := newCompany(t)

	rec, resp := testutil.MakeJSONRequest(nil, token, r, "/admin/internships/"+internship.ID.String()+"/suspend", http.MethodPatch)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, resp["is_suspended"])

	rec, list := testutil.MakeJSONArrayRequest(nil, token, r, "/admin/internships?suspended=true", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	found := false
	for _, i := range list {
		if i["id"] == internship.ID.String() {
			found = true
		}
	}
	assert.True(t, found)

	rec, _ = testutil.MakeJSONRequest(nil, token, r, "/admin/internships/not-a-uuid/suspend", http.MethodPatch)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteUser(t *testing.T) {
	purger := &recordingPurger{}
	r := newRouter(purger)
	token := adminToken(t)
	intern := newIntern(t)
	require.NoError(t, testDB.Create(&model.File{OwnerID: &intern.ID, Extension: "pdf"}).Error)

	rec, _ := testutil.MakeJSONRequest(nil, token, r, "/admin/users/"+intern.ID.String(), http.MethodDelete)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var count int64
	require.NoError(t, testDB.Model(&model.User{}).Where("id = ?", intern.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, testDB.Model(&model.File{}).Where("owner_id = ?", intern.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, testDB.Model(&model.StudentProfile{}).Where("user_id = ?", intern.ID).Count(&count).Error)
	assert.Zero(t, count)
	assert.Equal(t, []uuid.UUID{intern.ID}, purger.purged)

	rec, _ = testutil.MakeJSONRequest(nil, token, r, "/admin/users/"+intern.ID.String(), http.MethodDelete)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = testutil.MakeJSONRequest(nil, token, r, "/admin/users/"+database.TestAdminUser.ID.String(), http.MethodDelete)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdateUser(t *testing.T) {
	r := newRouter(nil)
	token := adminToken(t)
	intern := newIntern(t)
	url := "/admin/users/" + intern.ID.String()

	rec, resp := testutil.MakeJSONRequest(gin.H{"full_name": "Corrected Name", "email_verified": true}, token, r, url, http.MethodPatch)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Corrected Name", resp["full_name"])
	assert.Equal(t, true, resp["email_verified"])

	rec, _ = testutil.MakeJSONRequest(gin.H{"role": model.RoleAdmin}, token, r, url, http.MethodPatch)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "role is not admin writable")
}

func TestUpdateCompany(t *testing.T) {
	r := newRouter(nil)
	token := adminToken(t)
	company, _ := newCompany(t)
	url := "/admin/companies/" + company.ID.String()

	rec, resp := testutil.MakeJSONRequest(gin.H{"industry": "Robotics", "verified_status": "verified"}, token, r, url, http.MethodPatch)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Robotics", resp["industry"])
	assert.Equal(t, "Moderated Co", resp["company_name"])
	assert.Equal(t, model.StatusVerified, resp["verified_status"])

	rec, _ = testutil.MakeJSONRequest(gin.H{"verified_status": "maybe"}, token, r, url, http.MethodPatch)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
