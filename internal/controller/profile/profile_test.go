package profile

import (
	"context"
	"fmt"
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

func newRouter() *gin.Engine {
	pc := NewProfileController(testDB)
	intern := testutil.Protected(testDB, model.RoleIntern)

	r := gin.Default()
	r.GET("/intern/profile", testutil.Chain(intern, pc.GetMyProfile)...)
	r.PATCH("/intern/profile", testutil.Chain(intern, pc.EditMyProfile)...)
	r.POST("/intern/profile/experiences", testutil.Chain(intern, pc.AddWorkExperience)...)
	r.PUT("/intern/profile/experiences/:id", testutil.Chain(intern, pc.UpdateWorkExperience)...)
	r.DELETE("/intern/profile/experiences/:id", testutil.Chain(intern, pc.DeleteWorkExperience)...)
	r.POST("/intern/profile/projects", testutil.Chain(intern, pc.AddProject)...)
	r.PUT("/intern/profile/projects/:id", testutil.Chain(intern, pc.UpdateProject)...)
	r.DELETE("/intern/profile/projects/:id", testutil.Chain(intern, pc.DeleteProject)...)
	return r
}

func newIntern(t *testing.T) (model.User, string) {
	t.Helper()
	user := model.User{
		Email:    uuid.NewString() + "@intern.test",
		FullName: "Profile Tester",
		Role:     model.RoleIntern,
		IsActive: true,
	}
	require.NoError(t, testDB.Create(&user).Error)
	require.NoError(t, testDB.Create(&model.StudentProfile{
		UserID: user.ID,
		EditableStudentInfo: model.EditableStudentInfo{
			University: "Mahidol University",
			Skills:     []string{"Go"},
			SkillLevel: "beginner",
		},
	}).Error)
	token, _, err := auth.TestTokens.Generate(user.ID)
	require.NoError(t, err)
	return user, token
}

func TestGetMyProfile(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestUserIntern1.Email, database.TestSeedPassword)
	require.NoError(t, err)

	rec, resp := testutil.MakeJSONRequest(nil, token, newRouter(), "/intern/profile", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, database.TestIntern1.University, resp["university"])
	assert.Equal(t, database.TestUserIntern1.Email, resp["user"].(map[string]interface{})["email"])
	assert.NotNil(t, resp["work_experiences"])
}

func TestGetMyProfile_companyForbidden(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestUserCompany1.Email, database.TestSeedPassword)
	require.NoError(t, err)

	rec, _ := testutil.MakeJSONRequest(nil, token, newRouter(), "/intern/profile", http.MethodGet)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestEditMyProfile(t *testing.T) {
	r := newRouter()
	_, token := newIntern(t)

	rec, resp := testutil.MakeJSONRequest(gin.H{
		"skills":      []string{"Go", "Postgres"},
		"skill_level": "Advanced",
		"bio":         "Backend enthusiast",
		"full_name":   "Renamed Tester",
	}, token, r, "/intern/profile", http.MethodPatch)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []interface{}{"Go", "Postgres"}, resp["skills"])
	assert.Equal(t, "advanced", resp["skill_level"])
	assert.Equal(t, "Backend enthusiast", resp["bio"])
	assert.Equal(t, "Mahidol University", resp["university"], "empty fields keep their value")
	assert.Equal(t, "Renamed Tester", resp["user"].(map[string]interface{})["full_name"])
}

func TestEditMyProfile_invalid(t *testing.T) {
	r := newRouter()
	_, token := newIntern(t)

	rec, _ := testutil.MakeJSONRequest(gin.H{"skill_level": "guru"}, token, r, "/intern/profile", http.MethodPatch)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = testutil.MakeJSONRequest(gin.H{"resume_id": 1}, token, r, "/intern/profile", http.MethodPatch)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "resume has its own endpoint")
}

func TestWorkExperienceCRUD(t *testing.T) {
	r := newRouter()
	_, token := newIntern(t)
	_, strangerToken := newIntern(t)

	rec, resp := testutil.MakeJSONRequest(gin.H{
		"title":      "Backend Intern",
		"company":    "Acme",
		"start_date": "2025-06-01T00:00:00Z",
		"end_date":   "2025-09-01T00:00:00Z",
	}, token, r, "/intern/profile/experiences", http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	url := fmt.Sprintf("/intern/profile/experiences/%.0f", resp["id"].(float64))

	rec, resp = testutil.MakeJSONRequest(gin.H{
		"title":      "Platform Intern",
		"company":    "Acme",
		"is_current": true,
	}, token, r, url, http.MethodPut)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Platform Intern", resp["title"])
	assert.Equal(t, true, resp["is_current"])

	rec, _ = testutil.MakeJSONRequest(gin.H{"title": "x", "company": "y"}, strangerToken, r, url, http.MethodPut)
	assert.Equal(t, http.StatusNotFound, rec.Code, "other students' entries are invisible")

	rec, _ = testutil.MakeJSONRequest(nil, strangerToken, r, url, http.MethodDelete)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = testutil.MakeJSONRequest(nil, token, r, url, http.MethodDelete)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = testutil.MakeJSONRequest(nil, token, r, url, http.MethodDelete)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWorkExperience_invalid(t *testing.T) {
	r := newRouter()
	_, token := newIntern(t)

	rec, _ := testutil.MakeJSONRequest(gin.H{"title": "No company"}, token, r, "/intern/profile/experiences", http.MethodPost)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = testutil.MakeJSONRequest(gin.H{
		"title":      "Backwards",
		"company":    "Acme",
		"start_date": "2025-09-01T00:00:00Z",
		"end_date":   "2025-06-01T00:00:00Z",
	}, token, r, "/intern/profile/experiences", http.MethodPost)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = testutil.MakeJSONRequest(nil, token, r, "/intern/profile/experiences/abc", http.MethodDelete)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProjectCRUD(t *testing.T) {
	r := newRouter()
	_, token := newIntern(t)

	rec, resp := testutil.MakeJSONRequest(gin.H{
		"title":        "Match engine",
		"technologies": []string{"Go", "gin"},
		"github_url":   "https://github.com/example/match",
	}, token, r, "/intern/profile/projects", http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	url := fmt.Sprintf("/intern/profile/projects/%.0f", resp["id"].(float64))

	rec, resp = testutil.MakeJSONRequest(gin.H{
		"title":        "Match engine v2",
		"technologies": []string{"Go"},
	}, token, r, url, http.MethodPut)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []interface{}{"Go"}, resp["technologies"])
	assert.Equal(t, "", resp["github_url"], "PUT replaces the whole entry")

	rec, profile := testutil.MakeJSONRequest(nil, token, r, "/intern/profile", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, profile["projects"], 1)

	rec, _ = testutil.MakeJSONRequest(nil, token, r, url, http.MethodDelete)
	assert.Equal(t, http.StatusOK, rec.Code)
}
