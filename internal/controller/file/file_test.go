package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"

	"github.com/Internmain07/I-INTERN/internal/auth"
	"github.com/Internmain07/I-INTERN/internal/database"
	"github.com/Internmain07/I-INTERN/internal/middleware"
	"github.com/Internmain07/I-INTERN/internal/model"
)

var testDB *database.DBinstanceStruct

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	var err error
	var teardown func(context.Context, ...testcontainers.TerminateOption) error
	teardown, testDB, err = database.GetTestDB()
	if err != nil {
		os.Exit(1)
	}
	code := m.Run()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if teardown != nil {
		_ = teardown(ctx)
	}
	os.Exit(code)
}

func TestPersistFileData_UsesCloudStorage(t *testing.T) {
	mockStorage := newMockStorageClient()
	ctrl := NewFileController(nil, mockStorage, nil)
	file := &model.File{}
	data := []byte("hello world")

	err := ctrl.persistFileData(context.Background(), file, data, ".pdf", "users/x/"+resumeKind)
	require.NoError(t, err)

	require.NotNil(t, file.StorageObjectName)
	require.True(t, strings.HasPrefix(*file.StorageObjectName, "users/x/"+resumeKind+"/"))
	require.Nil(t, file.Content)
	require.Equal(t, ".pdf", file.Extension)
	require.Equal(t, data, mockStorage.get(*file.StorageObjectName))
}

func TestPersistFileData_FallsBackToDatabase(t *testing.T) {
	ctrl := NewFileController(nil, nil, nil)
	file := &model.File{}
	data := []byte("legacy")

	err := ctrl.persistFileData(context.Background(), file, data, ".png", logoKind)
	require.NoError(t, err)

	require.Nil(t, file.StorageObjectName)
	require.Equal(t, data, file.Content)
	require.Equal(t, ".png", file.Extension)
}

func TestPersistFileData_UploadError(t *testing.T) {
	mockStorage := newMockStorageClient()
	mockStorage.uploadErr = errors.New("boom")
	ctrl := NewFileController(nil, mockStorage, nil)

	err := ctrl.persistFileData(context.Background(), &model.File{}, []byte("fail"), ".pdf", resumeKind)
	require.EqualError(t, err, "boom")
}

func TestWriteFileResponse_CloudStorage(t *testing.T) {
	mockStorage := newMockStorageClient()
	mockStorage.objects["users/x/resumes/foo"] = []byte("downloaded")
	ctrl := NewFileController(nil, mockStorage, nil)
	objectName := "users/x/resumes/foo"
	file := &model.File{ID: 42, Extension: ".pdf", StorageObjectName: &objectName}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/file/42", nil)

	ctrl.writeFileResponse(c, file)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "downloaded", w.Body.String())
	require.Equal(t, "attachment; filename=42.pdf", w.Header().Get("Content-Disposition"))
	require.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	require.Equal(t, fmt.Sprint(len("downloaded")), w.Header().Get("Content-Length"))
}

func TestWriteFileResponse_LegacyContent(t *testing.T) {
	ctrl := NewFileController(nil, nil, nil)
	legacyContent := []byte("legacy")
	file := &model.File{ID: 7, Extension: ".unknownext", Content: legacyContent}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/file/7", nil)

	ctrl.writeFileResponse(c, file)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, legacyContent, w.Body.Bytes())
	require.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"))
}

func TestWriteFileResponse_RemoteButStorageDisabled(t *testing.T) {
	ctrl := NewFileController(nil, nil, nil)
	objectName := "users/x/logos/foo"
	file := &model.File{ID: 8, Extension: ".png", StorageObjectName: &objectName}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/file/8", nil)

	ctrl.writeFileResponse(c, file)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), "Cloud storage is disabled")
}

func uploadRouter(fc *FileController) *gin.Engine {
	r := gin.New()
	authed := r.Group("", middleware.RequireAuth(testDB, auth.TestTokens, "access_token"))
	authed.POST("/profile/avatar", middleware.SizeLimit(10<<20), fc.UploadAvatar)
	authed.DELETE("/profile/avatar", fc.DeleteAvatar)
	authed.POST("/intern/profile/resume", middleware.CheckRole(model.RoleIntern), middleware.SizeLimit(10<<20), fc.UploadResume)
	authed.GET("/file/:id", fc.GetFile)
	return r
}

func multipartRequest(t *testing.T, method, target, field, filename string, content []byte, token string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestUploadResume_storedAndServed(t *testing.T) {
	storage := newMockStorageClient()
	r := uploadRouter(NewFileController(testDB, storage, nil))

	token, err := auth.GetAccessToken(t, testDB, database.TestUserIntern1.Email, database.TestSeedPassword)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, multipartRequest(t, http.MethodPost, "/intern/profile/resume", "resume", "cv.pdf", []byte("%PDF-1.4 resume"), token))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var profile model.StudentProfile
	require.NoError(t, testDB.First(&profile, "user_id = ?", database.TestUserIntern1.ID).Error)
	require.NotNil(t, profile.ResumeID)

	var stored model.File
	require.NoError(t, testDB.First(&stored, "id = ?", *profile.ResumeID).Error)
	require.NotNil(t, stored.StorageObjectName)
	require.True(t, strings.HasPrefix(*stored.StorageObjectName, UserObjectPrefix(database.TestUserIntern1.ID)))

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/file/%d", stored.ID), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "%PDF-1.4 resume", rec.Body.String())

	// a second upload replaces the first
	firstObject := *stored.StorageObjectName
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, multipartRequest(t, http.MethodPost, "/intern/profile/resume", "resume", "cv2.pdf", []byte("%PDF-1.4 v2"), token))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Nil(t, storage.get(firstObject))
	require.Error(t, testDB.First(&model.File{}, "id = ?", stored.ID).Error)
}

func TestUploadResume_rejectsWrongType(t *testing.T) {
	r := uploadRouter(NewFileController(testDB, nil, nil))
	token, err := auth.GetAccessToken(t, testDB, database.TestUserIntern2.Email, database.TestSeedPassword)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, multipartRequest(t, http.MethodPost, "/intern/profile/resume", "resume", "cv.docx", []byte("doc"), token))
	require.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestUploadAvatar_tooLarge(t *testing.T) {
	r := uploadRouter(NewFileController(testDB, nil, nil))
	token, err := auth.GetAccessToken(t, testDB, database.TestUserIntern2.Email, database.TestSeedPassword)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	big := bytes.Repeat([]byte("x"), 6<<20)
	r.ServeHTTP(rec, multipartRequest(t, http.MethodPost, "/profile/avatar", "avatar", "me.png", big, token))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestUploadAndDeleteAvatar_databaseFallback(t *testing.T) {
	r := uploadRouter(NewFileController(testDB, nil, nil))
	token, err := auth.GetAccessToken(t, testDB, database.TestUserCompany2.Email, database.TestSeedPassword)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, multipartRequest(t, http.MethodPost, "/profile/avatar", "avatar", "me.PNG", []byte("png-bytes"), token))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var user model.User
	require.NoError(t, testDB.First(&user, "id = ?", database.TestUserCompany2.ID).Error)
	require.NotNil(t, user.AvatarID)

	var stored model.File
	require.NoError(t, testDB.First(&stored, "id = ?", *user.AvatarID).Error)
	require.Equal(t, []byte("png-bytes"), stored.Content)
	require.Equal(t, ".png", stored.Extension)

	req := httptest.NewRequest(http.MethodDelete, "/profile/avatar", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.NoError(t, testDB.First(&user, "id = ?", database.TestUserCompany2.ID).Error)
	require.Nil(t, user.AvatarID)
}

func TestPurgeUserFiles(t *testing.T) {
	storage := newMockStorageClient()
	id := uuid.New()
	storage.objects[UserObjectPrefix(id)+"avatars/a.png"] = []byte("a")
	storage.objects[UserObjectPrefix(id)+"resumes/b.pdf"] = []byte("b")
	storage.objects["users/other/avatars/c.png"] = []byte("c")

	require.NoError(t, NewFileController(nil, storage, nil).PurgeUserFiles(context.Background(), id))
	require.Len(t, storage.objects, 1)
	require.NoError(t, NewFileController(nil, nil, nil).PurgeUserFiles(context.Background(), id))
}

type mockStorageClient struct {
	mu          sync.Mutex
	objects     map[string][]byte
	uploadErr   error
	downloadErr error
}

func newMockStorageClient() *mockStorageClient {
	return &mockStorageClient{objects: make(map[string][]byte)}
}

func (m *mockStorageClient) get(name string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.objects[name]
}

func (m *mockStorageClient) UploadFile(_ context.Context, objectName string, fileData io.Reader) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	buf, err := io.ReadAll(fileData)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectName] = buf
	return nil
}

func (m *mockStorageClient) DownloadFile(_ context.Context, objectName string) (io.ReadCloser, int64, error) {
	if m.downloadErr != nil {
		return nil, 0, m.downloadErr
	}
	data := m.get(objectName)
	if data == nil {
		return nil, 0, fmt.Errorf("object %s not found", objectName)
	}
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

func (m *mockStorageClient) DeleteFile(_ context.Context, objectName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, objectName)
	return nil
}

func (m *mockStorageClient) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name := range m.objects {
		if strings.HasPrefix(name, prefix) {
			delete(m.objects, name)
		}
	}
	return nil
}
