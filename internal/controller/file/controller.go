// Package file provides HTTP handlers for file-related operations.
package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Internmain07/I-INTERN/internal/apperror"
	"github.com/Internmain07/I-INTERN/internal/database"
	"github.com/Internmain07/I-INTERN/internal/model"
	"github.com/Internmain07/I-INTERN/internal/utilities"
)

// FileController handles file related endpoints
type FileController struct {
	DB      *database.DBinstanceStruct
	Storage StorageClient
	Log     *zap.Logger
}

const (
	avatarKind = "avatars"
	resumeKind = "resumes"
	logoKind   = "logos"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

type uploadRule struct {
	field      string
	kind       string
	maxBytes   int64
	extensions map[string]bool
}

var (
	avatarRule = uploadRule{field: "avatar", kind: avatarKind, maxBytes: 5 << 20, extensions: imageExtensions}
	logoRule   = uploadRule{field: "logo", kind: logoKind, maxBytes: 5 << 20, extensions: imageExtensions}
	resumeRule = uploadRule{field: "resume", kind: resumeKind, maxBytes: 10 << 20, extensions: map[string]bool{".pdf": true}}
)

// NewFileController creates a new instance of FileController. storage may be nil, in
// which case file content is kept in the database.
func NewFileController(db *database.DBinstanceStruct, storage StorageClient, log *zap.Logger) *FileController {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileController{
		DB:      db,
		Storage: storage,
		Log:     log,
	}
}

// UserObjectPrefix is the storage prefix holding every object a user uploaded
func UserObjectPrefix(userID uuid.UUID) string {
	return fmt.Sprintf("users/%s/", userID)
}

// UploadAvatar replaces the avatar of the current user
// @Summary Upload avatar
// @Description Only .jpg, .jpeg, .png or .webp files up to 5 MB are permitted
// @Tags Profile
// @Accept mpfd
// @Produce json
// @Security ApiKeyAuth
// @Param avatar formData file true "Avatar image"
// @Success 200 {object} model.File "Successfully upload avatar"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 413 {object} utilities.ErrorResponse "File too large"
// @Failure 415 {object} utilities.ErrorResponse "File extension is not allowed"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /profile/avatar [post]
func (fc *FileController) UploadAvatar(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	fileBytes, extension, ok := fc.readUpload(c, avatarRule)
	if !ok {
		return
	}

	file, err := fc.replaceFile(c.Request.Context(), user.ID, user.AvatarID, fileBytes, extension, avatarRule.kind, func(tx *gorm.DB, id int) error {
		return tx.Model(&model.User{}).Where("id = ?", user.ID).Update("avatar_id", id).Error
	})
	if err != nil {
		utilities.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

// DeleteAvatar removes the avatar of the current user
// @Summary Delete avatar
// @Tags Profile
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} utilities.MessageResponse
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 404 {object} utilities.ErrorResponse "No avatar"
// @Router /profile/avatar [delete]
func (fc *FileController) DeleteAvatar(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}
	if user.AvatarID == nil {
		utilities.WriteError(c, apperror.NotFound("No avatar"))
		return
	}

	if err := fc.DB.Model(&model.User{}).Where("id = ?", user.ID).Update("avatar_id", nil).Error; err != nil {
		utilities.WriteError(c, apperror.FromDB(err, "User not found"))
		return
	}
	fc.removeFile(c.Request.Context(), *user.AvatarID)

	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Avatar deleted"})
}

// UploadResume replaces the resume of the current intern
// @Summary Upload resume
// @Description Only .pdf files up to 10 MB are permitted
// @Tags Intern
// @Accept mpfd
// @Produce json
// @Security ApiKeyAuth
// @Param resume formData file true "Resume"
// @Success 200 {object} model.File "Successfully upload resume"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as intern"
// @Failure 413 {object} utilities.ErrorResponse "File too large"
// @Failure 415 {object} utilities.ErrorResponse "File extension is not allowed"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /intern/profile/resume [post]
func (fc *FileController) UploadResume(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	var profile model.StudentProfile
	if err := fc.DB.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
		utilities.WriteError(c, apperror.FromDB(err, "Student profile not found"))
		return
	}

	fileBytes, extension, ok := fc.readUpload(c, resumeRule)
	if !ok {
		return
	}

	file, err := fc.replaceFile(c.Request.Context(), user.ID, profile.ResumeID, fileBytes, extension, resumeRule.kind, func(tx *gorm.DB, id int) error {
		return tx.Model(&model.StudentProfile{}).Where("user_id = ?", user.ID).Update("resume_id", id).Error
	})
	if err != nil {
		utilities.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

// UploadLogo replaces the logo of the current company
// @Summary Upload company logo
// @Description Only .jpg, .jpeg, .png or .webp files up to 5 MB are permitted
// @Tags Company
// @Accept mpfd
// @Produce json
// @Security ApiKeyAuth
// @Param logo formData file true "Logo image"
// @Success 200 {object} model.File "Successfully upload logo"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as company"
// @Failure 413 {object} utilities.ErrorResponse "File too large"
// @Failure 415 {object} utilities.ErrorResponse "File extension is not allowed"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /company/profile/logo [post]
func (fc *FileController) UploadLogo(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		utilities.WriteError(c, err)
		return
	}

	var company model.EmployerProfile
	if err := fc.DB.Where("user_id = ?", user.ID).First(&company).Error; err != nil {
		utilities.WriteError(c, apperror.FromDB(err, "Company profile not found"))
		return
	}

	fileBytes, extension, ok := fc.readUpload(c, logoRule)
	if !ok {
		return
	}

	file, err := fc.replaceFile(c.Request.Context(), user.ID, company.LogoID, fileBytes, extension, logoRule.kind, func(tx *gorm.DB, id int) error {
		return tx.Model(&model.EmployerProfile{}).Where("user_id = ?", user.ID).Update("logo_id", id).Error
	})
	if err != nil {
		utilities.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

// GetFile function retrieves a file and sends it as a downloadable attachment in
// the response.
// @Summary Retrieve dowloadable attachment
// @Tags File
// @Produce octet-stream
// @Security ApiKeyAuth
// @Param id path string true "ID of wanted file"
// @Success 200 {string} binary "Successfully retrieve file"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 404 {object} utilities.ErrorResponse "Given file id not found"
// @Failure 500 {object} utilities.ErrorResponse "Fail to send file content"
// @Router /file/{id} [get]
func (fc *FileController) GetFile(c *gin.Context) {
	var file model.File
	if err := fc.DB.First(&file, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "File not found"})
		return
	}

	fc.writeFileResponse(c, &file)
}

// PurgeUserFiles removes every stored object of a user. Database rows go with the user.
func (fc *FileController) PurgeUserFiles(ctx context.Context, userID uuid.UUID) error {
	if fc.Storage == nil {
		return nil
	}
	return fc.Storage.DeletePrefix(ctx, UserObjectPrefix(userID))
}

// readUpload reads the multipart file named by rule.field and answers the request
// itself when the file is missing, too large or of a wrong type.
func (fc *FileController) readUpload(c *gin.Context, rule uploadRule) ([]byte, string, bool) {
	rawFile, err := c.FormFile(rule.field)
	var maxBytesError *http.MaxBytesError
	if errors.As(err, &maxBytesError) {
		c.JSON(http.StatusRequestEntityTooLarge, utilities.ErrorResponse{Error: err.Error()})
		return nil, "", false
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve file: %s", err.Error()),
		})
		return nil, "", false
	}

	if rawFile.Size > rule.maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, utilities.ErrorResponse{
			Error: fmt.Sprintf("File must not be larger than %d MB", rule.maxBytes>>20),
		})
		return nil, "", false
	}

	extension := strings.ToLower(filepath.Ext(rawFile.Filename))
	if !rule.extensions[extension] {
		c.JSON(http.StatusUnsupportedMediaType, utilities.ErrorResponse{
			Error: fmt.Sprintf("Unsupported file extension: %s", extension),
		})
		return nil, "", false
	}

	f, err := rawFile.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: "Cannot open file"})
		return nil, "", false
	}
	defer func() {
		if err := f.Close(); err != nil {
			fc.Log.Warn("Failed to close uploaded file", zap.Error(err))
		}
	}()

	fileBytes, err := io.ReadAll(io.LimitReader(f, rule.maxBytes+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: "Cannot read file"})
		return nil, "", false
	}
	if int64(len(fileBytes)) > rule.maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, utilities.ErrorResponse{
			Error: fmt.Sprintf("File must not be larger than %d MB", rule.maxBytes>>20),
		})
		return nil, "", false
	}
	return fileBytes, extension, true
}

// replaceFile stores a new file, points the owning row at it with link and then
// drops the previous file.
func (fc *FileController) replaceFile(
	ctx context.Context,
	owner uuid.UUID,
	previous *int,
	fileBytes []byte,
	extension, kind string,
	link func(tx *gorm.DB, id int) error,
) (*model.File, error) {
	file := &model.File{OwnerID: &owner}
	if err := fc.persistFileData(ctx, file, fileBytes, extension, fmt.Sprintf("%s%s", UserObjectPrefix(owner), kind)); err != nil {
		return nil, apperror.Internal(err, "Failed to store file")
	}

	err := fc.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(file).Error; err != nil {
			return err
		}
		return link(tx, file.ID)
	})
	if err != nil {
		if file.StorageObjectName != nil {
			_ = fc.Storage.DeleteFile(ctx, *file.StorageObjectName)
		}
		return nil, apperror.FromDB(err, "File owner not found")
	}

	if previous != nil {
		fc.removeFile(ctx, *previous)
	}
	return file, nil
}

// removeFile deletes a file row and its stored object, logging failures
func (fc *FileController) removeFile(ctx context.Context, id int) {
	var file model.File
	if err := fc.DB.WithContext(ctx).First(&file, "id = ?", id).Error; err != nil {
		return
	}
	if err := fc.DB.WithContext(ctx).Delete(&file).Error; err != nil {
		fc.Log.Warn("Failed to delete file", zap.Int("file_id", id), zap.Error(err))
		return
	}
	if file.StorageObjectName != nil && fc.Storage != nil {
		if err := fc.Storage.DeleteFile(ctx, *file.StorageObjectName); err != nil {
			fc.Log.Warn("Failed to delete stored object", zap.String("object", *file.StorageObjectName), zap.Error(err))
		}
	}
}

func (fc *FileController) writeFileResponse(c *gin.Context, file *model.File) {
	contentType := mime.TypeByExtension(file.Extension)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Writer.Header().Set("Content-Disposition", "attachment; filename="+fmt.Sprint(file.ID)+file.Extension)
	c.Writer.Header().Set("Content-Type", contentType)

	if file.StorageObjectName != nil {
		if fc.Storage == nil {
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: "Cloud storage is disabled while the requested file is stored remotely",
			})
			return
		}
		reader, size, err := fc.Storage.DownloadFile(c.Request.Context(), *file.StorageObjectName)
		if err != nil {
			fc.Log.Error("Failed to download file from storage", zap.String("object", *file.StorageObjectName), zap.Error(err))
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: "Failed to download file from storage",
			})
			return
		}
		defer func() {
			if err := reader.Close(); err != nil {
				fc.Log.Warn("Failed to close storage reader", zap.Error(err))
			}
		}()

		if size > 0 {
			c.Writer.Header().Set("Content-Length", fmt.Sprint(size))
		}
		if _, err := io.Copy(c.Writer, reader); err != nil {
			fc.handleWriterError(c)
		}
		return
	}

	c.Writer.Header().Set("Content-Length", fmt.Sprint(len(file.Content)))
	if _, err := c.Writer.Write(file.Content); err != nil {
		fc.handleWriterError(c)
	}
}

func (fc *FileController) handleWriterError(c *gin.Context) {
	if !c.Writer.Written() {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: "Failed to send file content",
		})
	} else {
		c.Abort()
	}
}

func (fc *FileController) persistFileData(ctx context.Context, file *model.File, fileBytes []byte, extension, prefix string) error {
	file.Extension = extension
	if fc.Storage == nil {
		file.Content = fileBytes
		file.StorageObjectName = nil
		return nil
	}

	objectName := fmt.Sprintf("%s/%s%s", prefix, uuid.NewString(), extension)
	if err := fc.Storage.UploadFile(ctx, objectName, bytes.NewReader(fileBytes)); err != nil {
		return err
	}

	file.StorageObjectName = &objectName
	file.Content = nil
	return nil
}
