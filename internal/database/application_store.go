package database

import (
	"context"
	"errors"

	"github.com/Internmain07/I-INTERN/internal/apperror"
	"github.com/Internmain07/I-INTERN/internal/lifecycle"
	"github.com/Internmain07/I-INTERN/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApplicationStore is the Postgres implementation of lifecycle.Store
type ApplicationStore struct {
	DB *DBinstanceStruct
}

var _ lifecycle.Store = (*ApplicationStore)(nil)

// NewApplicationStore creates an ApplicationStore
func NewApplicationStore(db *DBinstanceStruct) *ApplicationStore {
	return &ApplicationStore{DB: db}
}

// CreateApplication inserts a new application. It fails with NotFound when the
// internship is missing or closed and with Conflict when the student already applied.
func (s *ApplicationStore) CreateApplication(ctx context.Context, app *model.Application) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var internship model.Internship
		if err := tx.Select("id", "status", "is_suspended", "deadline").
			Where("id = ?", app.InternshipID).
			First(&internship).Error; err != nil {
			return apperror.FromDB(err, "Internship not found")
		}
		if !internship.IsOpen() {
			return apperror.Validation("This internship is not accepting applications")
		}

		var count int64
		if err := tx.Model(&model.Application{}).
			Where("student_id = ? AND internship_id = ?", app.StudentID, app.InternshipID).
			Count(&count).Error; err != nil {
			return apperror.FromDB(err, "Internship not found")
		}
		if count > 0 {
			return apperror.Conflict("You have already applied for this internship")
		}

		if err := tx.Create(app).Error; err != nil {
			err = apperror.FromDB(err, "Internship not found")
			if apperror.Is(err, apperror.KindConflict) {
				return apperror.Conflict("You have already applied for this internship")
			}
			return err
		}
		return nil
	})
}

// UpdateApplication locks the application row, runs mutate and saves the lifecycle
// columns, all in one transaction.
func (s *ApplicationStore) UpdateApplication(ctx context.Context, id uuid.UUID, mutate func(*model.Application, *model.Internship) error) (*model.Application, error) {
	var app model.Application

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&app).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return lifecycle.ErrApplicationNotFound
			}
			return apperror.FromDB(err, "Application not found")
		}

		if err := tx.Preload("Employer").First(&app.Internship, "id = ?", app.InternshipID).Error; err != nil {
			return apperror.FromDB(err, "Internship not found")
		}
		if err := tx.First(&app.Student, "id = ?", app.StudentID).Error; err != nil {
			return apperror.FromDB(err, "Applicant not found")
		}

		if err := mutate(&app, &app.Internship); err != nil {
			return err
		}

		return tx.Model(&model.Application{ID: app.ID}).Updates(map[string]interface{}{
			"status":              app.Status,
			"offer_sent_date":     app.OfferSentDate,
			"offer_response_date": app.OfferResponseDate,
			"hired_date":          app.HiredDate,
		}).Error
	})
	if err != nil {
		return nil, apperror.FromDB(err, "Application not found")
	}
	return &app, nil
}

// GetApplication loads an application with its internship and applicant
func (s *ApplicationStore) GetApplication(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	var app model.Application
	err := s.DB.WithContext(ctx).
		Preload("Internship").
		Preload("Internship.Employer").
		Preload("Student").
		First(&app, "id = ?", id).Error
	if err != nil {
		return nil, apperror.FromDB(err, "Application not found")
	}
	return &app, nil
}
