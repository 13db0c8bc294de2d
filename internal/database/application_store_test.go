package database

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Internmain07/I-INTERN/internal/apperror"
	"github.com/Internmain07/I-INTERN/internal/lifecycle"
	"github.com/Internmain07/I-INTERN/internal/model"
)

type countingNotifier struct {
	mu    sync.Mutex
	count int
}

func (n *countingNotifier) OfferSent(_ context.Context, _ lifecycle.OfferNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.count++
	return nil
}

func TestApplicationStore_createAndDuplicate(t *testing.T) {
	store := NewApplicationStore(testDB)
	internship, err := CreateTestInternship(testDB, TestUserCompany1, "Store Duplicate Test", "go")
	require.NoError(t, err)

	app := &model.Application{Status: "pending", StudentID: TestUserIntern1.ID, InternshipID: internship.ID}
	require.NoError(t, store.CreateApplication(context.Background(), app))
	assert.NotEqual(t, uuid.Nil, app.ID)

	dup := &model.Application{Status: "pending", StudentID: TestUserIntern1.ID, InternshipID: internship.ID}
	err = store.CreateApplication(context.Background(), dup)
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	missing := &model.Application{Status: "pending", StudentID: TestUserIntern1.ID, InternshipID: uuid.New()}
	err = store.CreateApplication(context.Background(), missing)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestApplicationStore_closedInternship(t *testing.T) {
	store := NewApplicationStore(testDB)
	internship, err := CreateTestInternship(testDB, TestUserCompany1, "Closed Internship", "go")
	require.NoError(t, err)
	require.NoError(t, testDB.Model(&internship).Update("status", model.InternshipStatusClosed).Error)

	app := &model.Application{Status: "pending", StudentID: TestUserIntern1.ID, InternshipID: internship.ID}
	err = store.CreateApplication(context.Background(), app)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestApplicationStore_pastDeadline(t *testing.T) {
	store := NewApplicationStore(testDB)
	internship, err := CreateTestInternship(testDB, TestUserCompany1, "Expired Internship", "go")
	require.NoError(t, err)
	require.NoError(t, testDB.Model(&internship).Update("deadline", time.Now().AddDate(0, 0, -2)).Error)

	app := &model.Application{Status: "pending", StudentID: TestUserIntern1.ID, InternshipID: internship.ID}
	err = store.CreateApplication(context.Background(), app)
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	var stored model.Internship
	require.NoError(t, testDB.First(&stored, "id = ?", internship.ID).Error)
	assert.Equal(t, model.InternshipStatusActive, stored.Status, "still active until archived")
}

func TestApplicationStore_updateLoadsRelations(t *testing.T) {
	store := NewApplicationStore(testDB)
	internship, err := CreateTestInternship(testDB, TestUserCompany1, "Store Update Test", "go")
	require.NoError(t, err)
	app, err := CreateTestApplication(testDB, TestUserIntern2, internship, "pending")
	require.NoError(t, err)

	updated, err := store.UpdateApplication(context.Background(), app.ID, func(a *model.Application, i *model.Internship) error {
		assert.Equal(t, "TechNova", i.Employer.CompanyName)
		assert.Equal(t, TestUserIntern2.Email, a.Student.Email)
		a.Status = "reviewed"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "reviewed", updated.Status)

	var reloaded model.Application
	require.NoError(t, testDB.First(&reloaded, "id = ?", app.ID).Error)
	assert.Equal(t, "reviewed", reloaded.Status)
}

func TestApplicationStore_mutateErrorRollsBack(t *testing.T) {
	store := NewApplicationStore(testDB)
	internship, err := CreateTestInternship(testDB, TestUserCompany1, "Store Rollback Test", "go")
	require.NoError(t, err)
	app, err := CreateTestApplication(testDB, TestUserIntern1, internship, "pending")
	require.NoError(t, err)

	_, err = store.UpdateApplication(context.Background(), app.ID, func(a *model.Application, _ *model.Internship) error {
		a.Status = "hired"
		return apperror.Forbidden("nope")
	})
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	var reloaded model.Application
	require.NoError(t, testDB.First(&reloaded, "id = ?", app.ID).Error)
	assert.Equal(t, "pending", reloaded.Status)

	_, err = store.UpdateApplication(context.Background(), uuid.New(), func(*model.Application, *model.Internship) error { return nil })
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestApplicationStore_concurrentOffersStampOnce(t *testing.T) {
	store := NewApplicationStore(testDB)
	notifier := &countingNotifier{}
	svc := lifecycle.NewService(store, notifier, nil)

	internship, err := CreateTestInternship(testDB, TestUserCompany1, "Store Concurrency Test", "go")
	require.NoError(t, err)
	app, err := CreateTestApplication(testDB, TestUserIntern1, internship, "pending")
	require.NoError(t, err)

	actor := lifecycle.Actor{UserID: TestUserCompany1.ID, Role: model.RoleCompany}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.TransitionStatus(context.Background(), app.ID, "offered", actor)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	svc.Wait()

	assert.Equal(t, 1, notifier.count)

	var reloaded model.Application
	require.NoError(t, testDB.First(&reloaded, "id = ?", app.ID).Error)
	assert.Equal(t, "offered", reloaded.Status)
	assert.NotNil(t, reloaded.OfferSentDate)
}
