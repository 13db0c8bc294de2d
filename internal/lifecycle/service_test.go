package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Internmain07/I-INTERN/internal/apperror"
	"github.com/Internmain07/I-INTERN/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu          sync.Mutex
	apps        map[uuid.UUID]model.Application
	internships map[uuid.UUID]model.Internship
	students    map[uuid.UUID]model.User
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		apps:        map[uuid.UUID]model.Application{},
		internships: map[uuid.UUID]model.Internship{},
		students:    map[uuid.UUID]model.User{},
	}
}

func (m *memoryStore) CreateApplication(_ context.Context, app *model.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.internships[app.InternshipID]; !ok {
		return apperror.NotFound("Internship not found")
	}
	for _, existing := range m.apps {
		if existing.StudentID == app.StudentID && existing.InternshipID == app.InternshipID {
			return apperror.Conflict("You have already applied for this internship")
		}
	}
	m.apps[app.ID] = *app
	return nil
}

func (m *memoryStore) UpdateApplication(_ context.Context, id uuid.UUID, mutate func(*model.Application, *model.Internship) error) (*model.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	app, ok := m.apps[id]
	if !ok {
		return nil, ErrApplicationNotFound
	}
	app.Internship = m.internships[app.InternshipID]
	app.Student = m.students[app.StudentID]

	if err := mutate(&app, &app.Internship); err != nil {
		return nil, err
	}
	m.apps[id] = app
	return &app, nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []OfferNotice
	err     error
}

func (r *recordingNotifier) OfferSent(_ context.Context, notice OfferNotice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notice)
	return r.err
}

func (r *recordingNotifier) sent() []OfferNotice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]OfferNotice(nil), r.notices...)
}

func seededService(t *testing.T, notifier Notifier) (*Service, *memoryStore, model.Internship) {
	t.Helper()
	store := newMemoryStore()
	internship := model.Internship{
		ID:             uuid.New(),
		EmployerUserID: companyID,
		Employer:       model.EmployerProfile{UserID: companyID, EditableCompanyInfo: model.EditableCompanyInfo{CompanyName: "Acme"}},
		EditableInternshipInfo: model.EditableInternshipInfo{
			Title: "Backend Intern",
		},
	}
	store.internships[internship.ID] = internship
	store.students[studentID] = model.User{ID: studentID, Email: "student@example.com", FullName: "Stu Dent"}

	svc := NewService(store, notifier, nil)
	svc.now = func() time.Time { return testNow }
	return svc, store, internship
}

func TestService_Apply(t *testing.T) {
	svc, _, internship := seededService(t, nil)

	app, err := svc.Apply(context.Background(), studentID, internship.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "pending", app.Status)
	assert.Equal(t, testNow, app.ApplicationDate)
	assert.Nil(t, app.OfferSentDate)

	_, err = svc.Apply(context.Background(), studentID, internship.ID, nil)
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	_, err = svc.Apply(context.Background(), studentID, uuid.New(), nil)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestService_TransitionStatus_notifiesOnce(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, _, internship := seededService(t, notifier)

	app, err := svc.Apply(context.Background(), studentID, internship.ID, nil)
	require.NoError(t, err)

	res, err := svc.TransitionStatus(context.Background(), app.ID, "offered", ownerActor)
	require.NoError(t, err)
	assert.True(t, res.EmailTriggered)
	assert.Equal(t, "offered", res.Application.Status)

	res, err = svc.TransitionStatus(context.Background(), app.ID, "offer_sent", ownerActor)
	require.NoError(t, err)
	assert.False(t, res.EmailTriggered)

	svc.Wait()
	sent := notifier.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "student@example.com", sent[0].ApplicantEmail)
	assert.Equal(t, "Backend Intern", sent[0].InternshipTitle)
	assert.Equal(t, "Acme", sent[0].CompanyName)
	assert.Equal(t, app.ID, sent[0].ApplicationID)
}

func TestService_TransitionStatus_notifierFailureDoesNotFail(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	svc, store, internship := seededService(t, notifier)

	app, err := svc.Apply(context.Background(), studentID, internship.ID, nil)
	require.NoError(t, err)

	_, err = svc.TransitionStatus(context.Background(), app.ID, "offered", ownerActor)
	require.NoError(t, err)
	svc.Wait()

	assert.Equal(t, "offered", store.apps[app.ID].Status)
	assert.NotNil(t, store.apps[app.ID].OfferSentDate)
}

func TestService_TransitionStatus_forbiddenLeavesRowUntouched(t *testing.T) {
	svc, store, internship := seededService(t, &recordingNotifier{})

	app, err := svc.Apply(context.Background(), studentID, internship.ID, nil)
	require.NoError(t, err)

	_, err = svc.TransitionStatus(context.Background(), app.ID, "offered", Actor{UserID: uuid.New(), Role: model.RoleCompany})
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
	assert.Equal(t, "pending", store.apps[app.ID].Status)
}

func TestService_TransitionStatus_notFound(t *testing.T) {
	svc, _, _ := seededService(t, nil)

	_, err := svc.TransitionStatus(context.Background(), uuid.New(), "offered", ownerActor)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestService_RespondToOffer(t *testing.T) {
	svc, store, internship := seededService(t, nil)

	app, err := svc.Apply(context.Background(), studentID, internship.ID, nil)
	require.NoError(t, err)

	_, err = svc.RespondToOffer(context.Background(), app.ID, "accepted", studentID)
	assert.True(t, apperror.Is(err, apperror.KindInvalidState))

	_, err = svc.TransitionStatus(context.Background(), app.ID, "offered", ownerActor)
	require.NoError(t, err)

	updated, err := svc.RespondToOffer(context.Background(), app.ID, "accepted", studentID)
	require.NoError(t, err)
	assert.Equal(t, "accepted", updated.Status)
	assert.NotNil(t, store.apps[app.ID].OfferResponseDate)
	assert.True(t, ContactVisible(updated.Status))
}

func TestService_concurrentOffersStampOnce(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, _, internship := seededService(t, notifier)

	app, err := svc.Apply(context.Background(), studentID, internship.ID, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.TransitionStatus(context.Background(), app.ID, "offered", ownerActor)
		}()
	}
	wg.Wait()
	svc.Wait()

	assert.Len(t, notifier.sent(), 1)
}
