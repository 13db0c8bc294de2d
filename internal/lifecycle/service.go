package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/Internmain07/I-INTERN/internal/apperror"
	"github.com/Internmain07/I-INTERN/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store persists applications. UpdateApplication must run mutate inside one
// transaction holding a row lock on the application, with app.Student and
// app.Internship (and its Employer) loaded, and save the result when mutate succeeds.
type Store interface {
	CreateApplication(ctx context.Context, app *model.Application) error
	UpdateApplication(ctx context.Context, id uuid.UUID, mutate func(app *model.Application, internship *model.Internship) error) (*model.Application, error)
}

// OfferNotice is what the applicant is told when an offer is sent.
type OfferNotice struct {
	ApplicationID   uuid.UUID
	ApplicantEmail  string
	ApplicantName   string
	InternshipTitle string
	CompanyName     string
}

// Notifier delivers offer notifications.
type Notifier interface {
	OfferSent(ctx context.Context, notice OfferNotice) error
}

const defaultNotifyTimeout = 30 * time.Second

// Service applies lifecycle rules against a Store and notifies applicants.
type Service struct {
	store         Store
	notifier      Notifier
	log           *zap.Logger
	now           func() time.Time
	notifyTimeout time.Duration
	wg            sync.WaitGroup
}

// NewService creates a Service. notifier may be nil.
func NewService(store Store, notifier Notifier, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:         store,
		notifier:      notifier,
		log:           log,
		now:           time.Now,
		notifyTimeout: defaultNotifyTimeout,
	}
}

// Apply creates a pending application of a student to an internship.
func (s *Service) Apply(ctx context.Context, studentID, internshipID uuid.UUID, resumeID *int) (*model.Application, error) {
	app := &model.Application{
		ID:              uuid.New(),
		Status:          StatusPending.String(),
		StudentID:       studentID,
		InternshipID:    internshipID,
		ApplicationDate: s.now().UTC(),
		ResumeID:        resumeID,
	}
	if err := s.store.CreateApplication(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// TransitionStatus changes an application's status for the owning company and,
// when an offer was sent for the first time, notifies the applicant after commit.
func (s *Service) TransitionStatus(ctx context.Context, id uuid.UUID, newStatus string, actor Actor) (TransitionResult, error) {
	var res TransitionResult
	app, err := s.store.UpdateApplication(ctx, id, func(app *model.Application, internship *model.Internship) error {
		var err error
		res, err = Transition(app, internship, newStatus, actor, s.now())
		return err
	})
	if err != nil {
		return TransitionResult{}, err
	}
	res.Application = app

	if res.EmailTriggered {
		s.notifyOffer(OfferNotice{
			ApplicationID:   app.ID,
			ApplicantEmail:  app.Student.Email,
			ApplicantName:   app.Student.FullName,
			InternshipTitle: app.Internship.Title,
			CompanyName:     app.Internship.Employer.CompanyName,
		})
	}
	return res, nil
}

// RespondToOffer records the applicant's answer to an offer.
func (s *Service) RespondToOffer(ctx context.Context, id uuid.UUID, response string, actorID uuid.UUID) (*model.Application, error) {
	return s.store.UpdateApplication(ctx, id, func(app *model.Application, _ *model.Internship) error {
		_, err := RespondToOffer(app, response, actorID, s.now())
		return err
	})
}

func (s *Service) notifyOffer(notice OfferNotice) {
	if s.notifier == nil {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()

		if err := s.notifier.OfferSent(ctx, notice); err != nil {
			s.log.Warn("offer notification failed",
				zap.String("application_id", notice.ApplicationID.String()),
				zap.Error(err))
		}
	}()
}

// Wait blocks until every pending notification finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// ErrApplicationNotFound is returned by stores when the application does not exist.
var ErrApplicationNotFound = apperror.NotFound("Application not found")
