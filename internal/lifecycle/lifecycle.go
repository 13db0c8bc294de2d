package lifecycle

import (
	"time"

	"github.com/Internmain07/I-INTERN/internal/apperror"
	"github.com/Internmain07/I-INTERN/internal/model"
	"github.com/google/uuid"
)

// Actor is the authenticated user asking for a change.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

// TransitionResult describes what a status change did.
type TransitionResult struct {
	Application    *model.Application
	Previous       Status
	EmailTriggered bool
}

// Transition moves app to a new status on behalf of the company owning the
// internship. It mutates app in place. Timestamps are stamped only the first
// time their status is entered and are never cleared.
func Transition(app *model.Application, internship *model.Internship, newStatusRaw string, actor Actor, now time.Time) (TransitionResult, error) {
	if internship == nil || actor.Role != model.RoleCompany || actor.UserID != internship.EmployerUserID {
		return TransitionResult{}, apperror.Forbidden("Only the company that posted this internship can update the application")
	}

	next, ok := ParseStatus(newStatusRaw)
	if !ok {
		return TransitionResult{}, apperror.Newf(apperror.KindValidation, "Invalid status '%s'", newStatusRaw)
	}

	res := TransitionResult{
		Application: app,
		Previous:    Canonical(app.Status),
	}

	app.Status = next.String()
	stamp := now.UTC()

	switch next {
	case StatusOffered:
		if app.OfferSentDate == nil {
			app.OfferSentDate = &stamp
			res.EmailTriggered = true
		}
	case StatusAccepted:
		if app.OfferResponseDate == nil {
			app.OfferResponseDate = &stamp
		}
	case StatusHired:
		if app.HiredDate == nil {
			app.HiredDate = &stamp
		}
	}

	return res, nil
}

// respondable are the statuses from which a student may answer an offer.
var respondable = map[Status]bool{
	StatusOffered:  true,
	StatusAccepted: true,
	StatusDeclined: true,
}

// RespondToOffer records the applicant's answer to an offer. It mutates app in place
// and reports whether anything changed.
func RespondToOffer(app *model.Application, response string, actorID uuid.UUID, now time.Time) (bool, error) {
	if actorID != app.StudentID {
		return false, apperror.Forbidden("You can only respond to your own applications")
	}

	current := Canonical(app.Status)
	if !respondable[current] {
		return false, apperror.Newf(apperror.KindInvalidState, "Cannot respond to application with status '%s'", app.Status)
	}

	answer, ok := ParseStatus(response)
	if !ok || (answer != StatusAccepted && answer != StatusDeclined) {
		return false, apperror.Validation("Response must be 'accepted' or 'declined'")
	}

	if answer == current {
		return false, nil
	}

	app.Status = answer.String()
	if app.OfferResponseDate == nil {
		stamp := now.UTC()
		app.OfferResponseDate = &stamp
	}
	return true, nil
}

// RedactContact clears the contact fields of a view unless its status opens the gate.
func RedactContact(view *model.ApplicantView) {
	if !ContactVisible(view.Status) {
		view.ContactInfo = model.ContactInfo{}
	}
}
