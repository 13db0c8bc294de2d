// Package lifecycle implements the application status state machine: the status
// vocabulary, first-time timestamps, who may change what, and the contact gate.
package lifecycle

import "strings"

// Status is a canonical application status.
type Status string

// Canonical statuses
const (
	StatusPending  Status = "pending"
	StatusReviewed Status = "reviewed"
	StatusOffered  Status = "offered"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
	StatusRejected Status = "rejected"
	StatusHired    Status = "hired"
)

// Every spelling we accept, after normalizeToken, mapped to its canonical status.
var statusAliases = map[string]Status{
	"pending":        StatusPending,
	"reviewed":       StatusReviewed,
	"under_review":   StatusReviewed,
	"offered":        StatusOffered,
	"offer_sent":     StatusOffered,
	"accepted":       StatusAccepted,
	"offer_accepted": StatusAccepted,
	"declined":       StatusDeclined,
	"rejected":       StatusRejected,
	"hired":          StatusHired,
}

// Order in which a student's applications are listed.
var statusPriority = map[Status]int{
	StatusHired:    0,
	StatusOffered:  1,
	StatusAccepted: 2,
	StatusPending:  3,
	StatusReviewed: 4,
	StatusRejected: 5,
	StatusDeclined: 6,
}

const unknownPriority = 999

func normalizeToken(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), "_")
}

// ParseStatus maps any accepted spelling to its canonical status.
func ParseStatus(raw string) (Status, bool) {
	s, ok := statusAliases[normalizeToken(raw)]
	return s, ok
}

// Canonical maps a stored value for display. Unknown values pass through lower-cased.
func Canonical(raw string) Status {
	if s, ok := ParseStatus(raw); ok {
		return s
	}
	return Status(strings.ToLower(strings.TrimSpace(raw)))
}

// Valid reports whether s is one of the canonical statuses.
func (s Status) Valid() bool {
	_, ok := statusPriority[s]
	return ok
}

func (s Status) String() string {
	return string(s)
}

// Priority is the sort key of a status in the student's application list.
func Priority(raw string) int {
	if p, ok := statusPriority[Canonical(raw)]; ok {
		return p
	}
	return unknownPriority
}

// ContactVisible reports whether a company may see the applicant's contact data.
func ContactVisible(raw string) bool {
	s := Canonical(raw)
	return s == StatusAccepted || s == StatusHired
}

// OfferStatuses are the statuses a student's offer list shows.
var OfferStatuses = []Status{StatusOffered, StatusAccepted}
