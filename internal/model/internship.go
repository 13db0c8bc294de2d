package model

import (
	"time"

	"github.com/Internmain07/I-INTERN/internal/match"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Internship statuses
const (
	InternshipStatusActive   = "Active"
	InternshipStatusClosed   = "Closed"
	InternshipStatusDraft    = "Draft"
	InternshipStatusArchived = "Archived"
)

// EditableInternshipInfo is part of internship that can be edited by its company
type EditableInternshipInfo struct {
	Title        string         `gorm:"type:text;not null" json:"title"`
	Description  string         `gorm:"type:text" json:"description"`
	Location     string         `gorm:"type:text" json:"location"`
	Stipend      string         `gorm:"type:text" json:"stipend"`
	Duration     string         `gorm:"type:text" json:"duration"`
	Type         string         `gorm:"type:text" json:"type"`
	Level        string         `gorm:"type:text" json:"level"`
	Category     string         `gorm:"type:text" json:"category"`
	Skills       pq.StringArray `gorm:"type:text[]" json:"skills"`
	Requirements string         `gorm:"type:text" json:"requirements"`
	Benefits     string         `gorm:"type:text" json:"benefits"`
	Deadline     *time.Time     `gorm:"type:date" json:"deadline,omitempty"`
	Status       string         `gorm:"type:text;default:'Active';index" json:"status"`
}

// Internship is gorm model for store internship data in DB
type Internship struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	EmployerUserID uuid.UUID       `gorm:"type:uuid;not null;index;<-:create" json:"company_id"`
	Employer       EmployerProfile `gorm:"foreignKey:EmployerUserID;references:UserID" json:"-"`

	EditableInternshipInfo

	IsSuspended bool       `gorm:"default:false" json:"is_suspended"`
	DatePosted  time.Time  `gorm:"type:timestamptz;not null" json:"date_posted"`
	ArchivedAt  *time.Time `gorm:"type:timestamptz" json:"archived_at,omitempty"`

	Applications []Application `gorm:"foreignKey:InternshipID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a new id and posting time when none is set
func (i *Internship) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.DatePosted.IsZero() {
		i.DatePosted = time.Now()
	}
	if i.Status == "" {
		i.Status = InternshipStatusActive
	}
	return nil
}

// IsOpen reports whether students can still apply
func (i *Internship) IsOpen() bool {
	return i.IsOpenAt(time.Now())
}

// IsOpenAt reports whether students can apply at now. The deadline day itself is
// still open.
func (i *Internship) IsOpenAt(now time.Time) bool {
	return i.Status == InternshipStatusActive && !i.IsSuspended && !i.PastDeadline(now)
}

// PastDeadline reports whether the deadline date lies before the date of now
func (i *Internship) PastDeadline(now time.Time) bool {
	if i.Deadline == nil {
		return false
	}
	return i.Deadline.Format(time.DateOnly) < now.Format(time.DateOnly)
}

// InternshipResponse is an internship with its company name and, for interns, the
// match against their profile
type InternshipResponse struct {
	Internship
	CompanyName    string        `json:"company_name"`
	UserApplied    bool          `json:"user_applied"`
	ApplicantCount int64         `json:"applicant_count,omitempty"`
	MatchScore     string        `json:"match_score,omitempty"`
	Match          *match.Result `json:"match_details,omitempty"`
}
