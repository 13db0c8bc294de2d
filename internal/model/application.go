package model

import (
	"time"

	"github.com/Internmain07/I-INTERN/internal/match"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Application represents an internship application record. Status holds a
// canonical lifecycle status; the three optional timestamps are set at most once.
type Application struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Status string    `gorm:"type:text;not null;default:'pending';index" json:"status"`

	StudentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_application_student_internship" json:"student_id"`
	Student   User      `gorm:"foreignKey:StudentID;references:ID;constraint:OnDelete:CASCADE" json:"-"`

	InternshipID uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_application_student_internship" json:"internship_id"`
	Internship   Internship `gorm:"foreignKey:InternshipID;references:ID" json:"-"`

	ApplicationDate   time.Time  `gorm:"type:timestamptz;not null" json:"application_date"`
	OfferSentDate     *time.Time `gorm:"type:timestamptz" json:"offer_sent_date"`
	OfferResponseDate *time.Time `gorm:"type:timestamptz" json:"offer_response_date"`
	HiredDate         *time.Time `gorm:"type:timestamptz" json:"hired_date"`

	ResumeID *int  `json:"resume_id"`
	Resume   *File `gorm:"foreignKey:ResumeID;references:ID;constraint:OnDelete:SET NULL" json:"-"`

	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a new id and application date when none is set
func (a *Application) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.ApplicationDate.IsZero() {
		a.ApplicationDate = time.Now()
	}
	return nil
}

// ContactInfo is applicant contact data, present only when the contact gate is open
type ContactInfo struct {
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

// ApplicantView is how a company sees one applicant of its internships
type ApplicantView struct {
	ApplicationID     uuid.UUID  `json:"application_id"`
	InternshipID      uuid.UUID  `json:"internship_id"`
	InternshipTitle   string     `json:"internship_title"`
	StudentID         uuid.UUID  `json:"student_id"`
	FullName          string     `json:"full_name"`
	Status            string     `json:"status"`
	ApplicationDate   time.Time  `json:"application_date"`
	OfferSentDate     *time.Time `json:"offer_sent_date"`
	OfferResponseDate *time.Time `json:"offer_response_date"`
	HiredDate         *time.Time `json:"hired_date"`
	ResumeID          *int       `json:"resume_id"`
	ContactInfo

	Profile *ApplicantProfile `json:"profile,omitempty"`

	MatchScore string        `json:"match_score,omitempty"`
	Match      *match.Result `json:"match_details,omitempty"`
}

// ApplicantProfile is the profile part of an ApplicantView. It never carries the
// user record, so contact data only reaches companies through ContactInfo.
type ApplicantProfile struct {
	ID uuid.UUID `json:"id"`
	EditableStudentInfo
	ResumeID        *int             `json:"resume_id"`
	WorkExperiences []WorkExperience `json:"work_experiences"`
	Projects        []Project        `json:"projects"`
}

// NewApplicantProfile copies p without its user. It returns nil for a nil profile.
func NewApplicantProfile(p *StudentProfile) *ApplicantProfile {
	if p == nil {
		return nil
	}
	return &ApplicantProfile{
		ID:                  p.UserID,
		EditableStudentInfo: p.EditableStudentInfo,
		ResumeID:            p.ResumeID,
		WorkExperiences:     p.WorkExperiences,
		Projects:            p.Projects,
	}
}

// StudentApplicationView is how a student sees one of their applications
type StudentApplicationView struct {
	Application
	InternshipTitle string `json:"internship_title"`
	CompanyName     string `json:"company_name"`
	Location        string `json:"location"`
	Stipend         string `json:"stipend"`
}
