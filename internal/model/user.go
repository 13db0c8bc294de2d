// Package model contain gorm model for recording data to database
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// User roles
const (
	RoleIntern  = "intern"
	RoleCompany = "company"
	RoleAdmin   = "admin"
)

// Company verification statuses
const (
	StatusPending    = "Pending"
	StatusVerified   = "Verified"
	StatusUnverified = "Unverified"
)

// User is the account every role shares. Contact fields are only exposed to
// companies through the contact gate of the application lifecycle.
type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email    string    `gorm:"type:text;uniqueIndex;not null" json:"email"`
	Password string    `gorm:"type:text" json:"-"`
	GoogleID *string   `gorm:"type:text;uniqueIndex" json:"-"`
	Role     string    `gorm:"type:text;not null" json:"role"`
	FullName string    `gorm:"type:text" json:"full_name"`
	Phone    *string   `gorm:"type:text" json:"phone"`

	AvatarID *int  `json:"avatar_id"`
	Avatar   *File `gorm:"foreignKey:AvatarID;references:ID;constraint:OnDelete:SET NULL" json:"-"`

	IsActive      bool `gorm:"default:true" json:"is_active"`
	IsSuspended   bool `gorm:"default:false" json:"is_suspended"`
	EmailVerified bool `gorm:"default:false" json:"email_verified"`

	EmailVerificationOTP        *string    `gorm:"type:text" json:"-"`
	EmailVerificationOTPExpires *time.Time `gorm:"type:timestamptz" json:"-"`
	ResetOTP                    *string    `gorm:"type:text" json:"-"`
	ResetOTPExpires             *time.Time `gorm:"type:timestamptz" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a new id when none is set
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// EditableStudentInfo is the part of a student profile the student may change
type EditableStudentInfo struct {
	DateOfBirth    *time.Time     `gorm:"type:date" json:"date_of_birth"`
	Location       string         `gorm:"type:text" json:"location"`
	Bio            string         `gorm:"type:text" json:"bio"`
	University     string         `gorm:"type:text" json:"university"`
	Major          string         `gorm:"type:text" json:"major"`
	GraduationYear *int           `json:"graduation_year"`
	GradingType    string         `gorm:"type:text" json:"grading_type"`
	GradingScore   string         `gorm:"type:text" json:"grading_score"`
	Skills         pq.StringArray `gorm:"type:text[]" json:"skills"`
	SkillLevel     string         `gorm:"type:text" json:"skill_level"`
	CareerGoals    string         `gorm:"type:text" json:"career_goals"`
	Certifications pq.StringArray `gorm:"type:text[]" json:"certifications"`
	LinkedinURL    string         `gorm:"type:text" json:"linkedin_url"`
	GithubURL      string         `gorm:"type:text" json:"github_url"`
	PortfolioURL   string         `gorm:"type:text" json:"portfolio_url"`
}

// StudentProfile holds the intern specific data of a user
type StudentProfile struct {
	UserID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	User   User      `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"user"`

	EditableStudentInfo

	ResumeID *int  `json:"resume_id"`
	Resume   *File `gorm:"foreignKey:ResumeID;references:ID;constraint:OnDelete:SET NULL" json:"-"`

	WorkExperiences []WorkExperience `gorm:"foreignKey:StudentID;references:UserID;constraint:OnDelete:CASCADE" json:"work_experiences"`
	Projects        []Project        `gorm:"foreignKey:StudentID;references:UserID;constraint:OnDelete:CASCADE" json:"projects"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EditableWorkExperience is the client writable part of a work experience entry
type EditableWorkExperience struct {
	Title       string     `gorm:"type:text;not null" json:"title" binding:"required"`
	Company     string     `gorm:"type:text;not null" json:"company" binding:"required"`
	Location    string     `gorm:"type:text" json:"location"`
	StartDate   *time.Time `gorm:"type:date" json:"start_date"`
	EndDate     *time.Time `gorm:"type:date" json:"end_date"`
	IsCurrent   bool       `json:"is_current"`
	Description string     `gorm:"type:text" json:"description"`
}

// WorkExperience is an entry of a student's work history
type WorkExperience struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;index" json:"student_id"`
	EditableWorkExperience
}

// EditableProject is the client writable part of a project entry
type EditableProject struct {
	Title        string         `gorm:"type:text;not null" json:"title" binding:"required"`
	Description  string         `gorm:"type:text" json:"description"`
	Technologies pq.StringArray `gorm:"type:text[]" json:"technologies"`
	ProjectURL   string         `gorm:"type:text" json:"project_url"`
	GithubURL    string         `gorm:"type:text" json:"github_url"`
	StartDate    *time.Time     `gorm:"type:date" json:"start_date"`
	EndDate      *time.Time     `gorm:"type:date" json:"end_date"`
}

// Project is a student's portfolio project
type Project struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;index" json:"student_id"`
	EditableProject
}

// EditableCompanyInfo is the part of an employer profile the company may change
type EditableCompanyInfo struct {
	CompanyName        string `gorm:"type:text" json:"company_name"`
	CompanyDescription string `gorm:"type:text" json:"company_description"`
	ContactPerson      string `gorm:"type:text" json:"contact_person"`
	ContactNumber      string `gorm:"type:text" json:"contact_number"`
	Website            string `gorm:"type:text" json:"website"`
	Industry           string `gorm:"type:text" json:"industry"`
	CompanySize        string `gorm:"type:text" json:"company_size"`
	Address            string `gorm:"type:text" json:"address"`
	City               string `gorm:"type:text" json:"city"`
	State              string `gorm:"type:text" json:"state"`
	Country            string `gorm:"type:text" json:"country"`
	Pincode            string `gorm:"type:text" json:"pincode"`
}

// EmployerProfile holds the company specific data of a user
type EmployerProfile struct {
	UserID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	User   User      `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"user"`

	EditableCompanyInfo

	VerifiedStatus string `gorm:"type:text;default:'Pending'" json:"verified_status"`

	LogoID *int  `json:"logo_id"`
	Logo   *File `gorm:"foreignKey:LogoID;references:ID;constraint:OnDelete:SET NULL" json:"-"`

	Internships []Internship `gorm:"foreignKey:EmployerUserID;references:UserID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsVerified reports whether an admin approved the company
func (e *EmployerProfile) IsVerified() bool {
	return e.VerifiedStatus == StatusVerified
}
