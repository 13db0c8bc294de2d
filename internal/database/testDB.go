package database

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	m "github.com/Internmain07/I-INTERN/internal/model"
	"github.com/Internmain07/I-INTERN/internal/utilities"
)

var testDBInstance *DBinstanceStruct
var teardown func(context.Context, ...testcontainers.TerminateOption) error

// Exported test users & profiles
var (
	TestAdminUser    m.User
	TestUserIntern1  m.User
	TestUserIntern2  m.User
	TestUserCompany1 m.User
	TestUserCompany2 m.User
	TestIntern1      m.StudentProfile
	TestIntern2      m.StudentProfile
	TestCompany1     m.EmployerProfile
	TestCompany2     m.EmployerProfile

	// Plain password of every seeded user
	TestSeedPassword = "SeedPass123!"

	// Exported seeded internships
	TestInternship1 m.Internship
	TestInternship2 m.Internship
	TestInternship3 m.Internship
)

// GetTestDB starts a PostgreSQL test container and returns a teardown function,
// the DB instance, and any error encountered during setup.
func GetTestDB() (func(context.Context, ...testcontainers.TerminateOption) error, *DBinstanceStruct, error) {

	if testDBInstance != nil && teardown != nil {
		return teardown, testDBInstance, nil
	}

	// Database configuration
	var (
		dbName = "database"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:latest",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, nil, err
	}

	dbHost, err := dbContainer.Host(context.Background())
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	dbPort, err := dbContainer.MappedPort(context.Background(), nat.Port("5432/tcp"))
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	config := &DBConfig{
		UseConstr: true,
		Constr:    fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", dbHost, dbPort.Port(), dbUser, dbPwd, dbName),
		DBName:    dbName,
	}

	db, err := NewDBInstance(config)
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	if err := seedTestData(db); err != nil {
		_ = dbContainer.Terminate(context.Background())
		return nil, nil, err
	}

	testDBInstance = db
	teardown = dbContainer.Terminate

	return dbContainer.Terminate, db, nil
}

// seedTestData inserts two interns, two companies, an admin and three internships.
func seedTestData(db *DBinstanceStruct) error {
	var userCount int64
	if err := db.Model(&m.User{}).Count(&userCount).Error; err != nil {
		return err
	}
	if userCount > 0 {
		return loadTestData(db)
	}

	userSpecs := []struct {
		email string
		name  string
		phone string
		role  string
	}{
		{"intern1@example.com", "Alice Nguyen", "0100000001", m.RoleIntern},
		{"intern2@example.com", "Bob Somsak", "0100000002", m.RoleIntern},
		{"company1@example.com", "Carol Tech", "0200000001", m.RoleCompany},
		{"company2@example.com", "Dan Forge", "0200000002", m.RoleCompany},
		{"admin@example.com", "Administrator", "0300000001", m.RoleAdmin},
	}

	// Pre-hash shared password for all seeded users
	hashedPwd, err := utilities.HashPassword(TestSeedPassword)
	if err != nil {
		return err
	}

	users := make([]m.User, 0, len(userSpecs))
	for _, s := range userSpecs {
		users = append(users, m.User{
			ID:            uuid.New(),
			Email:         s.email,
			FullName:      s.name,
			Phone:         ptr(s.phone),
			Role:          s.role,
			Password:      hashedPwd,
			IsActive:      true,
			EmailVerified: true,
		})
	}

	if err := db.Create(&users).Error; err != nil {
		return err
	}
	assignUsers(users)

	students := []m.StudentProfile{
		{
			UserID: TestUserIntern1.ID,
			EditableStudentInfo: m.EditableStudentInfo{
				University: "Kasetsart University",
				Major:      "Computer Engineering",
				Skills:     pq.StringArray{"Go", "SQL", "Docker"},
				SkillLevel: "intermediate",
			},
		},
		{
			UserID: TestUserIntern2.ID,
			EditableStudentInfo: m.EditableStudentInfo{
				University: "Chiang Mai University",
				Major:      "Software Engineering",
				Skills:     pq.StringArray{"React", "TypeScript"},
				SkillLevel: "beginner",
			},
		},
	}
	if err := db.Create(&students).Error; err != nil {
		return err
	}

	companies := []m.EmployerProfile{
		{
			UserID:         TestUserCompany1.ID,
			VerifiedStatus: m.StatusVerified,
			EditableCompanyInfo: m.EditableCompanyInfo{
				CompanyName: "TechNova",
				Industry:    "Software",
				City:        "Bangkok",
			},
		},
		{
			UserID:         TestUserCompany2.ID,
			VerifiedStatus: m.StatusPending,
			EditableCompanyInfo: m.EditableCompanyInfo{
				CompanyName: "DataForge",
				Industry:    "Consulting",
				City:        "Chiang Mai",
			},
		},
	}
	if err := db.Create(&companies).Error; err != nil {
		return err
	}

	TestIntern1, TestIntern2 = students[0], students[1]
	TestCompany1, TestCompany2 = companies[0], companies[1]

	deadline1 := time.Now().AddDate(0, 1, 0)
	deadline2 := time.Now().AddDate(0, 2, 0)
	deadline3 := time.Now().AddDate(0, 3, 0)

	internships := []m.Internship{
		{
			EmployerUserID: TestCompany1.UserID,
			DatePosted:     time.Now().Add(-3 * time.Hour),
			EditableInternshipInfo: m.EditableInternshipInfo{
				Title:       "Backend Engineer Intern",
				Description: "Work on Go microservices and database layers.",
				Location:    "Bangkok (Hybrid)",
				Stipend:     "15000 THB",
				Duration:    "3 months",
				Type:        "Hybrid",
				Level:       "intermediate",
				Category:    "Engineering",
				Skills:      pq.StringArray{"Go", "SQL"},
				Deadline:    &deadline1,
				Status:      m.InternshipStatusActive,
			},
		},
		{
			EmployerUserID: TestCompany1.UserID,
			DatePosted:     time.Now().Add(-2 * time.Hour),
			EditableInternshipInfo: m.EditableInternshipInfo{
				Title:       "Frontend Developer Intern",
				Description: "Assist building component library in React.",
				Location:    "Remote",
				Stipend:     "12000 THB",
				Duration:    "6 months",
				Type:        "Remote",
				Level:       "beginner",
				Category:    "Engineering",
				Skills:      pq.StringArray{"React", "TypeScript", "CSS"},
				Deadline:    &deadline2,
				Status:      m.InternshipStatusActive,
			},
		},
		{
			EmployerUserID: TestCompany2.UserID,
			DatePosted:     time.Now().Add(-1 * time.Hour),
			EditableInternshipInfo: m.EditableInternshipInfo{
				Title:       "Data Analyst Intern",
				Description: "Support data cleansing and dashboard creation.",
				Location:    "Chiang Mai (On-site)",
				Stipend:     "13000 THB",
				Duration:    "3 months",
				Type:        "On-site",
				Level:       "advanced",
				Category:    "Data",
				Skills:      pq.StringArray{"SQL", "Python"},
				Deadline:    &deadline3,
				Status:      m.InternshipStatusActive,
			},
		},
	}
	if err := db.Create(&internships).Error; err != nil {
		return err
	}
	TestInternship1, TestInternship2, TestInternship3 = internships[0], internships[1], internships[2]

	return nil
}

func assignUsers(users []m.User) {
	for _, u := range users {
		switch u.Email {
		case "intern1@example.com":
			TestUserIntern1 = u
		case "intern2@example.com":
			TestUserIntern2 = u
		case "company1@example.com":
			TestUserCompany1 = u
		case "company2@example.com":
			TestUserCompany2 = u
		case "admin@example.com":
			TestAdminUser = u
		}
	}
}

// loadTestData populates exported variables when records already exist.
func loadTestData(db *DBinstanceStruct) error {
	var users []m.User
	if err := db.Where("email IN ?", []string{
		"intern1@example.com", "intern2@example.com", "company1@example.com", "company2@example.com", "admin@example.com",
	}).Find(&users).Error; err != nil {
		return err
	}
	assignUsers(users)

	_ = db.First(&TestIntern1, "user_id = ?", TestUserIntern1.ID).Error
	_ = db.First(&TestIntern2, "user_id = ?", TestUserIntern2.ID).Error
	_ = db.First(&TestCompany1, "user_id = ?", TestUserCompany1.ID).Error
	_ = db.First(&TestCompany2, "user_id = ?", TestUserCompany2.ID).Error

	var internships []m.Internship
	if err := db.Order("date_posted ASC").Limit(3).Find(&internships).Error; err != nil {
		return err
	}
	if len(internships) == 3 {
		TestInternship1, TestInternship2, TestInternship3 = internships[0], internships[1], internships[2]
	}
	return nil
}

// CreateTestApplication inserts an application with the given status for tests.
func CreateTestApplication(db *DBinstanceStruct, student m.User, internship m.Internship, status string) (m.Application, error) {
	app := m.Application{
		Status:          status,
		StudentID:       student.ID,
		InternshipID:    internship.ID,
		ApplicationDate: time.Now(),
	}
	err := db.Create(&app).Error
	return app, err
}

// CreateTestInternship inserts an active internship owned by employer for tests.
func CreateTestInternship(db *DBinstanceStruct, employer m.User, title string, skills ...string) (m.Internship, error) {
	deadline := time.Now().AddDate(0, 1, 0)
	internship := m.Internship{
		EmployerUserID: employer.ID,
		EditableInternshipInfo: m.EditableInternshipInfo{
			Title:    title,
			Skills:   skills,
			Level:    "beginner",
			Deadline: &deadline,
			Status:   m.InternshipStatusActive,
		},
	}
	err := db.Create(&internship).Error
	return internship, err
}

// ptr helper
func ptr[T any](v T) *T { return &v }
