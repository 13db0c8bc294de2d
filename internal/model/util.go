package model

// MigrateAble is array of model instance, use for migrating database
var MigrateAble []interface{}

func init() {
	MigrateAble = append(
		MigrateAble,
		&File{},
		&User{},
		&StudentProfile{},
		&WorkExperience{},
		&Project{},
		&EmployerProfile{},
		&Internship{},
		&Application{},
	)
}

// AuthResponse holds the response data for a login or registration
type AuthResponse struct {
	User        User   `json:"user"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// SetAccessToken sets the access token in the AuthResponse
func (r *AuthResponse) SetAccessToken(accessToken string) {
	r.AccessToken = accessToken
	r.TokenType = "bearer"
}
