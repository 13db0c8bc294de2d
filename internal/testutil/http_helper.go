// Package testutil provides utility functions for testing HTTP handlers.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"

	"github.com/Internmain07/I-INTERN/internal/auth"
	"github.com/Internmain07/I-INTERN/internal/database"
	"github.com/Internmain07/I-INTERN/internal/middleware"
)

// CookieName is the access token cookie used by test routers
const CookieName = "access_token"

// MakeJSONRequest is a helper function for making JSON requests in tests
func MakeJSONRequest(body interface{}, authToken string, r *gin.Engine, endpoint string, method string) (*httptest.ResponseRecorder, map[string]interface{}) {
	rec := serve(body, authToken, r, endpoint, method)

	resp := map[string]interface{}{}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)

	return rec, resp
}

// MakeJSONArrayRequest is MakeJSONRequest for endpoints answering a JSON array
func MakeJSONArrayRequest(body interface{}, authToken string, r *gin.Engine, endpoint string, method string) (*httptest.ResponseRecorder, []map[string]interface{}) {
	rec := serve(body, authToken, r, endpoint, method)

	resp := []map[string]interface{}{}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)

	return rec, resp
}

func serve(body interface{}, authToken string, r *gin.Engine, endpoint string, method string) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}

	req, _ := http.NewRequest(method, endpoint, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// Protected returns the authentication chain the server puts in front of
// role restricted routes, using the test token manager.
func Protected(db *database.DBinstanceStruct, roles ...string) []gin.HandlerFunc {
	chain := []gin.HandlerFunc{
		middleware.RequireAuth(db, auth.TestTokens, CookieName),
		middleware.CheckSuspension(),
	}
	if len(roles) > 0 {
		chain = append(chain, middleware.CheckRole(roles...))
	}
	return chain
}

// Chain appends the handler to the middleware chain
func Chain(chain []gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	return append(append([]gin.HandlerFunc{}, chain...), handler)
}

// StringPtr is a helper function to get a pointer to a string
func StringPtr(s string) *string {
	return &s
}
