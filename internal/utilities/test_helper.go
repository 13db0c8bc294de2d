package utilities

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
)

// SimulateAPICall runs a gin handler against a JSON request without a router.
// params fill c.Param for handlers that read path parameters; the user, when set,
// is stored in the context the way RequireAuth does.
// It returns the response recorder and the parsed JSON response.
func SimulateAPICall(
	handlerFunc func(*gin.Context),
	route string,
	method string,
	body interface{},
	params ...gin.Param,
) (*httptest.ResponseRecorder, map[string]interface{}, error) {
	return SimulateAuthedAPICall(handlerFunc, route, method, body, nil, params...)
}

// SimulateAuthedAPICall is SimulateAPICall with an authenticated user in the context.
func SimulateAuthedAPICall(
	handlerFunc func(*gin.Context),
	route string,
	method string,
	body interface{},
	user interface{},
	params ...gin.Param,
) (*httptest.ResponseRecorder, map[string]interface{}, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, nil, err
	}
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	req, err := http.NewRequest(method, route, bytes.NewReader(b))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = params
	if user != nil {
		c.Set("user", user)
	}
	handlerFunc(c)

	var resp map[string]interface{}
	err = json.Unmarshal(rec.Body.Bytes(), &resp)
	if err != nil {
		return rec, nil, err
	}
	return rec, resp, nil
}
