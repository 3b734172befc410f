package api

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binspec/fieldexpr/pkg/types"
)

func postJSON(t *testing.T, srv *Server, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	return resp.StatusCode, decoded
}

func TestEvaluateArithmetic(t *testing.T) {
	srv := New(nil)

	status, body := postJSON(t, srv, "/v1/expressions:evaluate",
		`{"expression": "1 + 2 * 3"}`)
	require.Equal(t, 200, status)
	assert.EqualValues(t, 7, body["result"])
	assert.Equal(t, "(1+(2*3))", body["rendered"])
}

func TestEvaluateWithAssignments(t *testing.T) {
	srv := New(nil)

	status, body := postJSON(t, srv, "/v1/expressions:evaluate",
		`{"expression": "(sampling_factors & 240) >> 4",
		  "assignments": {"sampling_factors": 1234}}`)
	require.Equal(t, 200, status)
	assert.EqualValues(t, 13, body["result"])
}

func TestEvaluateEnumAccess(t *testing.T) {
	srv := New(nil)

	status, body := postJSON(t, srv, "/v1/expressions:evaluate",
		`{"expression": "marker != marker_enum::soi",
		  "assignments": {"marker": 1, "marker_enum": {"soi": 0, "eoi": 3}}}`)
	require.Equal(t, 200, status)
	assert.Equal(t, true, body["result"])
}

func TestEvaluateBaseAssignments(t *testing.T) {
	srv := New(map[string]types.Value{"width": types.NewInt(640)})

	status, body := postJSON(t, srv, "/v1/expressions:evaluate",
		`{"expression": "width / scale", "assignments": {"scale": 2}}`)
	require.Equal(t, 200, status)
	assert.EqualValues(t, 320, body["result"])

	// request values override base values
	status, body = postJSON(t, srv, "/v1/expressions:evaluate",
		`{"expression": "width", "assignments": {"width": 100}}`)
	require.Equal(t, 200, status)
	assert.EqualValues(t, 100, body["result"])
}

func TestEvaluateUnknownIdentifier(t *testing.T) {
	srv := New(nil)

	status, body := postJSON(t, srv, "/v1/expressions:evaluate",
		`{"expression": "missing_field + 1"}`)
	require.Equal(t, 400, status)

	errBody, ok := body["error"].(map[string]interface{})
	require.True(t, ok, "error object missing: %v", body)
	assert.Contains(t, errBody["message"], "missing_field")
	assert.Contains(t, errBody["tags"], types.TagUnknownIdentifierError)
}

func TestEvaluateMismatchedParens(t *testing.T) {
	srv := New(nil)

	status, body := postJSON(t, srv, "/v1/expressions:evaluate",
		`{"expression": "(1 + 2"}`)
	require.Equal(t, 400, status)

	errBody := body["error"].(map[string]interface{})
	assert.Contains(t, errBody["message"], "parenthesis")
}

func TestEvaluateMissingExpression(t *testing.T) {
	srv := New(nil)

	status, body := postJSON(t, srv, "/v1/expressions:evaluate", `{}`)
	require.Equal(t, 400, status)
	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, "expression is required", errBody["message"])
}

func TestEvaluateRejectsFractionalAssignment(t *testing.T) {
	srv := New(nil)

	status, body := postJSON(t, srv, "/v1/expressions:evaluate",
		`{"expression": "x + 1", "assignments": {"x": 1.5}}`)
	require.Equal(t, 400, status)
	errBody := body["error"].(map[string]interface{})
	assert.Contains(t, errBody["message"], "x")
}

func TestParseEndpoint(t *testing.T) {
	srv := New(nil)

	status, body := postJSON(t, srv, "/v1/expressions:parse",
		`{"expression": "1 + 2 * 3"}`)
	require.Equal(t, 200, status)

	rpn, ok := body["rpn"].([]interface{})
	require.True(t, ok, "rpn missing: %v", body)
	require.Len(t, rpn, 5)
	assert.Equal(t, "OP(*)", rpn[3])
	assert.Equal(t, "OP(+)", rpn[4])
	assert.Equal(t, "(1+(2*3))", body["rendered"])
}

func TestParseEndpointRejectsMismatchedBrackets(t *testing.T) {
	srv := New(nil)

	status, body := postJSON(t, srv, "/v1/expressions:parse",
		`{"expression": "data[0"}`)
	require.Equal(t, 400, status)
	errBody := body["error"].(map[string]interface{})
	assert.Contains(t, errBody["message"], "brackets")
}

func TestHealth(t *testing.T) {
	srv := New(nil)

	req := httptest.NewRequest("GET", "/healthz", nil)
	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)
}
