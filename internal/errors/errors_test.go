package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Error(t *testing.T) {
	err := New(http.StatusBadRequest, "INVALID_REQUEST", "bad request")
	assert.Equal(t, "bad request", err.Error())
}

func TestProblemDetails_MarshalIncludesExtensions(t *testing.T) {
	pd := NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "session gone", "/api/session/x")
	pd.WithExtension("trace_id", "abc123")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "/errors/not-found", got["type"])
	assert.Equal(t, float64(404), got["status"])
	assert.Equal(t, "abc123", got["trace_id"])
	assert.Equal(t, "session gone", got["detail"])
}

func TestHandleError_RendersProblem(t *testing.T) {
	h := NewErrorHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/session/x", nil)
	rec := httptest.NewRecorder()
	h.HandleError(rec, req, SessionNotFoundError("x"))

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "SESSION_NOT_FOUND", got["error_code"])
	assert.Equal(t, "/api/session/x", got["instance"])
}

func TestErrorToProblem_UnknownErrorIsInternal(t *testing.T) {
	h := NewErrorHandler(nil)
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	pd := h.ErrorToProblem(fmt.Errorf("boom"), req)
	assert.Equal(t, http.StatusInternalServerError, pd.Status)
	assert.Equal(t, TypeInternal, pd.Type)
}

func TestInvalidInputError(t *testing.T) {
	err := InvalidInputError(fmt.Errorf("not a workbook"))
	assert.Equal(t, http.StatusUnprocessableEntity, err.StatusCode)
	assert.Equal(t, "not a workbook", err.Details)
}
