package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	apperrors "coursebay/pkg/errors"
)

func newContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestSuccessEnvelope(t *testing.T) {
	c, rec := newContext()

	assert.NoError(t, Success(c, map[string]string{"hello": "world"}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
	assert.Contains(t, rec.Body.String(), `"hello":"world"`)
}

func TestErrorMapsAppErrorStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apperrors.NotFound("Message", nil), http.StatusNotFound, "NOT_FOUND"},
		{apperrors.New("BLOCKED", "blocked", http.StatusForbidden, nil), http.StatusForbidden, "BLOCKED"},
		{apperrors.Conflict("already read"), http.StatusBadRequest, "CONFLICT"},
		{apperrors.Internal("upload failed", nil), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		c, rec := newContext()
		assert.NoError(t, Error(c, tc.err))
		assert.Equal(t, tc.status, rec.Code)
		assert.Contains(t, rec.Body.String(), tc.code)
		assert.Contains(t, rec.Body.String(), `"success":false`)
	}
}

func TestErrorHidesUnknownErrors(t *testing.T) {
	c, rec := newContext()

	assert.NoError(t, Error(c, assert.AnError))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}

func TestSuccessPaginated(t *testing.T) {
	c, rec := newContext()

	assert.NoError(t, SuccessPaginated(c, []string{"a", "b"}, 42, 20, 20))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":42`)
	assert.Contains(t, rec.Body.String(), `"page":2`)
	assert.Contains(t, rec.Body.String(), `"totalPages":3`)
}
