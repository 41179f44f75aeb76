package helper

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"speed-api/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetStatusCode(t *testing.T) {
	h := NewHTTPHelper(nil)

	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{models.NewValidationError("bad", "title"), http.StatusBadRequest},
		{models.ErrorUnauthorized{Message: "no"}, http.StatusUnauthorized},
		{models.ErrorForbidden{Message: "no"}, http.StatusForbidden},
		{models.ErrorNotFound{Resource: "article"}, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", models.ErrorNotFound{Resource: "user"}), http.StatusNotFound},
		{models.ErrorConflict{Message: "dup"}, http.StatusConflict},
		{models.NewStorageError(errors.New("disk full")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, h.GetStatusCode(tt.err), "%v", tt.err)
	}
}

func serve(fn func(c *gin.Context)) (*httptest.ResponseRecorder, map[string]interface{}) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "http://api.example/api/articles/search?claim=tdd&page=2&limit=5", nil)
	fn(c)

	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestSendServiceErrorHidesInternalCause(t *testing.T) {
	h := NewHTTPHelper(nil)
	w, body := serve(func(c *gin.Context) {
		h.SendServiceError(c, models.NewStorageError(errors.New("pq: password authentication failed")))
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", body["code_message"])
	assert.NotContains(t, w.Body.String(), "pq:")
}

func TestSendValidationErrorListsFields(t *testing.T) {
	h := NewHTTPHelper(nil)
	verr := models.ErrorValidation{
		Message: "validation failed",
		Fields:  []string{"title", "pubyear"},
		Details: map[string][]string{"title": {"title is a required field"}},
	}
	w, body := serve(func(c *gin.Context) { h.SendServiceError(c, verr) })

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validationError", body["code_type"])
	messages, ok := body["code_message"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, []interface{}{"title is a required field"}, messages["title"])
	assert.Equal(t, []interface{}{"validation failed"}, messages["pubyear"])
}

func TestGeneratePaging(t *testing.T) {
	h := NewHTTPHelper(nil)
	var links *models.PageLinks
	serve(func(c *gin.Context) { links = h.GeneratePaging(c, 2, 5, 3) })

	assert.Equal(t, "http://api.example/api/articles/search?claim=tdd&limit=5&page=1", links.Previous)
	assert.Equal(t, "http://api.example/api/articles/search?claim=tdd&limit=5&page=3", links.Next)
	assert.Equal(t, links.Previous, links.First)
	assert.Equal(t, links.Next, links.Last)

	serve(func(c *gin.Context) { links = h.GeneratePaging(c, 1, 5, 1) })
	assert.Equal(t, models.PageLinks{}, *links)
}
