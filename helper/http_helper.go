package helper

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"speed-api/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	textOk = `ok`

	codeTypeSuccess      = `success`
	codeTypeBadRequest   = `badRequest`
	codeTypeValidation   = `validationError`
	codeTypeUnauthorized = `unAuthorized`
	codeTypeForbidden    = `forbidden`
	codeTypeNotFound     = `notFound`
	codeTypeConflict     = `conflict`
	codeTypeInternal     = `internalError`
)

// ResponseHelper ...
type ResponseHelper struct {
	C        *gin.Context
	Message  interface{}
	Data     interface{}
	Code     int
	CodeType string
}

// HTTPHelper writes the {code, code_type, code_message, data} envelope.
type HTTPHelper struct {
	Logger *zap.Logger
}

func NewHTTPHelper(logger *zap.Logger) *HTTPHelper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHelper{Logger: logger}
}

// GetStatusCode maps a service error to its HTTP status.
func (u *HTTPHelper) GetStatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var (
		validation   models.ErrorValidation
		unauthorized models.ErrorUnauthorized
		forbidden    models.ErrorForbidden
		notFound     models.ErrorNotFound
		conflict     models.ErrorConflict
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &unauthorized):
		return http.StatusUnauthorized
	case errors.As(err, &forbidden):
		return http.StatusForbidden
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &conflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// SendServiceError picks the envelope for err. Internal failures are logged
// and reported without their cause.
func (u *HTTPHelper) SendServiceError(c *gin.Context, err error) {
	var validation models.ErrorValidation
	if errors.As(err, &validation) {
		u.SendValidationError(c, validation)
		return
	}

	switch status := u.GetStatusCode(err); status {
	case http.StatusUnauthorized:
		u.SendUnauthorizedError(c, err.Error(), u.EmptyJsonMap())
	case http.StatusForbidden:
		u.SendForbiddenError(c, err.Error(), u.EmptyJsonMap())
	case http.StatusNotFound:
		u.SendNotFoundError(c, err.Error(), u.EmptyJsonMap())
	case http.StatusConflict:
		u.SendError(c, err.Error(), u.EmptyJsonMap(), status, codeTypeConflict)
	default:
		u.Logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err))
		u.SendError(c, "internal server error", u.EmptyJsonMap(), http.StatusInternalServerError, codeTypeInternal)
	}
}

// SendError ...
// Send error response to consumers.
func (u *HTTPHelper) SendError(c *gin.Context, message interface{}, data interface{}, code int, codeType string) {
	u.SendResponse(ResponseHelper{C: c, Message: message, Data: data, Code: code, CodeType: codeType})
}

// SendBadRequest ...
// Send bad request response to consumers.
func (u *HTTPHelper) SendBadRequest(c *gin.Context, message string, data interface{}) {
	u.SendError(c, message, data, http.StatusBadRequest, codeTypeBadRequest)
}

// SendValidationError ...
// Send validation error response to consumers. code_message lists the messages per field.
func (u *HTTPHelper) SendValidationError(c *gin.Context, verr models.ErrorValidation) {
	errorResponse := map[string][]string{}
	for field, messages := range verr.Details {
		errorResponse[field] = append(errorResponse[field], messages...)
	}
	for _, field := range verr.Fields {
		if _, ok := errorResponse[field]; !ok {
			errorResponse[field] = []string{verr.Message}
		}
	}
	if len(errorResponse) == 0 {
		u.SendBadRequest(c, verr.Error(), u.EmptyJsonMap())
		return
	}
	u.SendError(c, errorResponse, u.EmptyJsonMap(), http.StatusBadRequest, codeTypeValidation)
}

// SendUnauthorizedError ...
// Send unauthorized response to consumers.
func (u *HTTPHelper) SendUnauthorizedError(c *gin.Context, message string, data interface{}) {
	u.SendError(c, message, data, http.StatusUnauthorized, codeTypeUnauthorized)
}

// SendForbiddenError ...
func (u *HTTPHelper) SendForbiddenError(c *gin.Context, message string, data interface{}) {
	u.SendError(c, message, data, http.StatusForbidden, codeTypeForbidden)
}

// SendNotFoundError ...
// Send not found response to consumers.
func (u *HTTPHelper) SendNotFoundError(c *gin.Context, message string, data interface{}) {
	u.SendError(c, message, data, http.StatusNotFound, codeTypeNotFound)
}

// SendSuccess ...
// Send success response to consumers.
func (u *HTTPHelper) SendSuccess(c *gin.Context, message string, data interface{}) {
	u.SendResponse(ResponseHelper{C: c, Message: message, Data: data, Code: http.StatusOK, CodeType: codeTypeSuccess})
}

// SendCreated ...
func (u *HTTPHelper) SendCreated(c *gin.Context, message string, data interface{}) {
	u.SendResponse(ResponseHelper{C: c, Message: message, Data: data, Code: http.StatusCreated, CodeType: codeTypeSuccess})
}

// SendResponse ...
// Send response. The envelope code doubles as the HTTP status.
func (u *HTTPHelper) SendResponse(res ResponseHelper) {
	if res.Message == nil || res.Message == "" {
		res.Message = textOk
	}
	if res.Data == nil {
		res.Data = u.EmptyJsonMap()
	}

	res.C.JSON(res.Code, map[string]interface{}{
		"code":         res.Code,
		"code_type":    res.CodeType,
		"code_message": res.Message,
		"data":         res.Data,
	})
}

func (u *HTTPHelper) EmptyJsonMap() map[string]interface{} {
	return make(map[string]interface{})
}

// GetPagingUrl keeps the current query string and swaps page and limit.
func (u *HTTPHelper) GetPagingUrl(c *gin.Context, page, limit int) string {
	r := c.Request
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	query := url.Values{}
	for k, v := range r.URL.Query() {
		query[k] = v
	}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	return scheme + "://" + r.Host + r.URL.Path + "?" + query.Encode()
}

// GeneratePaging builds navigation links for a page of totalPages.
func (u *HTTPHelper) GeneratePaging(c *gin.Context, page, limit, totalPages int) *models.PageLinks {
	links := &models.PageLinks{}
	if totalPages == 0 {
		return links
	}

	if page > 1 && page <= totalPages {
		links.Previous = u.GetPagingUrl(c, page-1, limit)
		links.First = u.GetPagingUrl(c, 1, limit)
	}
	if page < totalPages {
		links.Next = u.GetPagingUrl(c, page+1, limit)
		links.Last = u.GetPagingUrl(c, totalPages, limit)
	}
	return links
}
