package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/omarrislam/Quiz-App/internal/response"
	"github.com/omarrislam/Quiz-App/internal/service"
)

func statusFor(k service.Kind) int {
	switch k {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindInvalidInput:
		return http.StatusBadRequest
	case service.KindRateLimited:
		return http.StatusTooManyRequests
	case service.KindConflict:
		return http.StatusConflict
	case service.KindUnauthenticated:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// fail renders err in the standard envelope. Untagged errors become a
// generic INTERNAL_ERROR; the cause is attached to the context for the
// request logger and never sent to the client.
func fail(c *gin.Context, err error) {
	var ie *service.ImportError
	if errors.As(err, &ie) {
		response.FailWithDetail(c, http.StatusBadRequest, response.ErrImportRows, "", ie.Fields())
		return
	}

	var se *service.Error
	if errors.As(err, &se) {
		if se.Kind == service.KindInternal {
			_ = c.Error(err)
		}
		response.FailWithDetail(c, statusFor(se.Kind), se.Code, se.Message, nil)
		return
	}

	_ = c.Error(err)
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}

// paramUUID parses a path parameter, writing INVALID_ID when it is malformed.
func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
