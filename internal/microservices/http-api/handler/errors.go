package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"yamdb/internal/logging"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/service"
)

// respondError translates a service error into its HTTP status and body.
func respondError(c *gin.Context, err error) {
	var (
		verr   *service.ValidationError
		fields validator.ValidationErrors
	)

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: verr.Message, Field: verr.Field})
	case errors.As(err, &fields):
		fe := fields[0]
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: dto.ValidationMessage(fe), Field: fe.Field()})
	case errors.Is(err, service.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
	default:
		logging.Ctx(c.Request.Context()).Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("unhandled error")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}
}

// respondBindError reports a malformed body or query string.
func respondBindError(c *gin.Context, err error) {
	var (
		fields    validator.ValidationErrors
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)

	switch {
	case errors.As(err, &fields):
		respondError(c, err)
	case errors.As(err, &syntaxErr):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "malformed JSON body"})
	case errors.As(err, &typeErr):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid type", Field: typeErr.Field})
	default:
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}
}

// paramID parses a positive integer path parameter.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "invalid " + name})
		return 0, false
	}
	return id, true
}
