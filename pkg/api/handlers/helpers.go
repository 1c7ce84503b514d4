package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/prospectra/leadcrm/pkg/domain"
	"github.com/prospectra/leadcrm/pkg/models"
)

var validate = validator.New()

// domainError maps a domain error code onto an HTTP response.
func domainError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch domain.GetErrorCode(err) {
	case domain.ErrCodeNotFound:
		status = http.StatusNotFound
	case domain.ErrCodeValidation, domain.ErrCodeBadRequest:
		status = http.StatusBadRequest
	case domain.ErrCodeDuplicate, domain.ErrCodeConflict:
		status = http.StatusConflict
	}

	message := "An internal error occurred"
	var de *domain.DomainError
	if errors.As(err, &de) {
		message = de.Message
	}

	return c.JSON(status, models.ErrorResponse{
		Error:   domain.GetErrorCode(err),
		Message: message,
	})
}

// pathID parses the :id path parameter.
func pathID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, domain.NewBadRequestError("id must be a positive number")
	}
	return id, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(c echo.Context, name string, defaultValue int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return v
}

// queryIntPtr parses an optional integer query parameter into a pointer.
func queryIntPtr(c echo.Context, name string) *int {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &v
}

// queryBool parses an optional boolean query parameter.
func queryBool(c echo.Context, name string) bool {
	v, err := strconv.ParseBool(c.QueryParam(name))
	return err == nil && v
}
