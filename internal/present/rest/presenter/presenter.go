package presenter

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/totegamma/lobbywatch/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

func BadRequest(c echo.Context, err error) error {
	log.Debug().Str("module", "rest").Err(err).Str("path", c.Path()).Msg("Bad request")
	return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func BadRequestMessage(c echo.Context, msg string) error {
	log.Debug().Str("module", "rest").Str("path", c.Path()).Msg("Bad request: " + msg)
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func NotFound(c echo.Context, msg string) error {
	return c.JSON(http.StatusNotFound, errorResponse{Error: msg})
}

func InternalError(c echo.Context, err error) error {
	log.Error().Str("module", "rest").Err(err).Str("path", c.Path()).Msg("Internal error")
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

// Error maps a use case error onto a response.
func Error(c echo.Context, err error) error {
	var notFound domain.NotFoundError
	if errors.As(err, &notFound) {
		return NotFound(c, notFound.Error())
	}
	return InternalError(c, err)
}
