package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"boardly-api/service"
	"boardly-api/storage"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// writeError maps the service error taxonomy onto HTTP statuses: missing
// entities to 404, invalid requests to 400, integrity violations and
// exhausted concurrency retries to 409. Everything else is a 500.
func writeError(c echo.Context, err error) error {
	var nf *service.NotFoundError
	var ve *service.ValidationError
	var ie *service.IntegrityError
	switch {
	case errors.As(err, &nf):
		return c.JSON(http.StatusNotFound, errorResponse{Detail: nf.Error()})
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, errorResponse{Detail: ve.Error()})
	case errors.As(err, &ie):
		return c.JSON(http.StatusConflict, errorResponse{Detail: ie.Error()})
	case errors.Is(err, storage.ErrConflict):
		return c.JSON(http.StatusConflict, errorResponse{Detail: "concurrent modification, retry"})
	case errors.Is(err, storage.ErrExists):
		return c.JSON(http.StatusConflict, errorResponse{Detail: "document already exists"})
	}
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Detail: err.Error()})
}

// writeNullable serves read endpoints: a missing entity is a JSON null
// with status 200, not an error.
func writeNullable(c echo.Context, v any, err error) error {
	if err != nil {
		if service.IsNotFound(err) {
			return c.JSONBlob(http.StatusOK, []byte("null"))
		}
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}
