package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"boardly-api/domain"
)

// postBodyMaxSize bounds request bodies on all document endpoints.
const postBodyMaxSize = 1 << 20

// Register wires up the entity endpoint families on the provided Echo
// instance. When auth is non-nil every route requires a valid bearer
// token.
func Register(e *echo.Echo, core Core, auth Authenticator, logger *log.Logger) {
	g := e.Group("")
	if auth != nil {
		g.Use(requireAuth(auth))
	}
	registerUsers(g, core)
	registerBoards(g, core)
	registerCardLists(g, core)
	registerCards(g, core, logger)
	e.GET("/healthz", healthz())
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

// requireAuth rejects requests whose Authorization header does not carry
// a valid session token.
func requireAuth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
				return c.String(http.StatusUnauthorized, err.Error())
			}
			return next(c)
		}
	}
}

// decodeBody decodes a bounded request body. Unknown keys are ignored;
// clients routinely post documents carrying server-maintained fields.
func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, postBodyMaxSize)
	return sonic.ConfigStd.NewDecoder(lr).Decode(v)
}

func readBody(c echo.Context) ([]byte, error) {
	return io.ReadAll(io.LimitReader(c.Request().Body, postBodyMaxSize))
}

// updateDoc handles the POST /{kind}/update family: the body is merged
// field-by-field over the stored document and the result echoed back.
func updateDoc(core Patcher, kind domain.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		payload, err := readBody(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Detail: "invalid body"})
		}
		merged, err := core.MergeUpdate(c.Request().Context(), kind, payload)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSONBlob(http.StatusOK, merged)
	}
}

// updateDocField handles the POST /{kind}/update/field family.
func updateDocField(core Patcher, kind domain.Kind, idParam string) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.QueryParam(idParam)
		field := c.QueryParam("field_name")
		if id == "" || field == "" {
			return c.JSON(http.StatusBadRequest, errorResponse{Detail: idParam + " and field_name are required"})
		}
		if err := core.PatchField(c.Request().Context(), kind, id, field, c.QueryParam("new_value")); err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, messageResponse{Message: fmt.Sprintf("Field '%s' updated successfully", field)})
	}
}
