package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"boardly-api/domain"
)

func registerUsers(g *echo.Group, core Core) {
	g.POST("/user/create", createUser(core))
	g.GET("/user/get", getUser(core))
	g.DELETE("/user/delete", deleteUser(core))
	g.POST("/user/update", updateDoc(core, domain.KindUser))
	g.POST("/user/update/field", updateDocField(core, domain.KindUser, "user_id"))
	g.GET("/user/get/all", listUsers(core))
}

func createUser(users UserService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var u domain.User
		if err := decodeBody(c, &u); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Detail: "invalid body"})
		}
		created, err := users.CreateUser(c.Request().Context(), u)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, created)
	}
}

func getUser(users UserService) echo.HandlerFunc {
	return func(c echo.Context) error {
		u, err := users.GetUser(c.Request().Context(), c.QueryParam("id"))
		u.Password = ""
		return writeNullable(c, u, err)
	}
}

func deleteUser(users UserService) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := users.DeleteUser(c.Request().Context(), c.QueryParam("id")); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusOK)
	}
}

func listUsers(users UserService) echo.HandlerFunc {
	return func(c echo.Context) error {
		ids, err := users.ListUserIDs(c.Request().Context())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, ids)
	}
}
