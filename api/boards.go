package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"boardly-api/domain"
)

func registerBoards(g *echo.Group, core Core) {
	g.POST("/board/create", createBoard(core))
	g.GET("/board/get", getBoard(core))
	g.DELETE("/board/delete", deleteBoard(core))
	g.POST("/board/update", updateDoc(core, domain.KindBoard))
	g.POST("/board/update/field", updateDocField(core, domain.KindBoard, "board_id"))
	g.GET("/board/get/users", boardsForUser(core))
	g.POST("/board/invite", invite(core))
}

func createBoard(boards BoardService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var b domain.Board
		if err := decodeBody(c, &b); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Detail: "invalid body"})
		}
		created, err := boards.CreateBoard(c.Request().Context(), b)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, created)
	}
}

func getBoard(boards BoardService) echo.HandlerFunc {
	return func(c echo.Context) error {
		b, err := boards.GetBoard(c.Request().Context(), c.QueryParam("id"))
		return writeNullable(c, b, err)
	}
}

func deleteBoard(boards BoardService) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := boards.DeleteBoard(c.Request().Context(), c.QueryParam("id")); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusOK)
	}
}

func boardsForUser(boards BoardService) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID := c.QueryParam("user_id")
		if userID == "" {
			return c.JSON(http.StatusBadRequest, errorResponse{Detail: "user_id is required"})
		}
		list, err := boards.BoardsForUser(c.Request().Context(), userID)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, list)
	}
}

func invite(boards BoardService) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID := c.QueryParam("user_id")
		boardID := c.QueryParam("board_id")
		if userID == "" || boardID == "" {
			return c.JSON(http.StatusBadRequest, errorResponse{Detail: "user_id and board_id are required"})
		}
		if err := boards.Invite(c.Request().Context(), userID, boardID); err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, "User added successfully!")
	}
}
