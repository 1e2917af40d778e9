package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"boardly-api/domain"
)

func registerCardLists(g *echo.Group, core Core) {
	g.POST("/cardlist/create", createCardList(core))
	g.GET("/cardlist/get", getCardList(core))
	g.DELETE("/cardlist/delete", deleteCardList(core))
	g.POST("/cardlist/update", updateDoc(core, domain.KindCardList))
	g.POST("/cardlist/update/field", updateDocField(core, domain.KindCardList, "cardlist_id"))
	g.GET("/cardlist/get/boards", cardListsForBoard(core))
}

func createCardList(lists CardListService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var cl domain.CardList
		if err := decodeBody(c, &cl); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Detail: "invalid body"})
		}
		created, err := lists.CreateCardList(c.Request().Context(), cl)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, created)
	}
}

func getCardList(lists CardListService) echo.HandlerFunc {
	return func(c echo.Context) error {
		cl, err := lists.GetCardList(c.Request().Context(), c.QueryParam("id"))
		return writeNullable(c, cl, err)
	}
}

func deleteCardList(lists CardListService) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := lists.DeleteCardList(c.Request().Context(), c.QueryParam("id")); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusOK)
	}
}

func cardListsForBoard(lists CardListService) echo.HandlerFunc {
	return func(c echo.Context) error {
		boardID := c.QueryParam("board_id")
		if boardID == "" {
			return c.JSON(http.StatusBadRequest, errorResponse{Detail: "board_id is required"})
		}
		out, err := lists.CardListsForBoard(c.Request().Context(), boardID)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, out)
	}
}
