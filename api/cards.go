package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"boardly-api/domain"
)

func registerCards(g *echo.Group, core Core, logger *log.Logger) {
	g.POST("/card/create", createCard(core))
	g.GET("/card/get", getCard(core))
	g.DELETE("/card/delete", deleteCard(core))
	g.POST("/card/update", updateDoc(core, domain.KindCard))
	g.POST("/card/update/field", updateDocField(core, domain.KindCard, "card_id"))
	g.GET("/card/get/cardlists", cardsForCardList(core))
	g.POST("/card/move", moveCard(core, logger))
}

func createCard(cards CardService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var card domain.Card
		if err := decodeBody(c, &card); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Detail: "invalid body"})
		}
		created, err := cards.CreateCard(c.Request().Context(), card)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, created)
	}
}

func getCard(cards CardService) echo.HandlerFunc {
	return func(c echo.Context) error {
		card, err := cards.GetCard(c.Request().Context(), c.QueryParam("id"))
		return writeNullable(c, card, err)
	}
}

func deleteCard(cards CardService) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := cards.DeleteCard(c.Request().Context(), c.QueryParam("id")); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusOK)
	}
}

func cardsForCardList(cards CardService) echo.HandlerFunc {
	return func(c echo.Context) error {
		listID := c.QueryParam("cardlist_id")
		if listID == "" {
			return c.JSON(http.StatusBadRequest, errorResponse{Detail: "cardlist_id is required"})
		}
		out, err := cards.CardsForCardList(c.Request().Context(), listID)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, out)
	}
}

func moveCard(cards CardService, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics := newMoveRequestMetrics(logger)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		cardID := c.QueryParam("card_id")
		oldListID := c.QueryParam("old_list_id")
		newListID := c.QueryParam("new_list_id")
		if cardID == "" || oldListID == "" {
			metrics.SetErrorStage("validate")
			err = c.JSON(http.StatusBadRequest, errorResponse{Detail: "card_id and old_list_id are required"})
			return err
		}
		var targetPos *int
		if raw := c.QueryParam("target_position"); raw != "" {
			pos, parseErr := strconv.Atoi(raw)
			if parseErr != nil {
				metrics.SetErrorStage("validate")
				err = c.JSON(http.StatusBadRequest, errorResponse{Detail: "invalid target_position"})
				return err
			}
			targetPos = &pos
		}
		metrics.SetCrossList(newListID != "" && newListID != oldListID)

		moveStart := time.Now()
		card, moveErr := cards.MoveCard(c.Request().Context(), cardID, oldListID, newListID, targetPos)
		metrics.ObserveMove(time.Since(moveStart))
		if moveErr != nil {
			metrics.SetErrorStage("move")
			err = writeError(c, moveErr)
			return err
		}
		err = c.JSON(http.StatusOK, card)
		return err
	}
}
