package api

import (
	"context"
	"encoding/json"

	"boardly-api/domain"
)

// UserService covers the user CRUD consumed by the user handlers and the
// login flows.
type UserService interface {
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)
	GetUser(ctx context.Context, id string) (domain.User, error)
	ListUserIDs(ctx context.Context) ([]string, error)
	FindUserByEmail(ctx context.Context, email string) (domain.User, error)
	Login(ctx context.Context, email, password string) (domain.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// BoardService covers board lifecycle and the user-board membership
// relation.
type BoardService interface {
	CreateBoard(ctx context.Context, b domain.Board) (domain.Board, error)
	GetBoard(ctx context.Context, id string) (domain.Board, error)
	BoardsForUser(ctx context.Context, userID string) ([]domain.Board, error)
	Invite(ctx context.Context, userID, boardID string) error
	DeleteBoard(ctx context.Context, id string) error
}

// CardListService covers card-list lifecycle and board containment.
type CardListService interface {
	CreateCardList(ctx context.Context, cl domain.CardList) (domain.CardList, error)
	GetCardList(ctx context.Context, id string) (domain.CardList, error)
	CardListsForBoard(ctx context.Context, boardID string) ([]domain.CardList, error)
	DeleteCardList(ctx context.Context, id string) error
}

// CardService covers card lifecycle and repositioning.
type CardService interface {
	CreateCard(ctx context.Context, c domain.Card) (domain.Card, error)
	GetCard(ctx context.Context, id string) (domain.Card, error)
	CardsForCardList(ctx context.Context, listID string) ([]domain.Card, error)
	MoveCard(ctx context.Context, cardID, oldListID, newListID string, targetPos *int) (domain.Card, error)
	DeleteCard(ctx context.Context, id string) error
}

// Patcher covers the uniform document update operations shared by all
// entity kinds.
type Patcher interface {
	PatchField(ctx context.Context, kind domain.Kind, id, field, rawValue string) error
	MergeUpdate(ctx context.Context, kind domain.Kind, payload []byte) (json.RawMessage, error)
}

// Core is the full mutation surface; *service.Service satisfies it.
type Core interface {
	UserService
	BoardService
	CardListService
	CardService
	Patcher
}

// Authenticator is implemented by types able to extract user IDs from
// Authorization headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}
