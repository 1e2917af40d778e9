package service

import (
	"context"

	"github.com/bytedance/sonic"

	"boardly-api/domain"
)

// CreateBoard stores a new board owned by board.ParentID. The owner goes
// into the board's member list and the board id into the owner's
// board_member list. The user document is replaced before the board is
// created: a crash in between leaves a dangling reference in the user,
// which readers tolerate by skipping missing boards.
func (s *Service) CreateBoard(ctx context.Context, board domain.Board) (domain.Board, error) {
	owner := domain.KindUser.ID(board.ParentID)
	if owner == "" {
		return domain.Board{}, &ValidationError{Msg: "board parent_id is required"}
	}
	board.ID = domain.KindBoard.NewID()
	board.ParentID = owner
	if board.CardLists == nil {
		board.CardLists = []string{}
	}
	if !contains(board.Members, owner) {
		board.Members = append(board.Members, owner)
	}

	if _, err := mutateDoc(ctx, s, owner, func(u *domain.User) error {
		u.BoardMember = append(u.BoardMember, board.ID)
		return nil
	}); err != nil {
		return domain.Board{}, wrapMissing(err, domain.KindUser, owner)
	}
	if err := createDoc(ctx, s, board.ID, board); err != nil {
		return domain.Board{}, err
	}

	s.cache.EvictBoards(ctx, owner)
	data, _ := sonic.Marshal(board)
	s.emit(ctx, board.ID, string(domain.KindBoard), domain.EventCreated, data)
	return board, nil
}

// GetBoard reads one board document.
func (s *Service) GetBoard(ctx context.Context, id string) (domain.Board, error) {
	return getDoc[domain.Board](ctx, s, domain.KindBoard, domain.KindBoard.ID(id))
}

// BoardsForUser resolves the user's board_member references. Boards that
// no longer exist are skipped, not errors: a dangling reference is the
// documented intermediate state of the two-write membership protocol.
func (s *Service) BoardsForUser(ctx context.Context, userID string) ([]domain.Board, error) {
	userID = domain.KindUser.ID(userID)
	if boards, ok := s.cache.LoadBoards(ctx, userID); ok {
		return boards, nil
	}
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	boards := []domain.Board{}
	for _, ref := range u.BoardMember {
		b, err := s.GetBoard(ctx, domain.KindBoard.ID(ref))
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		boards = append(boards, b)
	}
	s.cache.StoreBoards(ctx, userID, boards)
	return boards, nil
}

// Invite adds the user to the board's member list and the board to the
// user's board list, in two independent replaces. Inviting an existing
// member is a no-op that still reports success.
func (s *Service) Invite(ctx context.Context, userID, boardID string) error {
	userID = domain.KindUser.ID(userID)
	boardID = domain.KindBoard.ID(boardID)

	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if _, err := s.GetBoard(ctx, boardID); err != nil {
		return err
	}
	if contains(u.BoardMember, boardID) {
		return nil
	}

	if _, err := mutateDoc(ctx, s, userID, func(u *domain.User) error {
		if contains(u.BoardMember, boardID) {
			return errUnchanged
		}
		u.BoardMember = append(u.BoardMember, boardID)
		return nil
	}); err != nil {
		return err
	}
	if _, err := mutateDoc(ctx, s, boardID, func(b *domain.Board) error {
		if contains(b.Members, userID) {
			return errUnchanged
		}
		b.Members = append(b.Members, userID)
		return nil
	}); err != nil {
		return err
	}

	s.cache.EvictBoards(ctx, userID)
	s.emit(ctx, boardID, string(domain.KindBoard), domain.EventInvited, []byte(`{"user_id":"`+userID+`"}`))
	return nil
}
