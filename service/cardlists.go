package service

import (
	"context"

	"github.com/bytedance/sonic"

	"boardly-api/domain"
)

// CreateCardList stores a new card list under its parent board. The
// board's containment list is updated first, then the list document is
// created, mirroring the membership protocol's write order.
func (s *Service) CreateCardList(ctx context.Context, list domain.CardList) (domain.CardList, error) {
	boardID := domain.KindBoard.ID(list.BoardID)
	if boardID == "" {
		return domain.CardList{}, &ValidationError{Msg: "cardlist board_id is required"}
	}
	list.ID = domain.KindCardList.NewID()
	list.BoardID = boardID
	if list.Cards == nil {
		list.Cards = []string{}
	}

	if _, err := mutateDoc(ctx, s, boardID, func(b *domain.Board) error {
		b.CardLists = append(b.CardLists, list.ID)
		return nil
	}); err != nil {
		return domain.CardList{}, wrapMissing(err, domain.KindBoard, boardID)
	}
	if err := createDoc(ctx, s, list.ID, list); err != nil {
		return domain.CardList{}, err
	}

	s.cache.EvictCardLists(ctx, boardID)
	data, _ := sonic.Marshal(list)
	s.emit(ctx, list.ID, string(domain.KindCardList), domain.EventCreated, data)
	return list, nil
}

// GetCardList reads one card list document.
func (s *Service) GetCardList(ctx context.Context, id string) (domain.CardList, error) {
	return getDoc[domain.CardList](ctx, s, domain.KindCardList, domain.KindCardList.ID(id))
}

// CardListsForBoard resolves the board's cardlists references in order,
// skipping any that no longer exist.
func (s *Service) CardListsForBoard(ctx context.Context, boardID string) ([]domain.CardList, error) {
	boardID = domain.KindBoard.ID(boardID)
	if lists, ok := s.cache.LoadCardLists(ctx, boardID); ok {
		return lists, nil
	}
	b, err := s.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	lists := []domain.CardList{}
	for _, ref := range b.CardLists {
		cl, err := s.GetCardList(ctx, domain.KindCardList.ID(ref))
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		lists = append(lists, cl)
	}
	s.cache.StoreCardLists(ctx, boardID, lists)
	return lists, nil
}
