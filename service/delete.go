package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"boardly-api/domain"
	"boardly-api/storage"
)

// DeleteUser removes the user document and takes the user out of every
// board member list it references. Boards the user owned stay behind
// with the remaining members.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	id = domain.KindUser.ID(id)
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	for _, ref := range u.BoardMember {
		boardID := domain.KindBoard.ID(ref)
		if _, err := mutateDoc(ctx, s, boardID, func(b *domain.Board) error {
			if !contains(b.Members, id) {
				return errUnchanged
			}
			b.Members = remove(b.Members, id)
			return nil
		}); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return wrapMissing(err, domain.KindUser, id)
	}
	s.cache.EvictBoards(ctx, id)
	s.emit(ctx, id, string(domain.KindUser), domain.EventDeleted, nil)
	return nil
}

// DeleteBoard removes the board, all of its card lists and cards, and
// the board's entry in every member's board_member list. Each removal is
// an independent write; rerunning the cascade after a partial failure is
// safe because every step tolerates already-deleted documents.
func (s *Service) DeleteBoard(ctx context.Context, id string) error {
	id = domain.KindBoard.ID(id)
	ctx, span := s.tracer.Start(ctx, "service.DeleteBoard")
	defer span.End()
	span.SetAttributes(attribute.String("board.id", id))

	b, err := s.GetBoard(ctx, id)
	if err != nil {
		return err
	}
	for _, ref := range b.CardLists {
		if err := s.deleteCardListDocs(ctx, domain.KindCardList.ID(ref)); err != nil {
			return err
		}
	}
	for _, member := range b.Members {
		userID := domain.KindUser.ID(member)
		if _, err := mutateDoc(ctx, s, userID, func(u *domain.User) error {
			if !contains(u.BoardMember, id) {
				return errUnchanged
			}
			u.BoardMember = remove(u.BoardMember, id)
			return nil
		}); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		s.cache.EvictBoards(ctx, userID)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return wrapMissing(err, domain.KindBoard, id)
	}
	s.cache.EvictCardLists(ctx, id)
	s.emit(ctx, id, string(domain.KindBoard), domain.EventDeleted, nil)
	return nil
}

// DeleteCardList removes the list, its cards, and the list's entry in
// the parent board's containment slice.
func (s *Service) DeleteCardList(ctx context.Context, id string) error {
	id = domain.KindCardList.ID(id)
	cl, err := s.GetCardList(ctx, id)
	if err != nil {
		return err
	}
	boardID := domain.KindBoard.ID(cl.BoardID)
	if _, err := mutateDoc(ctx, s, boardID, func(b *domain.Board) error {
		if !contains(b.CardLists, id) {
			return errUnchanged
		}
		b.CardLists = remove(b.CardLists, id)
		return nil
	}); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	if err := s.deleteCardListDocs(ctx, id); err != nil {
		return err
	}
	s.cache.EvictCardLists(ctx, boardID)
	return nil
}

// DeleteCard removes the card, closes the position gap it leaves in its
// list, and drops the list's reference to it.
func (s *Service) DeleteCard(ctx context.Context, id string) error {
	id = domain.KindCard.ID(id)
	c, err := s.GetCard(ctx, id)
	if err != nil {
		return err
	}
	listID := domain.KindCardList.ID(c.ListID)
	cl, err := mutateDoc(ctx, s, listID, func(cl *domain.CardList) error {
		if !contains(cl.Cards, id) {
			return errUnchanged
		}
		cl.Cards = remove(cl.Cards, id)
		return nil
	})
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return wrapMissing(err, domain.KindCard, id)
	}
	if cl.ID != "" {
		if err := s.renumberCards(ctx, listID, cl.Cards); err != nil {
			return err
		}
	}
	s.cache.EvictCards(ctx, listID)
	s.emit(ctx, id, string(domain.KindCard), domain.EventDeleted, nil)
	return nil
}

// deleteCardListDocs hard-deletes a list document and its cards without
// touching the parent board, for use when the board itself is going away.
func (s *Service) deleteCardListDocs(ctx context.Context, listID string) error {
	cl, err := s.GetCardList(ctx, listID)
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return err
	}
	for _, ref := range cl.Cards {
		cardID := domain.KindCard.ID(ref)
		if err := s.store.Delete(ctx, cardID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
	}
	if err := s.store.Delete(ctx, listID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	s.cache.EvictCards(ctx, listID)
	s.emit(ctx, listID, string(domain.KindCardList), domain.EventDeleted, nil)
	return nil
}
