package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/bytedance/sonic"
	"go.opentelemetry.io/otel/attribute"

	"boardly-api/domain"
	"boardly-api/storage"
)

// CreateCard stores a new card appended to the end of its parent list.
// The list's containment slice is updated first, then the card document
// is created.
func (s *Service) CreateCard(ctx context.Context, card domain.Card) (domain.Card, error) {
	listID := domain.KindCardList.ID(card.ListID)
	if listID == "" {
		return domain.Card{}, &ValidationError{Msg: "card list_id is required"}
	}
	card.ID = domain.KindCard.NewID()
	card.ListID = listID

	position := 0
	if _, err := mutateDoc(ctx, s, listID, func(cl *domain.CardList) error {
		position = len(cl.Cards)
		cl.Cards = append(cl.Cards, card.ID)
		return nil
	}); err != nil {
		return domain.Card{}, wrapMissing(err, domain.KindCardList, listID)
	}
	card.Position = position
	if err := createDoc(ctx, s, card.ID, card); err != nil {
		return domain.Card{}, err
	}

	s.cache.EvictCards(ctx, listID)
	data, _ := sonic.Marshal(card)
	s.emit(ctx, card.ID, string(domain.KindCard), domain.EventCreated, data)
	return card, nil
}

// GetCard reads one card document.
func (s *Service) GetCard(ctx context.Context, id string) (domain.Card, error) {
	return getDoc[domain.Card](ctx, s, domain.KindCard, domain.KindCard.ID(id))
}

// CardsForCardList resolves the list's card references, skipping any that
// no longer exist, ordered by position.
func (s *Service) CardsForCardList(ctx context.Context, listID string) ([]domain.Card, error) {
	listID = domain.KindCardList.ID(listID)
	if cards, ok := s.cache.LoadCards(ctx, listID); ok {
		return cards, nil
	}
	cl, err := s.GetCardList(ctx, listID)
	if err != nil {
		return nil, err
	}
	cards := []domain.Card{}
	for _, ref := range cl.Cards {
		c, err := s.GetCard(ctx, domain.KindCard.ID(ref))
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		cards = append(cards, c)
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].Position < cards[j].Position })
	s.cache.StoreCards(ctx, listID, cards)
	return cards, nil
}

// MoveCard repositions a card, either within its list or across lists.
// Positions are 0-based and kept contiguous; targetPos nil or out of
// range clamps to the end of the destination. A card absent from its
// recorded source list is an IntegrityError.
func (s *Service) MoveCard(ctx context.Context, cardID, oldListID, newListID string, targetPos *int) (domain.Card, error) {
	cardID = domain.KindCard.ID(cardID)
	oldListID = domain.KindCardList.ID(oldListID)
	newListID = domain.KindCardList.ID(newListID)
	sameList := newListID == "" || newListID == oldListID
	if sameList {
		newListID = oldListID
	}

	ctx, span := s.tracer.Start(ctx, "service.MoveCard")
	defer span.End()
	span.SetAttributes(
		attribute.String("card.id", cardID),
		attribute.Bool("move.cross_list", !sameList),
	)

	card, err := s.GetCard(ctx, cardID)
	if err != nil {
		return domain.Card{}, err
	}
	if card.ListID != oldListID {
		return domain.Card{}, &IntegrityError{Msg: fmt.Sprintf("card %s belongs to %s, not %s", cardID, card.ListID, oldListID)}
	}
	if !sameList {
		if _, err := s.GetCardList(ctx, newListID); err != nil {
			return domain.Card{}, err
		}
	}

	var finalPos int
	if sameList {
		finalPos, err = s.reorderWithinList(ctx, cardID, oldListID, targetPos)
	} else {
		finalPos, err = s.moveAcrossLists(ctx, cardID, oldListID, newListID, targetPos)
	}
	if err != nil {
		return domain.Card{}, err
	}

	s.cache.EvictCards(ctx, oldListID)
	if !sameList {
		s.cache.EvictCards(ctx, newListID)
	}
	card.ListID = newListID
	card.Position = finalPos
	data, _ := sonic.Marshal(card)
	s.emit(ctx, cardID, string(domain.KindCard), domain.EventMoved, data)
	return card, nil
}

// reorderWithinList removes the card's slot and reinserts it at the
// target, rewriting the list once and renumbering only the cards whose
// position changed.
func (s *Service) reorderWithinList(ctx context.Context, cardID, listID string, targetPos *int) (int, error) {
	finalPos := 0
	updated, err := mutateDoc(ctx, s, listID, func(cl *domain.CardList) error {
		idx := indexOf(cl.Cards, cardID)
		if idx < 0 {
			return &IntegrityError{Msg: fmt.Sprintf("card %s not found in list %s", cardID, listID)}
		}
		tgt := clamp(targetPos, len(cl.Cards)-1)
		finalPos = tgt
		if tgt == idx {
			return errUnchanged
		}
		cl.Cards = insertAt(removeAt(cl.Cards, idx), tgt, cardID)
		return nil
	})
	if err != nil {
		return 0, wrapMissing(err, domain.KindCardList, listID)
	}
	if updated.ID == "" {
		// no-op reorder: the list was never rewritten
		return finalPos, nil
	}
	return finalPos, s.renumberCards(ctx, listID, updated.Cards)
}

// moveAcrossLists performs the four-document protocol: rewrite the source
// list, rewrite the destination list, then renumber both sides (which
// also retargets the moved card's list_id and position). A crash mid-way
// leaves a one-sided containment state that readers skip over.
func (s *Service) moveAcrossLists(ctx context.Context, cardID, oldListID, newListID string, targetPos *int) (int, error) {
	oldList, err := mutateDoc(ctx, s, oldListID, func(cl *domain.CardList) error {
		idx := indexOf(cl.Cards, cardID)
		if idx < 0 {
			return &IntegrityError{Msg: fmt.Sprintf("card %s not found in list %s", cardID, oldListID)}
		}
		cl.Cards = removeAt(cl.Cards, idx)
		return nil
	})
	if err != nil {
		return 0, wrapMissing(err, domain.KindCardList, oldListID)
	}

	finalPos := 0
	newList, err := mutateDoc(ctx, s, newListID, func(cl *domain.CardList) error {
		tgt := clamp(targetPos, len(cl.Cards))
		finalPos = tgt
		cl.Cards = insertAt(cl.Cards, tgt, cardID)
		return nil
	})
	if err != nil {
		return 0, wrapMissing(err, domain.KindCardList, newListID)
	}

	if err := s.renumberCards(ctx, oldListID, oldList.Cards); err != nil {
		return 0, err
	}
	return finalPos, s.renumberCards(ctx, newListID, newList.Cards)
}

// renumberCards walks the list's containment order and rewrites any card
// whose position or parent back-reference disagrees with it. Dangling
// references are skipped.
func (s *Service) renumberCards(ctx context.Context, listID string, order []string) error {
	for i, id := range order {
		pos := i
		if _, err := mutateDoc(ctx, s, id, func(c *domain.Card) error {
			if c.Position == pos && c.ListID == listID {
				return errUnchanged
			}
			c.Position = pos
			c.ListID = listID
			return nil
		}); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return err
		}
	}
	return nil
}

// clamp resolves a requested target position against a list of the given
// maximum slot. nil or past-the-end requests land on max, negative on 0.
func clamp(pos *int, max int) int {
	if max < 0 {
		max = 0
	}
	if pos == nil || *pos > max {
		return max
	}
	if *pos < 0 {
		return 0
	}
	return *pos
}

func indexOf(list []string, v string) int {
	for i, item := range list {
		if item == v {
			return i
		}
	}
	return -1
}

func removeAt(list []string, i int) []string {
	return append(append([]string{}, list[:i]...), list[i+1:]...)
}

func insertAt(list []string, i int, v string) []string {
	if i >= len(list) {
		return append(list, v)
	}
	out := make([]string, 0, len(list)+1)
	out = append(out, list[:i]...)
	out = append(out, v)
	return append(out, list[i:]...)
}
