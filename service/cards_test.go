package service

import (
	"context"
	"testing"

	"boardly-api/domain"
)

// seedLists sets up two lists on one board: L1 holding c1,c2,c3 at
// positions 0,1,2 and L2 empty.
func seedLists(t *testing.T) *memStore {
	t.Helper()
	store := newMemStore()
	store.put(t, "board_b", domain.Board{ID: "board_b", CardLists: []string{"cardlist_l1", "cardlist_l2"}})
	store.put(t, "cardlist_l1", domain.CardList{ID: "cardlist_l1", BoardID: "board_b", Cards: []string{"card_c1", "card_c2", "card_c3"}})
	store.put(t, "cardlist_l2", domain.CardList{ID: "cardlist_l2", BoardID: "board_b", Cards: []string{}})
	store.put(t, "card_c1", domain.Card{ID: "card_c1", ListID: "cardlist_l1", Position: 0})
	store.put(t, "card_c2", domain.Card{ID: "card_c2", ListID: "cardlist_l1", Position: 1})
	store.put(t, "card_c3", domain.Card{ID: "card_c3", ListID: "cardlist_l1", Position: 2})
	return store
}

// assertListOrder checks the list's containment slice and that every
// card's back-reference and position agree with it.
func assertListOrder(t *testing.T, store *memStore, listID string, want []string) {
	t.Helper()
	var cl domain.CardList
	store.decode(t, listID, &cl)
	if len(cl.Cards) != len(want) {
		t.Fatalf("list %s: expected %d cards, got %#v", listID, len(want), cl.Cards)
	}
	for i, id := range want {
		if cl.Cards[i] != id {
			t.Fatalf("list %s: expected %s at slot %d, got %#v", listID, id, i, cl.Cards)
		}
		var card domain.Card
		store.decode(t, id, &card)
		if card.Position != i {
			t.Fatalf("card %s: expected position %d, got %d", id, i, card.Position)
		}
		if card.ListID != listID {
			t.Fatalf("card %s: expected list %s, got %s", id, listID, card.ListID)
		}
	}
}

func TestCreateCardAppendsAtEnd(t *testing.T) {
	store := seedLists(t)
	svc := newTestService(store)

	card, err := svc.CreateCard(context.Background(), domain.Card{ListID: "cardlist_l1", Name: "new"})
	if err != nil {
		t.Fatalf("CreateCard: %v", err)
	}
	if card.Position != 3 {
		t.Fatalf("expected position 3, got %d", card.Position)
	}
	var cl domain.CardList
	store.decode(t, "cardlist_l1", &cl)
	if len(cl.Cards) != 4 || cl.Cards[3] != card.ID {
		t.Fatalf("expected card appended to list, got %#v", cl.Cards)
	}
}

func TestCreateCardMissingList(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	if _, err := svc.CreateCard(context.Background(), domain.Card{ListID: "cardlist_gone"}); !IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestCardsForCardListSortedAndSkipsDangling(t *testing.T) {
	store := seedLists(t)
	store.mu.Lock()
	delete(store.docs, "card_c2")
	store.mu.Unlock()
	svc := newTestService(store)

	cards, err := svc.CardsForCardList(context.Background(), "cardlist_l1")
	if err != nil {
		t.Fatalf("CardsForCardList: %v", err)
	}
	if len(cards) != 2 || cards[0].ID != "card_c1" || cards[1].ID != "card_c3" {
		t.Fatalf("unexpected cards: %#v", cards)
	}
}

func TestMoveCardAcrossLists(t *testing.T) {
	store := seedLists(t)
	svc := newTestService(store)

	pos := 0
	card, err := svc.MoveCard(context.Background(), "card_c2", "cardlist_l1", "cardlist_l2", &pos)
	if err != nil {
		t.Fatalf("MoveCard: %v", err)
	}
	if card.ListID != "cardlist_l2" || card.Position != 0 {
		t.Fatalf("unexpected moved card: %#v", card)
	}
	assertListOrder(t, store, "cardlist_l1", []string{"card_c1", "card_c3"})
	assertListOrder(t, store, "cardlist_l2", []string{"card_c2"})
}

func TestMoveCardWithinListToEnd(t *testing.T) {
	store := seedLists(t)
	svc := newTestService(store)

	card, err := svc.MoveCard(context.Background(), "card_c1", "cardlist_l1", "", nil)
	if err != nil {
		t.Fatalf("MoveCard: %v", err)
	}
	if card.Position != 2 {
		t.Fatalf("expected position 2, got %d", card.Position)
	}
	assertListOrder(t, store, "cardlist_l1", []string{"card_c2", "card_c3", "card_c1"})
}

func TestMoveCardSamePositionIsNoop(t *testing.T) {
	store := seedLists(t)
	svc := newTestService(store)
	before := store.writeCount()

	pos := 1
	card, err := svc.MoveCard(context.Background(), "card_c2", "cardlist_l1", "cardlist_l1", &pos)
	if err != nil {
		t.Fatalf("MoveCard: %v", err)
	}
	if card.Position != 1 {
		t.Fatalf("expected position 1, got %d", card.Position)
	}
	if store.writeCount() != before {
		t.Fatalf("expected no writes for same-position move")
	}
	assertListOrder(t, store, "cardlist_l1", []string{"card_c1", "card_c2", "card_c3"})
}

func TestMoveCardClampsTargetPosition(t *testing.T) {
	store := seedLists(t)
	svc := newTestService(store)

	pos := 99
	card, err := svc.MoveCard(context.Background(), "card_c1", "cardlist_l1", "cardlist_l2", &pos)
	if err != nil {
		t.Fatalf("MoveCard: %v", err)
	}
	if card.Position != 0 {
		t.Fatalf("expected clamp to end of empty list, got %d", card.Position)
	}
	assertListOrder(t, store, "cardlist_l1", []string{"card_c2", "card_c3"})
	assertListOrder(t, store, "cardlist_l2", []string{"card_c1"})
}

func TestMoveCardNegativeTargetClampsToFront(t *testing.T) {
	store := seedLists(t)
	svc := newTestService(store)

	pos := -5
	card, err := svc.MoveCard(context.Background(), "card_c3", "cardlist_l1", "", &pos)
	if err != nil {
		t.Fatalf("MoveCard: %v", err)
	}
	if card.Position != 0 {
		t.Fatalf("expected position 0, got %d", card.Position)
	}
	assertListOrder(t, store, "cardlist_l1", []string{"card_c3", "card_c1", "card_c2"})
}

func TestMoveCardWrongSourceList(t *testing.T) {
	store := seedLists(t)
	svc := newTestService(store)

	_, err := svc.MoveCard(context.Background(), "card_c1", "cardlist_l2", "cardlist_l1", nil)
	if err == nil {
		t.Fatalf("expected error for wrong source list")
	}
	if _, ok := err.(*IntegrityError); !ok {
		t.Fatalf("expected IntegrityError, got %T: %v", err, err)
	}
	assertListOrder(t, store, "cardlist_l1", []string{"card_c1", "card_c2", "card_c3"})
}

func TestMoveCardAbsentFromSourceList(t *testing.T) {
	store := seedLists(t)
	// Card claims L1 but the list does not reference it.
	store.put(t, "cardlist_l1", domain.CardList{ID: "cardlist_l1", BoardID: "board_b", Cards: []string{"card_c1", "card_c3"}})
	svc := newTestService(store)

	_, err := svc.MoveCard(context.Background(), "card_c2", "cardlist_l1", "cardlist_l2", nil)
	if _, ok := err.(*IntegrityError); !ok {
		t.Fatalf("expected IntegrityError, got %T: %v", err, err)
	}
}

func TestMoveCardMissingDestination(t *testing.T) {
	store := seedLists(t)
	svc := newTestService(store)
	before := store.writeCount()

	_, err := svc.MoveCard(context.Background(), "card_c1", "cardlist_l1", "cardlist_gone", nil)
	if !IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if store.writeCount() != before {
		t.Fatalf("expected no writes when destination is missing")
	}
}

func TestMoveCardPreservesTotalCount(t *testing.T) {
	store := seedLists(t)
	svc := newTestService(store)

	if _, err := svc.MoveCard(context.Background(), "card_c3", "cardlist_l1", "cardlist_l2", nil); err != nil {
		t.Fatalf("MoveCard: %v", err)
	}
	var l1, l2 domain.CardList
	store.decode(t, "cardlist_l1", &l1)
	store.decode(t, "cardlist_l2", &l2)
	if len(l1.Cards)+len(l2.Cards) != 3 {
		t.Fatalf("expected 3 cards total, got %d + %d", len(l1.Cards), len(l2.Cards))
	}
}
