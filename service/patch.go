package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"
	"golang.org/x/crypto/bcrypt"

	"boardly-api/domain"
)

// PatchField rewrites a single named field of the entity's document. The
// field must belong to the kind's closed mutable set; anything else is
// rejected before the document is touched. The raw value is decoded as
// JSON when possible and stored as a plain string otherwise.
func (s *Service) PatchField(ctx context.Context, kind domain.Kind, id, field, rawValue string) error {
	if !kind.IsMutableField(field) {
		return &ValidationError{Msg: fmt.Sprintf("field %q is not patchable on %s", field, kind)}
	}
	id = kind.ID(id)

	value, err := decodeFieldValue(kind, field, rawValue)
	if err != nil {
		return err
	}

	var patched map[string]any
	if err := s.replaceWithRetry(ctx, id, func(raw json.RawMessage) ([]byte, error) {
		var doc map[string]any
		if err := sonic.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		doc[field] = value
		patched = doc
		return sonic.Marshal(doc)
	}); err != nil {
		return wrapMissing(err, kind, id)
	}

	s.evictListings(ctx, kind, patched)
	s.emit(ctx, id, string(kind), domain.EventFieldUpdated, []byte(fmt.Sprintf("{%q:%q}", "field", field)))
	return nil
}

// MergeUpdate overlays every known field present in the payload onto the
// stored document and returns the merged result. The id is taken from
// the payload and never overwritten.
func (s *Service) MergeUpdate(ctx context.Context, kind domain.Kind, payload []byte) (json.RawMessage, error) {
	var update map[string]any
	if err := sonic.Unmarshal(payload, &update); err != nil {
		return nil, &ValidationError{Msg: "invalid document body"}
	}
	rawID, _ := update["id"].(string)
	if rawID == "" {
		return nil, &ValidationError{Msg: "document id is required"}
	}
	id := kind.ID(rawID)

	var merged map[string]any
	var out []byte
	if err := s.replaceWithRetry(ctx, id, func(raw json.RawMessage) ([]byte, error) {
		var doc map[string]any
		if err := sonic.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		for key, val := range update {
			if !kind.IsKnownField(key) {
				continue
			}
			if kind == domain.KindUser && key == "password" {
				str, ok := val.(string)
				if !ok {
					return nil, &ValidationError{Msg: "password must be a string"}
				}
				hashed, err := bcrypt.GenerateFromPassword([]byte(str), bcrypt.DefaultCost)
				if err != nil {
					return nil, err
				}
				val = string(hashed)
			}
			doc[key] = val
		}
		merged = doc
		data, err := sonic.Marshal(doc)
		out = data
		return data, err
	}); err != nil {
		return nil, wrapMissing(err, kind, id)
	}

	s.evictListings(ctx, kind, merged)
	s.emit(ctx, id, string(kind), domain.EventUpdated, out)
	return out, nil
}

// decodeFieldValue interprets the query-string value per the declared
// type of the field being patched. Every mutable field is a plain string
// except card tags, which take a JSON string array. Password patches are
// stored hashed like at create time. Guessing the type from the value
// would let a name like "123" land as a JSON number and break every
// typed read of the document afterwards.
func decodeFieldValue(kind domain.Kind, field, rawValue string) (any, error) {
	if kind == domain.KindUser && field == "password" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(rawValue), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		return string(hashed), nil
	}
	if kind == domain.KindCard && field == "tags" {
		var tags []string
		if err := sonic.Unmarshal([]byte(rawValue), &tags); err != nil {
			return nil, &ValidationError{Msg: "tags must be a JSON array of strings"}
		}
		return tags, nil
	}
	return rawValue, nil
}

// evictListings drops the cached listings a document rewrite can have
// gone stale: its own entry in the parent's child listing, keyed off the
// back-references in the merged document, and the entity's own child
// listing in case a relation field was overlaid.
func (s *Service) evictListings(ctx context.Context, kind domain.Kind, doc map[string]any) {
	if doc == nil {
		return
	}
	id, _ := doc["id"].(string)
	switch kind {
	case domain.KindUser:
		if id != "" {
			s.cache.EvictBoards(ctx, domain.KindUser.ID(id))
		}
	case domain.KindBoard:
		if members, ok := doc["members"].([]any); ok {
			for _, m := range members {
				if userID, ok := m.(string); ok {
					s.cache.EvictBoards(ctx, domain.KindUser.ID(userID))
				}
			}
		}
		if id != "" {
			s.cache.EvictCardLists(ctx, domain.KindBoard.ID(id))
		}
	case domain.KindCardList:
		if boardID, ok := doc["board_id"].(string); ok {
			s.cache.EvictCardLists(ctx, domain.KindBoard.ID(boardID))
		}
		if id != "" {
			s.cache.EvictCards(ctx, domain.KindCardList.ID(id))
		}
	case domain.KindCard:
		if listID, ok := doc["list_id"].(string); ok {
			s.cache.EvictCards(ctx, domain.KindCardList.ID(listID))
		}
	}
}
