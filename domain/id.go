package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Kind is the entity type tag encoded into every document id.
type Kind string

const (
	KindUser     Kind = "user"
	KindBoard    Kind = "board"
	KindCardList Kind = "cardlist"
	KindCard     Kind = "card"
)

// Prefix returns the id prefix for the kind, e.g. "board_".
func (k Kind) Prefix() string {
	return string(k) + "_"
}

// NewID generates a fresh document id of the form "{kind}_{uuid4}".
func (k Kind) NewID() string {
	return k.Prefix() + uuid.NewString()
}

// ID canonicalizes a caller-supplied id. Callers may pass either the full
// prefixed id or the bare UUID suffix; the stored form is always prefixed.
func (k Kind) ID(raw string) string {
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, k.Prefix()) {
		return raw
	}
	return k.Prefix() + raw
}

// KindOf reports the kind encoded in a canonical id.
func KindOf(id string) (Kind, bool) {
	i := strings.IndexByte(id, '_')
	if i <= 0 {
		return "", false
	}
	switch k := Kind(id[:i]); k {
	case KindUser, KindBoard, KindCardList, KindCard:
		return k, true
	}
	return "", false
}
