package domain

// mutableFields is the closed set of field names the single-field patch
// operation may touch, per kind. Relationship lists and parent
// back-references are excluded: those are maintained by the membership and
// containment managers, never patched directly.
var mutableFields = map[Kind]map[string]bool{
	KindUser:     {"name": true, "email": true, "password": true},
	KindBoard:    {"name": true, "description": true},
	KindCardList: {"name": true},
	KindCard:     {"name": true, "description": true, "tags": true},
}

// knownFields is every field a full-document merge update may overlay.
// The id is never merged: it is fixed at create time.
var knownFields = map[Kind]map[string]bool{
	KindUser:     {"name": true, "email": true, "password": true, "board_member": true},
	KindBoard:    {"name": true, "description": true, "parent_id": true, "members": true, "cardlists": true},
	KindCardList: {"name": true, "board_id": true, "cards": true},
	KindCard:     {"name": true, "description": true, "tags": true, "list_id": true, "position": true},
}

// IsMutableField reports whether patchField may write the named field.
func (k Kind) IsMutableField(name string) bool {
	return mutableFields[k][name]
}

// IsKnownField reports whether the named field belongs to the kind's
// document schema and may be overlaid by a merge update.
func (k Kind) IsKnownField(name string) bool {
	return knownFields[k][name]
}
