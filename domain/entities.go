package domain

// User owns and participates in boards. BoardMember holds the user-side
// half of the membership relation as canonical board ids.
type User struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	Email       string   `json:"email,omitempty"`
	Password    string   `json:"password,omitempty"`
	BoardMember []string `json:"board_member"`
}

// Board groups card lists and carries the board-side half of membership.
// ParentID is the owning user; the owner is always present in Members.
type Board struct {
	ID          string   `json:"id"`
	ParentID    string   `json:"parent_id"`
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Members     []string `json:"members"`
	CardLists   []string `json:"cardlists"`
}

// CardList is an ordered column of cards on a board.
type CardList struct {
	ID      string   `json:"id"`
	BoardID string   `json:"board_id"`
	Name    string   `json:"name,omitempty"`
	Cards   []string `json:"cards"`
}

// Card is a single item in a card list. Position is the 0-based ordering
// key, unique and contiguous within the owning list.
type Card struct {
	ID          string   `json:"id"`
	ListID      string   `json:"list_id"`
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Position    int      `json:"position"`
}
