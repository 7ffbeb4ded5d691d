package domain

// Book is an entry in a user's saved-book collection.
// BookID is the external identifier (from the book search provider) and is the
// key for set membership. ID is assigned by the server when the book is first saved.
type Book struct {
	ID          string   `json:"id"`
	BookID      string   `json:"book_id"`
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	Description string   `json:"description,omitempty"`
	Image       string   `json:"image,omitempty"`
	Link        string   `json:"link,omitempty"`
}

// Clone returns a deep copy of b.
func (b Book) Clone() Book {
	if b.Authors != nil {
		b.Authors = append([]string(nil), b.Authors...)
	}
	return b
}
