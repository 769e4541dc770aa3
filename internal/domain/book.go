package domain

// Book is a dependent entity which always references exactly one Author.
type Book struct {
	// ID is assigned by the store on creation and is stable for the book's lifetime.
	ID uint64

	Title string

	// AuthorID references the Author who wrote the book.
	// The store guarantees that it resolves to an existing Author.
	AuthorID uint64
}
