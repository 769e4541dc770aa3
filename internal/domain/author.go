package domain

// Author is a standalone entity.
type Author struct {
	// ID is assigned by the store on creation and is stable for the author's lifetime.
	ID uint64

	Name string
}
