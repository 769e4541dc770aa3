package api

import (
	"context"
	"fmt"

	"github.com/mozilla-ai/bookstore/internal/contracts"
	"github.com/mozilla-ai/bookstore/internal/domain"
	"github.com/mozilla-ai/bookstore/internal/fields"
	"github.com/mozilla-ai/bookstore/internal/negotiate"
	"github.com/mozilla-ai/bookstore/internal/token"
)

type Convertible[T any] interface {
	// ToAPIType can be used to convert a wrapped domain type to an API-safe type.
	// It should be responsible for any normalization required to ensure consistency
	// across the API boundary.
	ToAPIType() (T, error)
}

// serializer converts domain entities to their API representations.
// Identifiers are always rendered as opaque tokens.
type serializer struct {
	authorID fields.IDField
	bookID   fields.IDField
	author   *fields.Relation[domain.Author]
}

func newSerializer(codec token.Codec, authors contracts.Getter[domain.Author]) (*serializer, error) {
	s := &serializer{
		authorID: fields.NewIDField("id", codec),
		bookID:   fields.NewIDField("id", codec),
	}

	rel, err := fields.NewRelation("author", codec, authors, func(a domain.Author) any {
		return s.Author(a)
	})
	if err != nil {
		return nil, fmt.Errorf("book author relation: %w", err)
	}
	s.author = rel

	return s, nil
}

// Author returns the API representation of a.
func (s *serializer) Author(a domain.Author) Author {
	return Author{
		ID:   s.authorID.Encode(a.ID),
		Name: a.Name,
	}
}

// Authors returns the API representations of authors, preserving order.
func (s *serializer) Authors(authors []domain.Author) []Author {
	out := make([]Author, 0, len(authors))
	for _, a := range authors {
		out = append(out, s.Author(a))
	}
	return out
}

// Book returns the API representation of b, rendering its author for mode.
// In nested mode the author is loaded from the store.
func (s *serializer) Book(ctx context.Context, mode negotiate.Mode, b domain.Book) (Book, error) {
	author, err := s.author.Encode(ctx, mode, b.AuthorID)
	if err != nil {
		return Book{}, err
	}

	return Book{
		ID:     s.bookID.Encode(b.ID),
		Title:  b.Title,
		Author: author,
	}, nil
}

// BookWithAuthor returns the API representation of b using an author the caller has already loaded.
func (s *serializer) BookWithAuthor(mode negotiate.Mode, b domain.Book, a domain.Author) Book {
	return Book{
		ID:     s.bookID.Encode(b.ID),
		Title:  b.Title,
		Author: s.author.EncodeLoaded(mode, b.AuthorID, a),
	}
}
