package ports

import (
	"time"

	"github.com/isitech/bibliotheque/internal/core/domain"
)

// Catalog is the book aggregate: the id map plus its author and availability
// indices. Listings are sorted copies; borrow state only changes through
// CheckOut and CheckIn so the indices never drift from the books.
type Catalog interface {
	Add(book domain.Book) error
	// Remove reports false when the id is unknown.
	Remove(id string) (bool, error)
	UpdateDetails(id string, details domain.BookDetails) (domain.Book, error)

	FindByID(id string) (domain.Book, bool)
	FindByAuthor(author string) []domain.Book
	SearchText(query string) []domain.Book
	All() []domain.Book
	Available() []domain.Book
	Borrowed() []domain.Book
	Len() int
	AvailableLen() int

	CheckOut(id string, borrower *domain.User, on time.Time) (domain.Book, error)
	// CheckIn returns the book after the return and the loan that was closed.
	CheckIn(id string, borrower *domain.User) (domain.Book, domain.Loan, error)
}

// UserRegistry is the user aggregate with case-insensitive email uniqueness.
type UserRegistry interface {
	Add(user domain.User) error
	FindByID(id string) (domain.User, bool)
	FindByNameContains(fragment string) []domain.User
	All() []domain.User
	Len() int
	// Update applies fn to a working copy of the user and stores it only
	// when fn returns nil.
	Update(id string, fn func(u *domain.User) error) error
}
