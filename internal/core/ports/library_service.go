package ports

import (
	"context"
	"time"

	"github.com/isitech/bibliotheque/internal/core/domain"
)

// AddBookInput carries the attributes of a new catalog entry.
type AddBookInput struct {
	ID          string
	Title       string
	Author      string
	Pages       int
	Publisher   string
	PublishedOn time.Time
}

// AddUserInput carries a new user. Kind selects which profile fields apply.
type AddUserInput struct {
	Kind  domain.UserKind
	Name  string
	Email string

	// student
	StudentNumber string
	Level         int
	Field         string

	// professor
	Department string
}

// BorrowInput identifies a loan request.
type BorrowInput struct {
	BookID         string
	UserID         string
	IdempotencyKey string
}

// BorrowResult is returned after a successful borrow.
type BorrowResult struct {
	Book     domain.Book
	UserID   string
	UserKind domain.UserKind
	DueDate  time.Time
	// Replayed is true when the Idempotency-Key matched an earlier borrow.
	Replayed bool
}

// ReturnResult reports a completed return. Overdue is informational only.
type ReturnResult struct {
	Book        domain.Book
	UserID      string
	UserName    string
	BorrowedOn  time.Time
	DueDate     time.Time
	Overdue     bool
	DaysOverdue int
}

// OverdueLoan is a borrowed book past its due date.
type OverdueLoan struct {
	Book        domain.Book
	DueDate     time.Time
	DaysOverdue int
}

// LibraryService is the single entry point for catalog, user and lending use cases.
type LibraryService interface {
	AddBook(ctx context.Context, input AddBookInput) (domain.Book, error)
	RemoveBook(ctx context.Context, id string) error
	UpdateBook(ctx context.Context, id string, details domain.BookDetails) (domain.Book, error)
	FindBookByID(ctx context.Context, id string) (domain.Book, error)
	FindBooksByAuthor(ctx context.Context, author string) []domain.Book
	SearchBooks(ctx context.Context, query string) []domain.Book
	ListAllBooks(ctx context.Context) []domain.Book
	ListAvailableBooks(ctx context.Context) []domain.Book
	ListBorrowedBooks(ctx context.Context) []domain.Book
	ListOverdueBooks(ctx context.Context) []OverdueLoan
	CatalogSize(ctx context.Context) int

	AddUser(ctx context.Context, input AddUserInput) (domain.User, error)
	FindUserByID(ctx context.Context, id string) (domain.User, error)
	FindUsersByName(ctx context.Context, fragment string) []domain.User
	ListUsers(ctx context.Context) []domain.User
	UserCount(ctx context.Context) int

	BorrowBook(ctx context.Context, input BorrowInput) (*BorrowResult, error)
	ReturnBook(ctx context.Context, bookID string) (*ReturnResult, error)
	LoanHistory(ctx context.Context, bookID string, limit int64) ([]domain.LoanEvent, error)

	Stats(ctx context.Context) domain.Stats
}
