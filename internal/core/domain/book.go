package domain

import (
	"fmt"
	"strings"
	"time"
)

// Loan is the borrowed state of a book. A Loan is never mutated once
// created; returning a book drops it.
type Loan struct {
	BorrowerID string    `json:"borrower_id"`
	BorrowedOn time.Time `json:"borrowed_on"`
	LoanDays   int       `json:"loan_days"`
}

// DueDate is the borrow date plus the borrower's loan duration.
func (l Loan) DueDate() time.Time {
	return l.BorrowedOn.AddDate(0, 0, l.LoanDays)
}

// DaysOverdue returns how many whole days past the due date now is, or 0.
func (l Loan) DaysOverdue(now time.Time) int {
	late := int(Today(now).Sub(l.DueDate()).Hours() / 24)
	if late < 0 {
		return 0
	}
	return late
}

// BookDetails are the descriptive, mutable attributes of a book.
type BookDetails struct {
	Title       string
	Author      string
	Pages       int
	Publisher   string
	PublishedOn time.Time
}

// Book is a catalog entry. ID is the catalog key and never changes; the
// borrow state moves Available -> Borrowed -> Available through Borrow and
// Return only.
type Book struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Pages       int       `json:"pages"`
	Publisher   string    `json:"publisher"`
	PublishedOn time.Time `json:"published_on"`
	Loan        *Loan     `json:"loan,omitempty"`
}

// NewBook builds an available book.
func NewBook(id string, d BookDetails) *Book {
	b := &Book{ID: id}
	b.ApplyDetails(d)
	return b
}

// IsAvailable reports whether nobody holds the book.
func (b *Book) IsAvailable() bool {
	return b.Loan == nil
}

// BorrowerID returns the current borrower, if any.
func (b *Book) BorrowerID() (string, bool) {
	if b.Loan == nil {
		return "", false
	}
	return b.Loan.BorrowerID, true
}

// Borrow lends the book to u on the given day and counts the loan against
// u's quota. Neither the book nor the user changes on failure.
func (b *Book) Borrow(u *User, on time.Time) error {
	if !b.IsAvailable() {
		return fmt.Errorf("%w: %s", ErrAlreadyBorrowed, b.ID)
	}
	if !u.CanBorrow() {
		return fmt.Errorf("%w for %s", ErrQuotaExceeded, u.Name)
	}
	if err := u.IncrementLoans(); err != nil {
		return err
	}

	b.Loan = &Loan{
		BorrowerID: u.ID,
		BorrowedOn: Today(on),
		LoanDays:   u.LoanDurationDays(),
	}
	return nil
}

// Return gives the book back on behalf of borrower and returns the closed loan.
func (b *Book) Return(borrower *User) (Loan, error) {
	if b.IsAvailable() {
		return Loan{}, fmt.Errorf("%w: %s", ErrNotBorrowed, b.ID)
	}
	if borrower.ID != b.Loan.BorrowerID {
		return Loan{}, fmt.Errorf("%w: %s", ErrBorrowerMismatch, borrower.ID)
	}

	closed := *b.Loan
	borrower.DecrementLoans()
	b.Loan = nil
	return closed, nil
}

// DueDate returns the return date of the current loan.
func (b *Book) DueDate() (time.Time, bool) {
	if b.Loan == nil {
		return time.Time{}, false
	}
	return b.Loan.DueDate(), true
}

// IsOverdue reports whether the book is borrowed and now is past its due date.
func (b *Book) IsOverdue(now time.Time) bool {
	due, ok := b.DueDate()
	return ok && Today(now).After(due)
}

// DaysOverdue is 0 unless the book is overdue.
func (b *Book) DaysOverdue(now time.Time) int {
	if b.Loan == nil {
		return 0
	}
	return b.Loan.DaysOverdue(now)
}

// Details returns the descriptive attributes.
func (b *Book) Details() BookDetails {
	return BookDetails{
		Title:       b.Title,
		Author:      b.Author,
		Pages:       b.Pages,
		Publisher:   b.Publisher,
		PublishedOn: b.PublishedOn,
	}
}

// ApplyDetails overwrites the descriptive attributes; the id and borrow state stay.
func (b *Book) ApplyDetails(d BookDetails) {
	b.Title = d.Title
	b.Author = d.Author
	b.Pages = d.Pages
	b.Publisher = d.Publisher
	b.PublishedOn = d.PublishedOn
}

// Equal compares identity only.
func (b *Book) Equal(other *Book) bool {
	return other != nil && b.ID == other.ID
}

func (b *Book) String() string {
	status := "available"
	if b.Loan != nil {
		status = "borrowed by " + b.Loan.BorrowerID
	}
	return fmt.Sprintf("'%s' by %s (ISBN: %s) - %s", b.Title, b.Author, b.ID, status)
}

// CompareBooks orders by title then author, both case-insensitive.
func CompareBooks(a, b Book) int {
	if c := strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)); c != 0 {
		return c
	}
	return strings.Compare(strings.ToLower(a.Author), strings.ToLower(b.Author))
}

// Today truncates t to its calendar date at UTC midnight so that day
// differences are exact multiples of 24h.
func Today(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
