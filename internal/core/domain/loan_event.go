package domain

import "time"

// LoanEventKind identifies a lending transition.
type LoanEventKind string

const (
	LoanBorrowed LoanEventKind = "borrowed"
	LoanReturned LoanEventKind = "returned"
)

// LoanEvent is the audit record of a borrow or a return.
type LoanEvent struct {
	Kind        LoanEventKind `json:"kind" bson:"kind"`
	BookID      string        `json:"book_id" bson:"book_id"`
	BookTitle   string        `json:"book_title" bson:"book_title"`
	UserID      string        `json:"user_id" bson:"user_id"`
	UserType    string        `json:"user_type" bson:"user_type"`
	OccurredAt  time.Time     `json:"occurred_at" bson:"occurred_at"`
	DueDate     time.Time     `json:"due_date" bson:"due_date"`
	DaysOverdue int           `json:"days_overdue,omitempty" bson:"days_overdue,omitempty"`
}

// Stats summarises the library contents.
type Stats struct {
	LibraryName    string         `json:"library_name"`
	TotalBooks     int            `json:"total_books"`
	AvailableBooks int            `json:"available_books"`
	BorrowedBooks  int            `json:"borrowed_books"`
	TotalUsers     int            `json:"total_users"`
	UsersByType    map[string]int `json:"users_by_type"`
}
