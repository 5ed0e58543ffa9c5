package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/isitech/bibliotheque/internal/core/domain"
	"github.com/isitech/bibliotheque/internal/core/ports"
)

// LibraryService coordinates the catalog and the user registry. Writers are
// serialized by mu; the lock order is service -> registry -> catalog.
type LibraryService struct {
	mu      sync.Mutex
	name    string
	catalog ports.Catalog
	users   ports.UserRegistry
	events  ports.LoanEventPublisher
	history ports.LoanEventRepository
	idem    ports.IdempotencyStore
	logger  zerolog.Logger
	now     func() time.Time
}

var _ ports.LibraryService = (*LibraryService)(nil)

// Option customises a LibraryService.
type Option func(*LibraryService)

// WithEventPublisher sends loan events to p instead of dropping them.
func WithEventPublisher(p ports.LoanEventPublisher) Option {
	return func(s *LibraryService) { s.events = p }
}

// WithHistory enables LoanHistory lookups.
func WithHistory(repo ports.LoanEventRepository) Option {
	return func(s *LibraryService) { s.history = repo }
}

// WithIdempotency enables Idempotency-Key handling on borrow requests.
func WithIdempotency(store ports.IdempotencyStore) Option {
	return func(s *LibraryService) { s.idem = store }
}

// WithClock overrides the time source used for loan dates.
func WithClock(now func() time.Time) Option {
	return func(s *LibraryService) { s.now = now }
}

func NewLibraryService(name string, catalog ports.Catalog, users ports.UserRegistry, logger zerolog.Logger, opts ...Option) *LibraryService {
	s := &LibraryService{
		name:    name,
		catalog: catalog,
		users:   users,
		events:  nopPublisher{},
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// --- Catalog ---

func (s *LibraryService) AddBook(_ context.Context, input ports.AddBookInput) (domain.Book, error) {
	book := domain.NewBook(strings.TrimSpace(input.ID), domain.BookDetails{
		Title:       input.Title,
		Author:      input.Author,
		Pages:       input.Pages,
		Publisher:   input.Publisher,
		PublishedOn: input.PublishedOn,
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.catalog.Add(*book); err != nil {
		return domain.Book{}, err
	}
	s.logger.Info().Str("book_id", book.ID).Str("title", book.Title).Msg("book added")
	return *book, nil
}

// RemoveBook deletes an available book; borrowed books stay untouched.
func (s *LibraryService) RemoveBook(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.catalog.Remove(id)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: %s", domain.ErrBookNotFound, id)
	}
	s.logger.Info().Str("book_id", id).Msg("book removed")
	return nil
}

func (s *LibraryService) UpdateBook(_ context.Context, id string, details domain.BookDetails) (domain.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, err := s.catalog.UpdateDetails(id, details)
	if err != nil {
		return domain.Book{}, err
	}
	s.logger.Info().Str("book_id", id).Msg("book updated")
	return book, nil
}

func (s *LibraryService) FindBookByID(_ context.Context, id string) (domain.Book, error) {
	book, ok := s.catalog.FindByID(id)
	if !ok {
		return domain.Book{}, fmt.Errorf("%w: %s", domain.ErrBookNotFound, id)
	}
	return book, nil
}

func (s *LibraryService) FindBooksByAuthor(_ context.Context, author string) []domain.Book {
	return s.catalog.FindByAuthor(author)
}

func (s *LibraryService) SearchBooks(_ context.Context, query string) []domain.Book {
	return s.catalog.SearchText(query)
}

func (s *LibraryService) ListAllBooks(_ context.Context) []domain.Book {
	return s.catalog.All()
}

func (s *LibraryService) ListAvailableBooks(_ context.Context) []domain.Book {
	return s.catalog.Available()
}

func (s *LibraryService) ListBorrowedBooks(_ context.Context) []domain.Book {
	return s.catalog.Borrowed()
}

// ListOverdueBooks returns borrowed books past their due date, in catalog order.
func (s *LibraryService) ListOverdueBooks(_ context.Context) []ports.OverdueLoan {
	now := s.now()
	out := make([]ports.OverdueLoan, 0)
	for _, b := range s.catalog.Borrowed() {
		if !b.IsOverdue(now) {
			continue
		}
		due, _ := b.DueDate()
		out = append(out, ports.OverdueLoan{Book: b, DueDate: due, DaysOverdue: b.DaysOverdue(now)})
	}
	return out
}

func (s *LibraryService) CatalogSize(_ context.Context) int {
	return s.catalog.Len()
}

// --- Users ---

func (s *LibraryService) AddUser(_ context.Context, input ports.AddUserInput) (domain.User, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Email) == "" {
		return domain.User{}, fmt.Errorf("%w: name and email are required", domain.ErrInvalidUser)
	}

	var user *domain.User
	switch input.Kind {
	case domain.KindStudent:
		if input.Level < 1 || input.Level > 5 {
			return domain.User{}, fmt.Errorf("%w: level must be between 1 and 5", domain.ErrInvalidUser)
		}
		user = domain.NewStudent(input.Name, input.Email, input.StudentNumber, input.Level, input.Field)
	case domain.KindProfessor:
		user = domain.NewProfessor(input.Name, input.Email, input.Department)
	default:
		return domain.User{}, fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidUser, input.Kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.users.Add(*user); err != nil {
		return domain.User{}, err
	}
	s.logger.Info().Str("user_id", user.ID).Str("type", user.TypeLabel()).Msg("user added")
	return *user, nil
}

func (s *LibraryService) FindUserByID(_ context.Context, id string) (domain.User, error) {
	user, ok := s.users.FindByID(id)
	if !ok {
		return domain.User{}, fmt.Errorf("%w: %s", domain.ErrUserNotFound, id)
	}
	return user, nil
}

func (s *LibraryService) FindUsersByName(_ context.Context, fragment string) []domain.User {
	return s.users.FindByNameContains(fragment)
}

func (s *LibraryService) ListUsers(_ context.Context) []domain.User {
	return s.users.All()
}

func (s *LibraryService) UserCount(_ context.Context) int {
	return s.users.Len()
}

// --- Lending ---

// BorrowBook lends a book to a user. When an idempotency key is supplied and
// already seen, the current loan is returned if it still matches the request.
func (s *LibraryService) BorrowBook(ctx context.Context, input ports.BorrowInput) (result *ports.BorrowResult, err error) {
	if input.IdempotencyKey != "" && s.idem != nil {
		key := "borrow:" + input.IdempotencyKey
		claimed, claimErr := s.idem.Claim(ctx, key)
		switch {
		case claimErr != nil:
			s.logger.Warn().Err(claimErr).Str("idempotency_key", input.IdempotencyKey).Msg("idempotency check failed, processing anyway")
		case !claimed:
			return s.replayBorrow(input)
		default:
			defer func() {
				if err == nil {
					return
				}
				if relErr := s.idem.Release(ctx, key); relErr != nil {
					s.logger.Warn().Err(relErr).Str("idempotency_key", input.IdempotencyKey).Msg("failed to release idempotency key")
				}
			}()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.catalog.FindByID(input.BookID); !ok {
		return nil, fmt.Errorf("borrow: %w: %s", domain.ErrBookNotFound, input.BookID)
	}
	if _, ok := s.users.FindByID(input.UserID); !ok {
		return nil, fmt.Errorf("borrow: %w: %s", domain.ErrUserNotFound, input.UserID)
	}

	var (
		book     domain.Book
		borrower domain.User
	)
	err = s.users.Update(input.UserID, func(u *domain.User) error {
		b, err := s.catalog.CheckOut(input.BookID, u, s.now())
		if err != nil {
			return err
		}
		book, borrower = b, *u
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("borrow: %w", err)
	}

	due, _ := book.DueDate()
	s.events.Publish(domain.LoanEvent{
		Kind:       domain.LoanBorrowed,
		BookID:     book.ID,
		BookTitle:  book.Title,
		UserID:     borrower.ID,
		UserType:   borrower.TypeLabel(),
		OccurredAt: s.now().UTC(),
		DueDate:    due,
	})

	s.logger.Info().
		Str("book_id", book.ID).
		Str("user_id", borrower.ID).
		Int("active_loans", borrower.ActiveLoans).
		Time("due_date", due).
		Msg("book borrowed")

	return &ports.BorrowResult{Book: book, UserID: borrower.ID, UserKind: borrower.Kind(), DueDate: due}, nil
}

func (s *LibraryService) replayBorrow(input ports.BorrowInput) (*ports.BorrowResult, error) {
	book, ok := s.catalog.FindByID(input.BookID)
	if !ok {
		return nil, fmt.Errorf("borrow: %w", domain.ErrDuplicateRequest)
	}
	borrower, borrowed := book.BorrowerID()
	if !borrowed || borrower != input.UserID {
		return nil, fmt.Errorf("borrow: %w", domain.ErrDuplicateRequest)
	}

	user, ok := s.users.FindByID(borrower)
	if !ok {
		return nil, fmt.Errorf("borrow: %w: %s", domain.ErrUserNotFound, borrower)
	}

	s.logger.Info().Str("idempotency_key", input.IdempotencyKey).Str("book_id", book.ID).Msg("idempotent replay")
	due, _ := book.DueDate()
	return &ports.BorrowResult{Book: book, UserID: borrower, UserKind: user.Kind(), DueDate: due, Replayed: true}, nil
}

// ReturnBook takes a book back from its borrower. Lateness is reported in
// the result and never blocks the return.
func (s *LibraryService) ReturnBook(_ context.Context, bookID string) (*ports.ReturnResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.catalog.FindByID(bookID)
	if !ok {
		return nil, fmt.Errorf("return: %w: %s", domain.ErrBookNotFound, bookID)
	}
	borrowerID, borrowed := current.BorrowerID()
	if !borrowed {
		return nil, fmt.Errorf("return: %w: %s", domain.ErrNotBorrowed, bookID)
	}

	var (
		book     domain.Book
		loan     domain.Loan
		borrower domain.User
	)
	err := s.users.Update(borrowerID, func(u *domain.User) error {
		b, l, err := s.catalog.CheckIn(bookID, u)
		if err != nil {
			return err
		}
		book, loan, borrower = b, l, *u
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("return: %w", err)
	}

	now := s.now()
	late := loan.DaysOverdue(now)
	result := &ports.ReturnResult{
		Book:        book,
		UserID:      borrower.ID,
		UserName:    borrower.Name,
		BorrowedOn:  loan.BorrowedOn,
		DueDate:     loan.DueDate(),
		Overdue:     late > 0,
		DaysOverdue: late,
	}

	s.events.Publish(domain.LoanEvent{
		Kind:        domain.LoanReturned,
		BookID:      book.ID,
		BookTitle:   book.Title,
		UserID:      borrower.ID,
		UserType:    borrower.TypeLabel(),
		OccurredAt:  now.UTC(),
		DueDate:     result.DueDate,
		DaysOverdue: late,
	})

	evt := s.logger.Info()
	if result.Overdue {
		evt = s.logger.Warn().Int("days_overdue", late)
	}
	evt.Str("book_id", book.ID).Str("user_id", borrower.ID).Msg("book returned")

	return result, nil
}

// LoanHistory lists the audit trail of one book, oldest first.
func (s *LibraryService) LoanHistory(ctx context.Context, bookID string, limit int64) ([]domain.LoanEvent, error) {
	if s.history == nil {
		return nil, domain.ErrHistoryUnavailable
	}
	events, err := s.history.ListByBook(ctx, bookID, limit)
	if err != nil {
		return nil, fmt.Errorf("loan history: %w", err)
	}
	return events, nil
}

// --- Statistics ---

func (s *LibraryService) Stats(_ context.Context) domain.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := s.catalog.Len()
	available := s.catalog.AvailableLen()
	users := s.users.All()

	byType := make(map[string]int)
	for _, u := range users {
		byType[u.TypeLabel()]++
	}

	return domain.Stats{
		LibraryName:    s.name,
		TotalBooks:     total,
		AvailableBooks: available,
		BorrowedBooks:  total - available,
		TotalUsers:     len(users),
		UsersByType:    byType,
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(domain.LoanEvent) {}
