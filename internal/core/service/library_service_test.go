package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/isitech/bibliotheque/internal/core/domain"
	"github.com/isitech/bibliotheque/internal/core/ports"
	"github.com/isitech/bibliotheque/internal/infrastructure/memory"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubPublisher struct {
	events []domain.LoanEvent
}

func (p *stubPublisher) Publish(e domain.LoanEvent) {
	p.events = append(p.events, e)
}

type stubIdempotency struct {
	seen     map[string]bool
	claimErr error
	released []string
}

func newStubIdempotency() *stubIdempotency {
	return &stubIdempotency{seen: make(map[string]bool)}
}

func (s *stubIdempotency) Claim(_ context.Context, key string) (bool, error) {
	if s.claimErr != nil {
		return false, s.claimErr
	}
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	return true, nil
}

func (s *stubIdempotency) Release(_ context.Context, key string) error {
	delete(s.seen, key)
	s.released = append(s.released, key)
	return nil
}

type stubHistory struct {
	events []domain.LoanEvent
	err    error
}

func (h *stubHistory) InsertEvent(_ context.Context, e *domain.LoanEvent) error {
	h.events = append(h.events, *e)
	return nil
}

func (h *stubHistory) ListByBook(_ context.Context, bookID string, _ int64) ([]domain.LoanEvent, error) {
	if h.err != nil {
		return nil, h.err
	}
	var out []domain.LoanEvent
	for _, e := range h.events {
		if e.BookID == bookID {
			out = append(out, e)
		}
	}
	return out, nil
}

// clock is a settable time source.
type clock struct{ t time.Time }

func newClock() *clock {
	return &clock{t: time.Date(2024, time.March, 1, 14, 0, 0, 0, time.UTC)}
}

func (c *clock) now() time.Time   { return c.t }
func (c *clock) advance(days int) { c.t = c.t.AddDate(0, 0, days) }

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Helper: a service over fresh in-memory aggregates.
// ---------------------------------------------------------------------------

type fixture struct {
	svc       *LibraryService
	catalog   *memory.Catalog
	registry  *memory.Registry
	publisher *stubPublisher
	clock     *clock
}

func newFixture(opts ...Option) *fixture {
	f := &fixture{
		catalog:   memory.NewCatalog(),
		registry:  memory.NewRegistry(),
		publisher: &stubPublisher{},
		clock:     newClock(),
	}
	opts = append([]Option{WithEventPublisher(f.publisher), WithClock(f.clock.now)}, opts...)
	f.svc = NewLibraryService("Bibliothèque Centrale", f.catalog, f.registry, zerolog.Nop(), opts...)
	return f
}

func (f *fixture) addBooks(t *testing.T, ids ...string) {
	t.Helper()
	for _, id := range ids {
		_, err := f.svc.AddBook(context.Background(), ports.AddBookInput{ID: id, Title: "Livre " + id, Author: "Auteur " + id})
		mustNoErr(t, err)
	}
}

func (f *fixture) addStudent(t *testing.T, email string, level int) domain.User {
	t.Helper()
	u, err := f.svc.AddUser(context.Background(), ports.AddUserInput{
		Kind: domain.KindStudent, Name: "Étudiant " + email, Email: email, StudentNumber: "S-" + email, Level: level, Field: "Info",
	})
	mustNoErr(t, err)
	return u
}

func (f *fixture) borrow(bookID, userID string) (*ports.BorrowResult, error) {
	return f.svc.BorrowBook(context.Background(), ports.BorrowInput{BookID: bookID, UserID: userID})
}

// checkAvailability asserts the availability cache matches every book's state.
func (f *fixture) checkAvailability(t *testing.T) {
	t.Helper()
	available := make(map[string]bool)
	for _, b := range f.svc.ListAvailableBooks(context.Background()) {
		available[b.ID] = true
	}
	for _, b := range f.svc.ListAllBooks(context.Background()) {
		if b.IsAvailable() != available[b.ID] {
			t.Errorf("book %s: available=%v but in availability set=%v", b.ID, b.IsAvailable(), available[b.ID])
		}
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestLibraryService_ListAllBooks_SortedByTitle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.AddBook(ctx, ports.AddBookInput{ID: "2", Title: "Maths pour Tous", Author: "Auteur B"})
	mustNoErr(t, err)
	_, err = f.svc.AddBook(ctx, ports.AddBookInput{ID: "1", Title: "Java Facile", Author: "Auteur A"})
	mustNoErr(t, err)

	books := f.svc.ListAllBooks(ctx)

	if len(books) != 2 || books[0].Title != "Java Facile" || books[1].Title != "Maths pour Tous" {
		t.Fatalf("unexpected order: %+v", books)
	}
	if got, _ := f.svc.FindBookByID(ctx, "1"); got.Title != "Java Facile" {
		t.Errorf("FindBookByID returned %+v", got)
	}
	if f.svc.CatalogSize(ctx) != 2 {
		t.Errorf("expected catalog size 2, got %d", f.svc.CatalogSize(ctx))
	}
	f.checkAvailability(t)
}

func TestLibraryService_AddBook_Duplicate(t *testing.T) {
	f := newFixture()
	f.addBooks(t, "1")

	_, err := f.svc.AddBook(context.Background(), ports.AddBookInput{ID: "1", Title: "Autre", Author: "X"})

	if !errors.Is(err, domain.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestLibraryService_BorrowAndReturn_RoundTrip(t *testing.T) {
	f := newFixture()
	f.addBooks(t, "1", "2")
	u := f.addStudent(t, "alice@x.com", 2)
	ctx := context.Background()

	res, err := f.borrow("1", u.ID)
	mustNoErr(t, err)
	if res.Book.IsAvailable() || res.UserID != u.ID {
		t.Fatalf("unexpected borrow result: %+v", res)
	}
	if want := time.Date(2024, time.March, 16, 0, 0, 0, 0, time.UTC); !res.DueDate.Equal(want) {
		t.Errorf("due date: want %v, got %v", want, res.DueDate)
	}
	if got, _ := f.svc.FindUserByID(ctx, u.ID); got.ActiveLoans != 1 {
		t.Errorf("expected 1 active loan, got %d", got.ActiveLoans)
	}
	f.checkAvailability(t)

	ret, err := f.svc.ReturnBook(ctx, "1")
	mustNoErr(t, err)
	if ret.Overdue || ret.DaysOverdue != 0 || ret.UserID != u.ID {
		t.Errorf("unexpected return result: %+v", ret)
	}

	book, _ := f.svc.FindBookByID(ctx, "1")
	if !book.IsAvailable() {
		t.Errorf("book should be available after return")
	}
	if _, borrowed := book.BorrowerID(); borrowed {
		t.Errorf("borrower should be cleared")
	}
	if got, _ := f.svc.FindUserByID(ctx, u.ID); got.ActiveLoans != 0 {
		t.Errorf("expected loan count restored to 0, got %d", got.ActiveLoans)
	}
	f.checkAvailability(t)

	if len(f.publisher.events) != 2 || f.publisher.events[0].Kind != domain.LoanBorrowed || f.publisher.events[1].Kind != domain.LoanReturned {
		t.Errorf("unexpected events: %+v", f.publisher.events)
	}
}

func TestLibraryService_Borrow_NotFound(t *testing.T) {
	f := newFixture()
	f.addBooks(t, "1")
	u := f.addStudent(t, "alice@x.com", 1)

	if _, err := f.borrow("404", u.ID); !errors.Is(err, domain.ErrBookNotFound) {
		t.Errorf("expected ErrBookNotFound, got %v", err)
	}
	if _, err := f.borrow("1", "nobody"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
	f.checkAvailability(t)
}

func TestLibraryService_Borrow_AlreadyBorrowed(t *testing.T) {
	f := newFixture()
	f.addBooks(t, "1")
	alice := f.addStudent(t, "alice@x.com", 1)
	bob := f.addStudent(t, "bob@x.com", 1)
	_, err := f.borrow("1", alice.ID)
	mustNoErr(t, err)

	_, err = f.borrow("1", bob.ID)

	if !errors.Is(err, domain.ErrAlreadyBorrowed) {
		t.Fatalf("expected ErrAlreadyBorrowed, got %v", err)
	}
	if got, _ := f.svc.FindUserByID(context.Background(), bob.ID); got.ActiveLoans != 0 {
		t.Errorf("failed borrow must not count a loan, got %d", got.ActiveLoans)
	}
}

func TestLibraryService_Borrow_QuotaBoundary(t *testing.T) {
	f := newFixture()
	f.addBooks(t, "1", "2", "3", "4")
	u := f.addStudent(t, "alice@x.com", 2)
	ctx := context.Background()

	for _, id := range []string{"1", "2", "3"} {
		_, err := f.borrow(id, u.ID)
		mustNoErr(t, err)
	}

	_, err := f.borrow("4", u.ID)
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	got, _ := f.svc.FindUserByID(ctx, u.ID)
	if got.CanBorrow() || got.ActiveLoans != 3 {
		t.Errorf("expected user at quota, got %d loans", got.ActiveLoans)
	}
	if b, _ := f.svc.FindBookByID(ctx, "4"); !b.IsAvailable() {
		t.Errorf("book 4 must stay available")
	}
	f.checkAvailability(t)

	_, err = f.svc.ReturnBook(ctx, "2")
	mustNoErr(t, err)
	_, err = f.borrow("4", u.ID)
	mustNoErr(t, err)
	f.checkAvailability(t)
}

func TestLibraryService_Return_NotBorrowed(t *testing.T) {
	f := newFixture()
	f.addBooks(t, "1")

	if _, err := f.svc.ReturnBook(context.Background(), "1"); !errors.Is(err, domain.ErrNotBorrowed) {
		t.Errorf("expected ErrNotBorrowed, got %v", err)
	}
	if _, err := f.svc.ReturnBook(context.Background(), "404"); !errors.Is(err, domain.ErrBookNotFound) {
		t.Errorf("expected ErrBookNotFound, got %v", err)
	}
}

func TestLibraryService_Return_ReportsOverdue(t *testing.T) {
	f := newFixture()
	f.addBooks(t, "1")
	u := f.addStudent(t, "alice@x.com", 2)
	_, err := f.borrow("1", u.ID)
	mustNoErr(t, err)

	f.clock.advance(20)
	ret, err := f.svc.ReturnBook(context.Background(), "1")

	mustNoErr(t, err)
	if !ret.Overdue || ret.DaysOverdue != 5 {
		t.Errorf("expected 5 days overdue, got %+v", ret)
	}
	if last := f.publisher.events[len(f.publisher.events)-1]; last.DaysOverdue != 5 {
		t.Errorf("return event should carry lateness, got %+v", last)
	}
}

func TestLibraryService_ListOverdueBooks(t *testing.T) {
	f := newFixture()
	f.addBooks(t, "1", "2")
	student := f.addStudent(t, "alice@x.com", 2)
	prof, err := f.svc.AddUser(context.Background(), ports.AddUserInput{Kind: domain.KindProfessor, Name: "Prof", Email: "prof@x.com", Department: "Maths"})
	mustNoErr(t, err)
	_, err = f.borrow("1", student.ID)
	mustNoErr(t, err)
	_, err = f.borrow("2", prof.ID)
	mustNoErr(t, err)

	f.clock.advance(15)
	if got := f.svc.ListOverdueBooks(context.Background()); len(got) != 0 {
		t.Fatalf("nothing is overdue on the due date, got %+v", got)
	}

	f.clock.advance(1)
	got := f.svc.ListOverdueBooks(context.Background())
	if len(got) != 1 || got[0].Book.ID != "1" || got[0].DaysOverdue != 1 {
		t.Errorf("expected only the student's book overdue by 1 day, got %+v", got)
	}
}

func TestLibraryService_RemoveBook(t *testing.T) {
	f := newFixture()
	f.addBooks(t, "1", "2")
	u := f.addStudent(t, "alice@x.com", 2)
	ctx := context.Background()
	_, err := f.borrow("1", u.ID)
	mustNoErr(t, err)
	before := f.svc.ListAllBooks(ctx)

	if err := f.svc.RemoveBook(ctx, "1"); !errors.Is(err, domain.ErrBookNotRemovable) {
		t.Fatalf("expected ErrBookNotRemovable, got %v", err)
	}
	after := f.svc.ListAllBooks(ctx)
	if len(before) != len(after) || len(f.svc.FindBooksByAuthor(ctx, "auteur 1")) != 1 {
		t.Errorf("rejected removal must leave the catalog unchanged")
	}
	f.checkAvailability(t)

	mustNoErr(t, f.svc.RemoveBook(ctx, "2"))
	if err := f.svc.RemoveBook(ctx, "2"); !errors.Is(err, domain.ErrBookNotFound) {
		t.Errorf("expected ErrBookNotFound, got %v", err)
	}
	f.checkAvailability(t)
}

func TestLibraryService_AddUser(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.addStudent(t, "a@x.com", 2)

	cases := []struct {
		name  string
		input ports.AddUserInput
		want  error
	}{
		{"email collides ignoring case", ports.AddUserInput{Kind: domain.KindProfessor, Name: "B", Email: "A@X.com"}, domain.ErrDuplicateEmail},
		{"unknown kind", ports.AddUserInput{Kind: "librarian", Name: "B", Email: "b@x.com"}, domain.ErrInvalidUser},
		{"student level out of range", ports.AddUserInput{Kind: domain.KindStudent, Name: "B", Email: "b@x.com", Level: 6}, domain.ErrInvalidUser},
		{"missing email", ports.AddUserInput{Kind: domain.KindProfessor, Name: "B"}, domain.ErrInvalidUser},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.AddUser(ctx, tc.input); !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if f.svc.UserCount(ctx) != 1 {
		t.Errorf("expected 1 user, got %d", f.svc.UserCount(ctx))
	}
}

func TestLibraryService_FindUsersByName(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	for _, name := range []string{"Martin Dupont", "Claire Martin", "Paul Durand"} {
		_, err := f.svc.AddUser(ctx, ports.AddUserInput{Kind: domain.KindProfessor, Name: name, Email: name + "@x.com"})
		mustNoErr(t, err)
	}

	got := f.svc.FindUsersByName(ctx, "martin")

	if len(got) != 2 || got[0].Name != "Claire Martin" || got[1].Name != "Martin Dupont" {
		t.Errorf("unexpected result: %+v", got)
	}
	if len(f.svc.ListUsers(ctx)) != 3 {
		t.Errorf("expected 3 users")
	}
}

func TestLibraryService_Borrow_IdempotentReplay(t *testing.T) {
	idem := newStubIdempotency()
	f := newFixture(WithIdempotency(idem))
	f.addBooks(t, "1")
	u := f.addStudent(t, "alice@x.com", 2)
	ctx := context.Background()
	in := ports.BorrowInput{BookID: "1", UserID: u.ID, IdempotencyKey: "req-1"}

	first, err := f.svc.BorrowBook(ctx, in)
	mustNoErr(t, err)
	second, err := f.svc.BorrowBook(ctx, in)
	mustNoErr(t, err)

	if first.Replayed || !second.Replayed {
		t.Errorf("expected only the second call to be a replay")
	}
	if got, _ := f.svc.FindUserByID(ctx, u.ID); got.ActiveLoans != 1 {
		t.Errorf("replay must not borrow twice, got %d loans", got.ActiveLoans)
	}
	if len(f.publisher.events) != 1 {
		t.Errorf("expected a single borrow event, got %d", len(f.publisher.events))
	}
}

func TestLibraryService_Borrow_FailureReleasesIdempotencyKey(t *testing.T) {
	idem := newStubIdempotency()
	f := newFixture(WithIdempotency(idem))
	u := f.addStudent(t, "alice@x.com", 2)
	ctx := context.Background()
	in := ports.BorrowInput{BookID: "1", UserID: u.ID, IdempotencyKey: "req-1"}

	if _, err := f.svc.BorrowBook(ctx, in); !errors.Is(err, domain.ErrBookNotFound) {
		t.Fatalf("expected ErrBookNotFound, got %v", err)
	}
	if len(idem.released) != 1 {
		t.Fatalf("expected the key to be released")
	}

	f.addBooks(t, "1")
	res, err := f.svc.BorrowBook(ctx, in)
	mustNoErr(t, err)
	if res.Replayed {
		t.Errorf("retry after failure must not be a replay")
	}
}

func TestLibraryService_Borrow_IdempotencyStoreDown(t *testing.T) {
	idem := newStubIdempotency()
	idem.claimErr = errors.New("redis down")
	f := newFixture(WithIdempotency(idem))
	f.addBooks(t, "1")
	u := f.addStudent(t, "alice@x.com", 2)

	_, err := f.svc.BorrowBook(context.Background(), ports.BorrowInput{BookID: "1", UserID: u.ID, IdempotencyKey: "req-1"})

	mustNoErr(t, err)
}

func TestLibraryService_LoanHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("unavailable without a repository", func(t *testing.T) {
		f := newFixture()
		if _, err := f.svc.LoanHistory(ctx, "1", 10); !errors.Is(err, domain.ErrHistoryUnavailable) {
			t.Errorf("expected ErrHistoryUnavailable, got %v", err)
		}
	})

	t.Run("reads from the repository", func(t *testing.T) {
		repo := &stubHistory{events: []domain.LoanEvent{{Kind: domain.LoanBorrowed, BookID: "1"}, {Kind: domain.LoanBorrowed, BookID: "2"}}}
		f := newFixture(WithHistory(repo))
		got, err := f.svc.LoanHistory(ctx, "1", 10)
		mustNoErr(t, err)
		if len(got) != 1 {
			t.Errorf("expected 1 event, got %d", len(got))
		}
	})
}

func TestLibraryService_Stats(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.addBooks(t, "1", "2", "3")
	u := f.addStudent(t, "alice@x.com", 2)
	f.addStudent(t, "bob@x.com", 2)
	_, err := f.svc.AddUser(ctx, ports.AddUserInput{Kind: domain.KindProfessor, Name: "Prof", Email: "prof@x.com"})
	mustNoErr(t, err)
	_, err = f.borrow("1", u.ID)
	mustNoErr(t, err)

	st := f.svc.Stats(ctx)

	if st.LibraryName != "Bibliothèque Centrale" || st.TotalBooks != 3 || st.AvailableBooks != 2 || st.BorrowedBooks != 1 || st.TotalUsers != 3 {
		t.Errorf("unexpected stats: %+v", st)
	}
	if st.UsersByType["Étudiant L2"] != 2 || st.UsersByType["Professeur"] != 1 {
		t.Errorf("unexpected users by type: %+v", st.UsersByType)
	}
}
