// Package memory holds the in-process aggregates: the book catalog with its
// derived indices and the user registry.
package memory

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/isitech/bibliotheque/internal/core/domain"
	"github.com/isitech/bibliotheque/internal/core/ports"
)

// Catalog indexes books by id, by lower-cased author and by availability.
// A single RWMutex guards all three maps so a reader never sees one of them
// updated without the others.
type Catalog struct {
	mu        sync.RWMutex
	byID      map[string]*domain.Book
	byAuthor  map[string]map[string]*domain.Book
	available map[string]*domain.Book
}

var _ ports.Catalog = (*Catalog)(nil)

func NewCatalog() *Catalog {
	return &Catalog{
		byID:      make(map[string]*domain.Book),
		byAuthor:  make(map[string]map[string]*domain.Book),
		available: make(map[string]*domain.Book),
	}
}

// Add inserts a copy of book into every index.
func (c *Catalog) Add(book domain.Book) error {
	if strings.TrimSpace(book.ID) == "" || strings.TrimSpace(book.Title) == "" || strings.TrimSpace(book.Author) == "" {
		return fmt.Errorf("%w: id, title and author are required", domain.ErrInvalidBook)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byID[book.ID]; exists {
		return fmt.Errorf("%w: book %s", domain.ErrDuplicateKey, book.ID)
	}

	b := book
	c.byID[b.ID] = &b
	c.indexAuthor(&b)
	if b.IsAvailable() {
		c.available[b.ID] = &b
	}
	return nil
}

// Remove drops an available book from every index. Borrowed books are
// rejected before anything is touched.
func (c *Catalog) Remove(id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.byID[id]
	if !ok {
		return false, nil
	}
	if !b.IsAvailable() {
		return false, fmt.Errorf("%w: %s", domain.ErrBookNotRemovable, id)
	}

	delete(c.byID, id)
	c.unindexAuthor(b)
	delete(c.available, id)
	return true, nil
}

// UpdateDetails edits descriptive fields and moves the book to its new author bucket.
func (c *Catalog) UpdateDetails(id string, details domain.BookDetails) (domain.Book, error) {
	if strings.TrimSpace(details.Title) == "" || strings.TrimSpace(details.Author) == "" {
		return domain.Book{}, fmt.Errorf("%w: title and author are required", domain.ErrInvalidBook)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.byID[id]
	if !ok {
		return domain.Book{}, fmt.Errorf("%w: %s", domain.ErrBookNotFound, id)
	}

	c.unindexAuthor(b)
	b.ApplyDetails(details)
	c.indexAuthor(b)
	return *b, nil
}

func (c *Catalog) FindByID(id string) (domain.Book, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	b, ok := c.byID[id]
	if !ok {
		return domain.Book{}, false
	}
	return *b, true
}

// FindByAuthor matches the author name case-insensitively.
func (c *Catalog) FindByAuthor(author string) []domain.Book {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return sortedSnapshot(c.byAuthor[authorKey(author)], nil)
}

// SearchText returns books whose title or author contains query, ignoring
// case. A blank query matches nothing.
func (c *Catalog) SearchText(query string) []domain.Book {
	if strings.TrimSpace(query) == "" {
		return []domain.Book{}
	}
	q := strings.ToLower(query)

	c.mu.RLock()
	defer c.mu.RUnlock()

	return sortedSnapshot(c.byID, func(b *domain.Book) bool {
		return strings.Contains(strings.ToLower(b.Title), q) ||
			strings.Contains(strings.ToLower(b.Author), q)
	})
}

func (c *Catalog) All() []domain.Book {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return sortedSnapshot(c.byID, nil)
}

func (c *Catalog) Available() []domain.Book {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return sortedSnapshot(c.available, nil)
}

func (c *Catalog) Borrowed() []domain.Book {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return sortedSnapshot(c.byID, func(b *domain.Book) bool { return !b.IsAvailable() })
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

func (c *Catalog) AvailableLen() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.available)
}

// CheckOut lends the book to borrower and drops it from the availability set.
func (c *Catalog) CheckOut(id string, borrower *domain.User, on time.Time) (domain.Book, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.byID[id]
	if !ok {
		return domain.Book{}, fmt.Errorf("%w: %s", domain.ErrBookNotFound, id)
	}
	if err := b.Borrow(borrower, on); err != nil {
		return domain.Book{}, err
	}
	delete(c.available, id)
	return *b, nil
}

// CheckIn takes the book back from borrower and re-adds it to the availability set.
func (c *Catalog) CheckIn(id string, borrower *domain.User) (domain.Book, domain.Loan, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.byID[id]
	if !ok {
		return domain.Book{}, domain.Loan{}, fmt.Errorf("%w: %s", domain.ErrBookNotFound, id)
	}
	loan, err := b.Return(borrower)
	if err != nil {
		return domain.Book{}, domain.Loan{}, err
	}
	c.available[id] = b
	return *b, loan, nil
}

func (c *Catalog) indexAuthor(b *domain.Book) {
	key := authorKey(b.Author)
	bucket, ok := c.byAuthor[key]
	if !ok {
		bucket = make(map[string]*domain.Book)
		c.byAuthor[key] = bucket
	}
	bucket[b.ID] = b
}

func (c *Catalog) unindexAuthor(b *domain.Book) {
	key := authorKey(b.Author)
	bucket, ok := c.byAuthor[key]
	if !ok {
		return
	}
	delete(bucket, b.ID)
	if len(bucket) == 0 {
		delete(c.byAuthor, key)
	}
}

func authorKey(author string) string {
	return strings.ToLower(author)
}

// sortedSnapshot copies the books of m that pass keep (all when nil) and
// sorts them by title then author.
func sortedSnapshot(m map[string]*domain.Book, keep func(*domain.Book) bool) []domain.Book {
	out := make([]domain.Book, 0, len(m))
	for _, b := range m {
		if keep == nil || keep(b) {
			out = append(out, *b)
		}
	}
	slices.SortFunc(out, func(a, b domain.Book) int {
		if c := domain.CompareBooks(a, b); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}
