package domain

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2024, time.March, 1, 10, 30, 0, 0, time.UTC)

func newTestBook(id, title, author string) *Book {
	return NewBook(id, BookDetails{Title: title, Author: author})
}

func Test_Book_Borrow(t *testing.T) {
	t.Run("available book moves to borrowed and counts the loan", func(t *testing.T) {
		b := newTestBook("1", "Java Facile", "Auteur A")
		u := NewStudent("Alice", "alice@x.com", "S1", 2, "Info")

		require.NoError(t, b.Borrow(u, day0))

		assert.False(t, b.IsAvailable())
		borrower, ok := b.BorrowerID()
		assert.True(t, ok)
		assert.Equal(t, u.ID, borrower)
		assert.Equal(t, Today(day0), b.Loan.BorrowedOn)
		assert.Equal(t, 1, u.ActiveLoans)
	})

	t.Run("borrowed book is rejected", func(t *testing.T) {
		b := newTestBook("1", "Java Facile", "Auteur A")
		first := NewProfessor("Bob", "bob@x.com", "Maths")
		second := NewProfessor("Carol", "carol@x.com", "Maths")
		require.NoError(t, b.Borrow(first, day0))

		err := b.Borrow(second, day0)

		assert.ErrorIs(t, err, ErrAlreadyBorrowed)
		assert.Equal(t, 0, second.ActiveLoans)
		borrower, _ := b.BorrowerID()
		assert.Equal(t, first.ID, borrower)
	})

	t.Run("user at quota is rejected without side effects", func(t *testing.T) {
		u := NewStudent("Alice", "alice@x.com", "S1", 1, "Info")
		u.ActiveLoans = 3
		b := newTestBook("1", "Java Facile", "Auteur A")

		err := b.Borrow(u, day0)

		assert.ErrorIs(t, err, ErrQuotaExceeded)
		assert.True(t, b.IsAvailable())
		assert.Equal(t, 3, u.ActiveLoans)
	})
}

func Test_Book_Return(t *testing.T) {
	t.Run("round trip restores availability and loan count", func(t *testing.T) {
		b := newTestBook("1", "Java Facile", "Auteur A")
		u := NewProfessor("Bob", "bob@x.com", "Maths")
		require.NoError(t, b.Borrow(u, day0))

		loan, err := b.Return(u)

		require.NoError(t, err)
		assert.True(t, b.IsAvailable())
		assert.Nil(t, b.Loan)
		_, ok := b.BorrowerID()
		assert.False(t, ok)
		assert.Equal(t, 0, u.ActiveLoans)
		assert.Equal(t, u.ID, loan.BorrowerID)
		assert.Equal(t, 30, loan.LoanDays)
	})

	t.Run("available book cannot be returned", func(t *testing.T) {
		b := newTestBook("1", "Java Facile", "Auteur A")
		u := NewProfessor("Bob", "bob@x.com", "Maths")

		_, err := b.Return(u)

		assert.ErrorIs(t, err, ErrNotBorrowed)
	})

	t.Run("only the borrower can return", func(t *testing.T) {
		b := newTestBook("1", "Java Facile", "Auteur A")
		owner := NewProfessor("Bob", "bob@x.com", "Maths")
		other := NewProfessor("Carol", "carol@x.com", "Maths")
		require.NoError(t, b.Borrow(owner, day0))

		_, err := b.Return(other)

		assert.ErrorIs(t, err, ErrBorrowerMismatch)
		assert.False(t, b.IsAvailable())
		assert.Equal(t, 1, owner.ActiveLoans)
	})
}

func Test_Book_Overdue(t *testing.T) {
	b := newTestBook("1", "Java Facile", "Auteur A")
	u := NewStudent("Alice", "alice@x.com", "S1", 2, "Info")
	require.NoError(t, b.Borrow(u, day0))

	due, ok := b.DueDate()
	require.True(t, ok)
	assert.Equal(t, Today(day0).AddDate(0, 0, 15), due)

	assert.False(t, b.IsOverdue(day0.AddDate(0, 0, 15)))
	assert.Equal(t, 0, b.DaysOverdue(day0.AddDate(0, 0, 15)))
	assert.True(t, b.IsOverdue(day0.AddDate(0, 0, 16)))
	assert.Equal(t, 1, b.DaysOverdue(day0.AddDate(0, 0, 16)))
	assert.Equal(t, 5, b.DaysOverdue(day0.AddDate(0, 0, 20)))
	assert.Equal(t, 5, b.DaysOverdue(time.Date(2024, time.March, 21, 23, 59, 0, 0, time.UTC)))
}

func Test_Book_AvailableHasNoDueDate(t *testing.T) {
	b := newTestBook("1", "Java Facile", "Auteur A")

	_, ok := b.DueDate()

	assert.False(t, ok)
	assert.False(t, b.IsOverdue(day0))
	assert.Equal(t, 0, b.DaysOverdue(day0))
}

func Test_CompareBooks(t *testing.T) {
	books := []Book{
		*newTestBook("3", "maths pour tous", "Auteur C"),
		*newTestBook("2", "Maths pour Tous", "auteur b"),
		*newTestBook("1", "Java Facile", "Auteur A"),
	}

	slices.SortFunc(books, CompareBooks)

	ids := []string{books[0].ID, books[1].ID, books[2].ID}
	assert.Equal(t, []string{"1", "2", "3"}, ids)
}

func Test_Book_Equal(t *testing.T) {
	a := newTestBook("1", "Java Facile", "Auteur A")
	b := newTestBook("1", "Another Title", "Someone")
	require.NoError(t, b.Borrow(NewProfessor("Bob", "bob@x.com", "Maths"), day0))

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(newTestBook("2", "Java Facile", "Auteur A")))
	assert.False(t, a.Equal(nil))
}
