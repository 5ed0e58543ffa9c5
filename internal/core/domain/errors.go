package domain

import "errors"

// Catalog and registry errors.
var (
	ErrDuplicateKey     = errors.New("identifier already exists")
	ErrDuplicateEmail   = errors.New("email already registered")
	ErrBookNotFound     = errors.New("book not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrBookNotRemovable = errors.New("book is borrowed and cannot be removed")
	ErrInvalidBook      = errors.New("invalid book")
	ErrInvalidUser      = errors.New("invalid user")
)

// Lending errors.
var (
	ErrAlreadyBorrowed  = errors.New("book already borrowed")
	ErrNotBorrowed      = errors.New("book is not borrowed")
	ErrQuotaExceeded    = errors.New("loan quota exceeded")
	ErrQuotaAtCapacity  = errors.New("loan quota at capacity")
	ErrBorrowerMismatch = errors.New("user is not the borrower of this book")
	ErrDuplicateRequest = errors.New("request already processed")
)

var ErrHistoryUnavailable = errors.New("loan history unavailable")
