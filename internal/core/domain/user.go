package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// UserKind tags the loan policy a user carries.
type UserKind string

const (
	KindStudent   UserKind = "student"
	KindProfessor UserKind = "professor"
)

const (
	studentLoanDays   = 15
	professorLoanDays = 30
	professorMaxLoans = 10
)

// LoanPolicy is the fixed capability set of a user variant. The set of
// implementations is closed: Student and Professor.
type LoanPolicy interface {
	Kind() UserKind
	MaxLoans() int
	LoanDurationDays() int
	TypeLabel() string
	sealed()
}

// Student borrows for 15 days; master's levels (4-5) get a larger quota.
type Student struct {
	Number string `json:"student_number"`
	Level  int    `json:"level"` // 1=L1, 2=L2, 3=L3, 4=M1, 5=M2
	Field  string `json:"field"`
}

func (Student) Kind() UserKind { return KindStudent }

func (s Student) MaxLoans() int {
	if s.Level <= 3 {
		return 3
	}
	return 5
}

func (Student) LoanDurationDays() int { return studentLoanDays }

func (s Student) TypeLabel() string { return "Étudiant " + s.LevelLabel() }

// LevelLabel converts the numeric level to its academic label.
func (s Student) LevelLabel() string {
	switch s.Level {
	case 1:
		return "L1"
	case 2:
		return "L2"
	case 3:
		return "L3"
	case 4:
		return "M1"
	case 5:
		return "M2"
	default:
		return "N/A"
	}
}

func (Student) sealed() {}

// Professor borrows up to 10 books for 30 days.
type Professor struct {
	Department    string `json:"department"`
	SpecialAccess bool   `json:"special_access"`
}

func (Professor) Kind() UserKind        { return KindProfessor }
func (Professor) MaxLoans() int         { return professorMaxLoans }
func (Professor) LoanDurationDays() int { return professorLoanDays }
func (Professor) TypeLabel() string     { return "Professeur" }
func (Professor) sealed()               {}

// User is a registered borrower. The id is generated and distinct from the
// email; ActiveLoans is only changed through IncrementLoans and DecrementLoans.
type User struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	ActiveLoans int        `json:"active_loans"`
	Policy      LoanPolicy `json:"-"`
}

// NewStudent builds a student user with a freshly generated id.
func NewStudent(name, email, number string, level int, field string) *User {
	return &User{
		ID:     newUserID(),
		Name:   name,
		Email:  email,
		Policy: Student{Number: number, Level: level, Field: field},
	}
}

// NewProfessor builds a professor user with special-resources access enabled.
func NewProfessor(name, email, department string) *User {
	return &User{
		ID:     newUserID(),
		Name:   name,
		Email:  email,
		Policy: Professor{Department: department, SpecialAccess: true},
	}
}

func newUserID() string {
	return uuid.NewString()[:8]
}

func (u *User) Kind() UserKind        { return u.Policy.Kind() }
func (u *User) MaxLoans() int         { return u.Policy.MaxLoans() }
func (u *User) LoanDurationDays() int { return u.Policy.LoanDurationDays() }
func (u *User) TypeLabel() string     { return u.Policy.TypeLabel() }

// CanBorrow reports whether the user may take one more loan.
func (u *User) CanBorrow() bool {
	return u.ActiveLoans < u.MaxLoans()
}

// IncrementLoans records a new loan.
func (u *User) IncrementLoans() error {
	if u.ActiveLoans >= u.MaxLoans() {
		return fmt.Errorf("%w: %s holds %d/%d loans", ErrQuotaAtCapacity, u.ID, u.ActiveLoans, u.MaxLoans())
	}
	u.ActiveLoans++
	return nil
}

// DecrementLoans records a returned loan. It never goes below zero.
func (u *User) DecrementLoans() {
	if u.ActiveLoans > 0 {
		u.ActiveLoans--
	}
}

// Student returns the student profile when the user is a student.
func (u *User) Student() (Student, bool) {
	s, ok := u.Policy.(Student)
	return s, ok
}

// Professor returns the professor profile when the user is a professor.
func (u *User) Professor() (Professor, bool) {
	p, ok := u.Policy.(Professor)
	return p, ok
}

func (u *User) String() string {
	return fmt.Sprintf("%s: %s (%s) - %d/%d loans", u.TypeLabel(), u.Name, u.Email, u.ActiveLoans, u.MaxLoans())
}
