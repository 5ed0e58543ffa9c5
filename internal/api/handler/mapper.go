package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/isitech/bibliotheque/internal/core/domain"
	"github.com/isitech/bibliotheque/internal/core/ports"
)

const dateLayout = "2006-01-02"

// --- Request → Service input ---

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("published_on must be %s", dateLayout))
	}
	return t, nil
}

func toAddBookInput(req bookRequest) (ports.AddBookInput, error) {
	published, err := parseDate(req.PublishedOn)
	if err != nil {
		return ports.AddBookInput{}, err
	}
	return ports.AddBookInput{
		ID:          req.ID,
		Title:       req.Title,
		Author:      req.Author,
		Pages:       req.Pages,
		Publisher:   req.Publisher,
		PublishedOn: published,
	}, nil
}

func toBookDetails(req updateBookRequest) (domain.BookDetails, error) {
	published, err := parseDate(req.PublishedOn)
	if err != nil {
		return domain.BookDetails{}, err
	}
	return domain.BookDetails{
		Title:       req.Title,
		Author:      req.Author,
		Pages:       req.Pages,
		Publisher:   req.Publisher,
		PublishedOn: published,
	}, nil
}

func toAddUserInput(req userRequest) ports.AddUserInput {
	return ports.AddUserInput{
		Kind:          domain.UserKind(req.Kind),
		Name:          req.Name,
		Email:         req.Email,
		StudentNumber: req.StudentNumber,
		Level:         req.Level,
		Field:         req.Field,
		Department:    req.Department,
	}
}

// --- Domain → Response ---

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func toBookResponse(b domain.Book) bookResponse {
	resp := bookResponse{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		Pages:       b.Pages,
		Publisher:   b.Publisher,
		PublishedOn: formatDate(b.PublishedOn),
		Available:   b.IsAvailable(),
	}
	if b.Loan != nil {
		resp.BorrowerID = b.Loan.BorrowerID
		resp.BorrowedOn = formatDate(b.Loan.BorrowedOn)
		resp.DueDate = formatDate(b.Loan.DueDate())
	}
	return resp
}

func toBookList(books []domain.Book) listResponse[bookResponse] {
	items := make([]bookResponse, 0, len(books))
	for _, b := range books {
		items = append(items, toBookResponse(b))
	}
	return listResponse[bookResponse]{Items: items, Count: len(items)}
}

func toUserResponse(u domain.User) userResponse {
	resp := userResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Kind:        string(u.Kind()),
		Type:        u.TypeLabel(),
		ActiveLoans: u.ActiveLoans,
		MaxLoans:    u.MaxLoans(),
		LoanDays:    u.LoanDurationDays(),
	}
	if s, ok := u.Student(); ok {
		resp.StudentNumber = s.Number
		resp.Level = s.Level
		resp.Field = s.Field
	}
	if p, ok := u.Professor(); ok {
		resp.Department = p.Department
		resp.SpecialAccess = p.SpecialAccess
	}
	return resp
}

func toUserList(users []domain.User) listResponse[userResponse] {
	items := make([]userResponse, 0, len(users))
	for _, u := range users {
		items = append(items, toUserResponse(u))
	}
	return listResponse[userResponse]{Items: items, Count: len(items)}
}

func toBorrowResponse(r *ports.BorrowResult) borrowResponse {
	return borrowResponse{
		Book:     toBookResponse(r.Book),
		UserID:   r.UserID,
		DueDate:  formatDate(r.DueDate),
		Replayed: r.Replayed,
	}
}

func toReturnResponse(r *ports.ReturnResult) returnResponse {
	return returnResponse{
		Book:        toBookResponse(r.Book),
		UserID:      r.UserID,
		UserName:    r.UserName,
		BorrowedOn:  formatDate(r.BorrowedOn),
		DueDate:     formatDate(r.DueDate),
		Overdue:     r.Overdue,
		DaysOverdue: r.DaysOverdue,
	}
}

func toOverdueList(loans []ports.OverdueLoan) listResponse[overdueResponse] {
	items := make([]overdueResponse, 0, len(loans))
	for _, l := range loans {
		items = append(items, overdueResponse{
			Book:        toBookResponse(l.Book),
			DueDate:     formatDate(l.DueDate),
			DaysOverdue: l.DaysOverdue,
		})
	}
	return listResponse[overdueResponse]{Items: items, Count: len(items)}
}

func toEventList(events []domain.LoanEvent) listResponse[domain.LoanEvent] {
	if events == nil {
		events = []domain.LoanEvent{}
	}
	return listResponse[domain.LoanEvent]{Items: events, Count: len(events)}
}
