package handler

// --- Requests ---

type bookRequest struct {
	ID          string `json:"id"           validate:"required"`
	Title       string `json:"title"        validate:"required"`
	Author      string `json:"author"       validate:"required"`
	Pages       int    `json:"pages"        validate:"gte=0"`
	Publisher   string `json:"publisher"`
	PublishedOn string `json:"published_on" validate:"omitempty,datetime=2006-01-02"`
}

type updateBookRequest struct {
	Title       string `json:"title"        validate:"required"`
	Author      string `json:"author"       validate:"required"`
	Pages       int    `json:"pages"        validate:"gte=0"`
	Publisher   string `json:"publisher"`
	PublishedOn string `json:"published_on" validate:"omitempty,datetime=2006-01-02"`
}

type userRequest struct {
	Kind          string `json:"kind"           validate:"required,oneof=student professor"`
	Name          string `json:"name"           validate:"required"`
	Email         string `json:"email"          validate:"required,email"`
	StudentNumber string `json:"student_number" validate:"required_if=Kind student"`
	Level         int    `json:"level"          validate:"omitempty,min=1,max=5"`
	Field         string `json:"field"`
	Department    string `json:"department"     validate:"required_if=Kind professor"`
}

type borrowRequest struct {
	BookID string `json:"book_id" validate:"required"`
	UserID string `json:"user_id" validate:"required"`
}

// --- Responses ---

type errorResponse struct {
	Error string `json:"error"`
}

type bookResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Pages       int    `json:"pages"`
	Publisher   string `json:"publisher"`
	PublishedOn string `json:"published_on,omitempty"`
	Available   bool   `json:"available"`
	BorrowerID  string `json:"borrower_id,omitempty"`
	BorrowedOn  string `json:"borrowed_on,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
}

type userResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Kind          string `json:"kind"`
	Type          string `json:"type"`
	ActiveLoans   int    `json:"active_loans"`
	MaxLoans      int    `json:"max_loans"`
	LoanDays      int    `json:"loan_days"`
	StudentNumber string `json:"student_number,omitempty"`
	Level         int    `json:"level,omitempty"`
	Field         string `json:"field,omitempty"`
	Department    string `json:"department,omitempty"`
	SpecialAccess bool   `json:"special_access,omitempty"`
}

type borrowResponse struct {
	Book     bookResponse `json:"book"`
	UserID   string       `json:"user_id"`
	DueDate  string       `json:"due_date"`
	Replayed bool         `json:"replayed,omitempty"`
}

type returnResponse struct {
	Book        bookResponse `json:"book"`
	UserID      string       `json:"user_id"`
	UserName    string       `json:"user_name"`
	BorrowedOn  string       `json:"borrowed_on"`
	DueDate     string       `json:"due_date"`
	Overdue     bool         `json:"overdue"`
	DaysOverdue int          `json:"days_overdue"`
}

type overdueResponse struct {
	Book        bookResponse `json:"book"`
	DueDate     string       `json:"due_date"`
	DaysOverdue int          `json:"days_overdue"`
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}
