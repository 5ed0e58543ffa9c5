package handler

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/isitech/bibliotheque/internal/core/ports"
)

var homeTemplate = template.Must(template.New("home").Parse(`<html><head><title>{{.Name}}</title></head><body>
<h1>Livres disponibles</h1><ul>
{{- range .Books}}
<li>{{.Title}} - {{.Author}}</li>
{{- end}}
</ul></body></html>
`))

// HomeHandler renders the catalog as a plain HTML list.
type HomeHandler struct {
	service ports.LibraryService
}

func NewHomeHandler(service ports.LibraryService) *HomeHandler {
	return &HomeHandler{service: service}
}

// Index handles GET /. Every book is listed, borrowed or not.
func (h *HomeHandler) Index(c echo.Context) error {
	ctx := c.Request().Context()
	data := struct {
		Name  string
		Books []bookResponse
	}{
		Name:  h.service.Stats(ctx).LibraryName,
		Books: toBookList(h.service.ListAllBooks(ctx)).Items,
	}

	var buf bytes.Buffer
	if err := homeTemplate.Execute(&buf, data); err != nil {
		return err
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}
