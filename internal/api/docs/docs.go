// Package docs registers the OpenAPI description served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/v1/books": {
            "get": {
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "List books, sorted by title then author",
                "parameters": [
                    {"type": "string", "description": "Case-insensitive text in title or author", "name": "q", "in": "query"},
                    {"type": "string", "description": "Exact author, case-insensitive", "name": "author", "in": "query"},
                    {"type": "string", "description": "available or borrowed", "name": "status", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/bookList"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/error"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "Add a book to the catalog",
                "parameters": [
                    {"description": "Book", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/bookRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/book"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/error"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/v1/books/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "Get a book",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/book"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/error"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "Replace the descriptive fields of a book",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"description": "Book details", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/bookRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/book"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/error"}}
                }
            },
            "delete": {
                "tags": ["books"],
                "summary": "Remove a book from the catalog",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/error"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/v1/books/{id}/history": {
            "get": {
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "Loan audit trail of a book, oldest first",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/v1/users": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "List users in registration order, or search by name",
                "parameters": [{"type": "string", "name": "name", "in": "query"}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Register a student or a professor",
                "parameters": [
                    {"description": "User", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/userRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/error"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/v1/users/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Get a user",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/v1/loans": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["loans"],
                "summary": "Borrow a book",
                "parameters": [
                    {"type": "string", "description": "Key making retries of the same borrow safe", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Loan request", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/borrowRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "200": {"description": "Replay of an earlier request"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/error"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/error"}},
                    "422": {"description": "Quota exceeded", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/v1/loans/{book_id}/return": {
            "post": {
                "produces": ["application/json"],
                "tags": ["loans"],
                "summary": "Return a borrowed book",
                "parameters": [{"type": "string", "name": "book_id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/error"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/v1/loans/overdue": {
            "get": {
                "produces": ["application/json"],
                "tags": ["loans"],
                "summary": "List borrowed books past their due date",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["stats"],
                "summary": "Library statistics",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "error": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "bookRequest": {
            "type": "object",
            "required": ["id", "title", "author"],
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "author": {"type": "string"},
                "pages": {"type": "integer"},
                "publisher": {"type": "string"},
                "published_on": {"type": "string", "example": "2020-05-01"}
            }
        },
        "book": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "author": {"type": "string"},
                "pages": {"type": "integer"},
                "publisher": {"type": "string"},
                "published_on": {"type": "string"},
                "available": {"type": "boolean"},
                "borrower_id": {"type": "string"},
                "borrowed_on": {"type": "string"},
                "due_date": {"type": "string"}
            }
        },
        "bookList": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/book"}},
                "count": {"type": "integer"}
            }
        },
        "userRequest": {
            "type": "object",
            "required": ["kind", "name", "email"],
            "properties": {
                "kind": {"type": "string", "enum": ["student", "professor"]},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "student_number": {"type": "string"},
                "level": {"type": "integer", "minimum": 1, "maximum": 5},
                "field": {"type": "string"},
                "department": {"type": "string"}
            }
        },
        "borrowRequest": {
            "type": "object",
            "required": ["book_id", "user_id"],
            "properties": {
                "book_id": {"type": "string"},
                "user_id": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Bibliothèque API",
	Description:      "Catalog, user registry and lending of a university library.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
