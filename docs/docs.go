// Package docs registers the OpenAPI description served under /swagger.
// Regenerate with `swag init` after changing controller annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {"get": {"tags": ["system"], "summary": "Health check", "responses": {"200": {"description": "OK"}}}},
        "/profile": {"get": {"security": [{"ApiKeyAuth": []}], "tags": ["profile"], "summary": "Current user", "responses": {"200": {"description": "OK"}}}},
        "/documents": {
            "get": {"security": [{"ApiKeyAuth": []}], "tags": ["documents"], "summary": "List approved documents", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"ApiKeyAuth": []}], "tags": ["documents"], "summary": "Upload a PDF", "consumes": ["multipart/form-data"], "responses": {"201": {"description": "Created"}}}
        },
        "/documents/facets": {"get": {"security": [{"ApiKeyAuth": []}], "tags": ["documents"], "summary": "Course and level filter values", "responses": {"200": {"description": "OK"}}}},
        "/documents/mine": {"get": {"security": [{"ApiKeyAuth": []}], "tags": ["documents"], "summary": "List my uploads", "responses": {"200": {"description": "OK"}}}},
        "/documents/{id}": {"get": {"security": [{"ApiKeyAuth": []}], "tags": ["documents"], "summary": "Document detail", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/documents/{id}/download": {"get": {"security": [{"ApiKeyAuth": []}], "tags": ["documents"], "summary": "Download a document", "produces": ["application/pdf"], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/favorites": {"get": {"security": [{"ApiKeyAuth": []}], "tags": ["favorites"], "summary": "My favorite documents", "responses": {"200": {"description": "OK"}}}},
        "/favorites/{documentId}": {
            "get": {"security": [{"ApiKeyAuth": []}], "tags": ["favorites"], "summary": "Whether a document is a favorite", "parameters": [{"type": "string", "name": "documentId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"ApiKeyAuth": []}], "tags": ["favorites"], "summary": "Add a favorite", "parameters": [{"type": "string", "name": "documentId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"ApiKeyAuth": []}], "tags": ["favorites"], "summary": "Remove a favorite", "parameters": [{"type": "string", "name": "documentId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/favorites/{documentId}/toggle": {"post": {"security": [{"ApiKeyAuth": []}], "tags": ["favorites"], "summary": "Toggle a favorite", "parameters": [{"type": "string", "name": "documentId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/quiz/sessions": {"post": {"security": [{"ApiKeyAuth": []}], "tags": ["quiz"], "summary": "Generate a quiz from an approved document", "parameters": [
            {"type": "string", "name": "pdfId", "in": "query", "required": true},
            {"enum": ["mcq", "fill-blank", "theory"], "type": "string", "name": "type", "in": "query", "required": true},
            {"type": "integer", "default": 10, "name": "count", "in": "query"},
            {"type": "boolean", "name": "wait", "in": "query"}
        ], "responses": {"201": {"description": "Ready"}, "202": {"description": "Preparing"}}}},
        "/quiz/sessions/{id}": {
            "get": {"security": [{"ApiKeyAuth": []}], "tags": ["quiz"], "summary": "Quiz session status and questions", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"ApiKeyAuth": []}], "tags": ["quiz"], "summary": "Abandon a quiz", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/quiz/sessions/{id}/answers/{index}": {"put": {"security": [{"ApiKeyAuth": []}], "tags": ["quiz"], "summary": "Record an answer", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"type": "integer", "name": "index", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/quiz/sessions/{id}/navigate": {"post": {"security": [{"ApiKeyAuth": []}], "tags": ["quiz"], "summary": "Move between questions", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/quiz/sessions/{id}/submit": {"post": {"security": [{"ApiKeyAuth": []}], "tags": ["quiz"], "summary": "Submit and grade the quiz", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/quiz/sessions/{id}/retake": {"post": {"security": [{"ApiKeyAuth": []}], "tags": ["quiz"], "summary": "Clear answers and start the same quiz again", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/quiz/sessions/{id}/results": {"get": {"security": [{"ApiKeyAuth": []}], "tags": ["quiz"], "summary": "Graded results of a submitted quiz", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/notifications/ws": {"get": {"security": [{"ApiKeyAuth": []}], "tags": ["notifications"], "summary": "Notification websocket", "responses": {"101": {"description": "Switching Protocols"}}}},
        "/admin/documents/pending": {"get": {"security": [{"ApiKeyAuth": []}], "tags": ["admin"], "summary": "Documents awaiting approval", "responses": {"200": {"description": "OK"}}}},
        "/admin/documents/approved": {"get": {"security": [{"ApiKeyAuth": []}], "tags": ["admin"], "summary": "Approved documents with name search", "responses": {"200": {"description": "OK"}}}},
        "/admin/documents/{id}/status": {"patch": {"security": [{"ApiKeyAuth": []}], "tags": ["admin"], "summary": "Approve or reject a document", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/admin/documents/{id}": {"delete": {"security": [{"ApiKeyAuth": []}], "tags": ["admin"], "summary": "Delete a document and its stored file", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}}
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "FST Cloud API",
	Description:      "PDF sharing portal with AI generated quizzes.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
