// Package docs registers the OpenAPI description of the chat API with swag.
// Regenerate with: swag init -g cmd/main.go -o docs
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
        "/conversations": {"get": {"security": [{"BearerAuth": []}], "tags": ["conversations"], "summary": "List conversations", "parameters": [{"type": "integer", "name": "page", "in": "query"}, {"type": "integer", "name": "page_size", "in": "query"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Invalid page"}}}},
        "/conversations/start": {"post": {"security": [{"BearerAuth": []}], "tags": ["conversations"], "summary": "Start conversation", "responses": {"200": {"description": "Existing conversation"}, "201": {"description": "New conversation"}, "400": {"description": "Validation error"}, "404": {"description": "User not found"}}}},
        "/conversations/{id}": {"get": {"security": [{"BearerAuth": []}], "tags": ["conversations"], "summary": "Get conversation", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}, {"type": "integer", "name": "page", "in": "query"}, {"type": "integer", "name": "page_size", "in": "query"}], "responses": {"200": {"description": "OK"}, "403": {"description": "Not a participant"}, "404": {"description": "Conversation not found"}}}},
        "/conversations/{id}/messages": {"post": {"security": [{"BearerAuth": []}], "tags": ["conversations"], "summary": "Post message", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"201": {"description": "Created"}, "400": {"description": "Validation error"}, "403": {"description": "Not a participant"}}}},
        "/ws": {"get": {"tags": ["conversations"], "summary": "Chat WebSocket", "parameters": [{"type": "string", "name": "token", "in": "query"}], "responses": {"101": {"description": "Switching protocols"}, "401": {"description": "Unauthorized"}}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8083",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "GenZone Chat API",
	Description:      "Direct conversations, message log and live events",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
