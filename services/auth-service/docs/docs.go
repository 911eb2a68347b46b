// Package docs registers the OpenAPI description of the auth API with swag.
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
        "/auth/register": {"post": {"tags": ["auth"], "summary": "Register a new user", "responses": {"201": {"description": "Created"}, "400": {"description": "Validation error"}}}},
        "/auth/verify": {"get": {"tags": ["auth"], "summary": "Verify email", "parameters": [{"type": "string", "name": "token", "in": "query", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid or expired token"}}}},
        "/auth/status": {"get": {"tags": ["auth"], "summary": "Verification status", "parameters": [{"type": "string", "name": "email", "in": "query", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "User not found"}}}},
        "/auth/resend": {"post": {"tags": ["auth"], "summary": "Resend verification email", "responses": {"202": {"description": "Accepted"}, "409": {"description": "Already verified"}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Login user", "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid credentials"}}}},
        "/auth/refresh": {"post": {"tags": ["auth"], "summary": "Refresh access token", "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid or expired refresh token"}}}},
        "/users": {"get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "List users", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}},
        "/users/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Get user profile", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "User not found"}}},
            "patch": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Update user profile", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Not the owner"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Delete user account", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No content"}, "403": {"description": "Not the owner"}}}
        },
        "/users/me/password": {"put": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Change password", "responses": {"204": {"description": "No content"}, "400": {"description": "Validation error"}}}},
        "/maintenance/tokens": {"delete": {"security": [{"ApiKeyAuth": []}], "tags": ["maintenance"], "summary": "Clean expired tokens", "responses": {"200": {"description": "OK"}}}},
        "/maintenance/unverified": {"delete": {"security": [{"ApiKeyAuth": []}], "tags": ["maintenance"], "summary": "Purge unverified users", "responses": {"200": {"description": "OK"}}}}
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "X-API-Key", "in": "header"},
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8081",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "GenZone Auth API",
	Description:      "Registration, email verification, login and user profiles",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
