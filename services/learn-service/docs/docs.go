// Package docs registers the OpenAPI description of the learn API with swag.
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
        "/courses": {
            "get": {"tags": ["courses"], "summary": "List courses", "parameters": [{"type": "string", "name": "search", "in": "query"}, {"type": "integer", "name": "page", "in": "query"}, {"type": "integer", "name": "page_size", "in": "query"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Invalid page"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["courses"], "summary": "Create course", "responses": {"201": {"description": "Created"}, "400": {"description": "Validation error"}}}
        },
        "/courses/mine": {"get": {"security": [{"BearerAuth": []}], "tags": ["memberships"], "summary": "List my courses", "parameters": [{"type": "string", "name": "kind", "in": "query", "required": true, "enum": ["owned", "enrolled", "favorite", "in_progress"]}], "responses": {"200": {"description": "OK"}, "400": {"description": "Unknown kind"}}}},
        "/course/{id}": {
            "get": {"tags": ["courses"], "summary": "Get course", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Course not found"}}},
            "patch": {"security": [{"BearerAuth": []}], "tags": ["courses"], "summary": "Update course", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Not the owner"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["courses"], "summary": "Delete course", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No content"}, "403": {"description": "Not the owner"}}}
        },
        "/course/{id}/access": {"get": {"security": [{"BearerAuth": []}], "tags": ["courses"], "summary": "Check course access", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/course/{id}/enroll": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["memberships"], "summary": "Enroll", "responses": {"201": {"description": "Created"}, "409": {"description": "Already enrolled"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["memberships"], "summary": "Unenroll", "responses": {"204": {"description": "No content"}, "409": {"description": "Not enrolled"}}}
        },
        "/course/{id}/favorite": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["memberships"], "summary": "Add to favorites", "responses": {"201": {"description": "Created"}, "409": {"description": "Already in favorites"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["memberships"], "summary": "Remove from favorites", "responses": {"204": {"description": "No content"}, "409": {"description": "Not in favorites"}}}
        },
        "/course/{id}/in-progress": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["memberships"], "summary": "Mark in progress", "responses": {"201": {"description": "Created"}, "409": {"description": "Already in progress"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["memberships"], "summary": "Unmark in progress", "responses": {"204": {"description": "No content"}, "409": {"description": "Not in progress"}}}
        },
        "/course/{id}/module": {"post": {"security": [{"BearerAuth": []}], "tags": ["modules"], "summary": "Create module", "responses": {"201": {"description": "Created"}, "403": {"description": "Not the owner"}}}},
        "/course/{id}/module/{m}": {
            "get": {"tags": ["modules"], "summary": "Get module", "responses": {"200": {"description": "OK"}, "404": {"description": "Module not found"}}},
            "patch": {"security": [{"BearerAuth": []}], "tags": ["modules"], "summary": "Update module", "responses": {"200": {"description": "OK"}, "403": {"description": "Not the owner"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["modules"], "summary": "Delete module", "responses": {"204": {"description": "No content"}, "403": {"description": "Not the owner"}}}
        },
        "/course/{id}/module/{m}/lesson": {"post": {"security": [{"BearerAuth": []}], "tags": ["lessons"], "summary": "Create lesson", "responses": {"201": {"description": "Created"}, "403": {"description": "Not the owner"}}}},
        "/course/{id}/module/{m}/lesson/{l}": {
            "get": {"tags": ["lessons"], "summary": "Get lesson", "parameters": [{"type": "integer", "name": "page", "in": "query"}, {"type": "integer", "name": "page_size", "in": "query"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Lesson not found"}}},
            "patch": {"security": [{"BearerAuth": []}], "tags": ["lessons"], "summary": "Update lesson", "responses": {"200": {"description": "OK"}, "403": {"description": "Not the owner"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["lessons"], "summary": "Delete lesson", "responses": {"204": {"description": "No content"}, "403": {"description": "Not the owner"}}}
        },
        "/course/{id}/module/{m}/lesson/{l}/step": {"post": {"security": [{"BearerAuth": []}], "tags": ["steps"], "summary": "Create step", "responses": {"201": {"description": "Created"}, "403": {"description": "Not the owner"}}}},
        "/course/{id}/module/{m}/lesson/{l}/step/{s}": {
            "get": {"tags": ["steps"], "summary": "Get step", "responses": {"200": {"description": "OK"}, "404": {"description": "Step not found"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["steps"], "summary": "Replace step contents", "responses": {"200": {"description": "OK"}, "400": {"description": "Validation error"}, "403": {"description": "Not the owner"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["steps"], "summary": "Delete step", "responses": {"204": {"description": "No content"}, "403": {"description": "Not the owner"}}}
        },
        "/course/{id}/module/{m}/lesson/{l}/step/{s}/content": {"post": {"security": [{"BearerAuth": []}], "tags": ["contents"], "summary": "Create content", "responses": {"201": {"description": "Created"}, "400": {"description": "Validation error"}}}},
        "/course/{id}/module/{m}/lesson/{l}/step/{s}/content/{c}": {
            "get": {"tags": ["contents"], "summary": "Get content", "responses": {"200": {"description": "OK"}, "404": {"description": "Content not found"}}},
            "patch": {"security": [{"BearerAuth": []}], "tags": ["contents"], "summary": "Update content", "responses": {"200": {"description": "OK"}, "400": {"description": "Validation error"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["contents"], "summary": "Delete content", "responses": {"204": {"description": "No content"}, "403": {"description": "Not the owner"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8082",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "GenZone Learn API",
	Description:      "Course catalog, course content tree and memberships",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
