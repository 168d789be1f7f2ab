package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Student Directory API",
        "description": "Student registration, multi-identifier login, profile directory and ranked search",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Tokens and logout"},
        {"name": "Registration", "description": "Student sign-up"},
        {"name": "Profiles", "description": "Directory listing, detail, update and export"},
        {"name": "Search", "description": "Ranked directory search"}
    ],
    "paths": {
        "/register": {
            "post": {
                "tags": ["Registration"],
                "summary": "Register a student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Registration failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Obtain tokens with a university ID, email or phone",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/token/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid or expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Revoke the presented tokens",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/profile": {
            "get": {
                "tags": ["Profiles"],
                "summary": "List profiles",
                "parameters": [
                    {"name": "batch", "in": "query", "type": "string"},
                    {"name": "program", "in": "query", "type": "string"},
                    {"name": "is_cr", "in": "query", "type": "string"},
                    {"name": "company", "in": "query", "type": "string"},
                    {"name": "position", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/profile/export": {
            "get": {
                "tags": ["Profiles"],
                "summary": "Export filtered profiles",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "batch", "in": "query", "type": "string"},
                    {"name": "program", "in": "query", "type": "string"},
                    {"name": "is_cr", "in": "query", "type": "string"},
                    {"name": "company", "in": "query", "type": "string"},
                    {"name": "position", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "400": {"description": "Unknown format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/profile/{id}": {
            "get": {
                "tags": ["Profiles"],
                "summary": "Get profile",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Profiles"],
                "summary": "Replace profile",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateProfileRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "patch": {
                "tags": ["Profiles"],
                "summary": "Update profile fields",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateProfileRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/search": {
            "get": {
                "tags": ["Search"],
                "summary": "Ranked search",
                "parameters": [{"name": "q", "in": "query", "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string", "description": "University ID, email or phone"},
                "password": {"type": "string"}
            }
        },
        "RefreshTokenRequest": {
            "type": "object",
            "properties": {"refresh_token": {"type": "string"}}
        },
        "RegisterRequest": {
            "type": "object",
            "required": ["password", "first_name", "last_name", "batch"],
            "properties": {
                "username": {"type": "string", "maxLength": 20},
                "password": {"type": "string"},
                "email": {"type": "string", "format": "email"},
                "first_name": {"type": "string", "maxLength": 30},
                "last_name": {"type": "string", "maxLength": 30},
                "phone": {"type": "string", "maxLength": 15},
                "bio": {"type": "string"},
                "profile_pic": {"type": "string", "format": "uri"},
                "batch": {"type": "string", "maxLength": 100},
                "program": {"type": "string", "maxLength": 100},
                "country": {"type": "string", "maxLength": 100},
                "current_position": {"type": "string", "maxLength": 200},
                "current_company": {"type": "string", "maxLength": 200},
                "is_cr": {"type": "boolean"}
            }
        },
        "UpdateProfileRequest": {
            "type": "object",
            "properties": {
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "uni_id": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "bio": {"type": "string"},
                "profile_pic": {"type": "string"},
                "batch": {"type": "string"},
                "program": {"type": "string"},
                "country": {"type": "string"},
                "current_job_position": {"type": "string"},
                "current_company": {"type": "string"},
                "linkedin": {"type": "string"},
                "facebook": {"type": "string"},
                "instagram": {"type": "string"},
                "is_cr": {"type": "boolean"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "errors": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
