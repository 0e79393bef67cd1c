// Package docs holds the OpenAPI document for the user API, registered with
// swag. Keep it in sync with the swag annotations in internal/handler.
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
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Service status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.RootResponse"}}
                }
            }
        },
        "/ping": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.PingResponse"}}
                }
            }
        },
        "/api/v1/users/register": {
            "post": {
                "description": "Multipart form with profile fields, a mandatory avatar and an optional cover image.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Register a new user",
                "parameters": [
                    {"type": "string", "description": "Full name", "name": "fullName", "in": "formData", "required": true},
                    {"type": "string", "description": "Email", "name": "email", "in": "formData", "required": true},
                    {"type": "string", "description": "Username", "name": "username", "in": "formData", "required": true},
                    {"type": "string", "description": "Password", "name": "password", "in": "formData", "required": true},
                    {"type": "file", "description": "Avatar image", "name": "avatar", "in": "formData", "required": true},
                    {"type": "file", "description": "Cover image", "name": "coverImage", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"allOf": [{"$ref": "#/definitions/model.APIResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/model.UserView"}}}]}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/model.APIResponse"}}
                }
            }
        },
        "/api/v1/users/login": {
            "post": {
                "description": "Either email or username identifies the account. Sets accessToken and refreshToken cookies.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Login",
                "parameters": [
                    {"description": "Credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/model.APIResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/model.Session"}}}]}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/model.APIResponse"}}
                }
            }
        },
        "/api/v1/users/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Clears the stored refresh token and both session cookies.",
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Logout",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.APIResponse"}}
                }
            }
        },
        "/api/v1/users/refresh-token": {
            "post": {
                "description": "Reads the refreshToken cookie, falling back to the JSON body.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Rotate the refresh token",
                "parameters": [
                    {"description": "Refresh token when no cookie is sent", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/model.RefreshRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/model.APIResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/model.TokenPair"}}}]}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/model.APIResponse"}}
                }
            }
        },
        "/api/v1/users/change-password": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Change password",
                "parameters": [
                    {"description": "Old and new password", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.ChangePasswordRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.APIResponse"}}
                }
            }
        },
        "/api/v1/users/current-user": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Get current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/model.APIResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/model.UserView"}}}]}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.APIResponse"}}
                }
            }
        },
        "/api/v1/users/update-account-details": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Update full name and email",
                "parameters": [
                    {"description": "New account details", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.UpdateAccountRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/model.APIResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/model.UserView"}}}]}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/model.APIResponse"}}
                }
            }
        },
        "/api/v1/users/update-avatar": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Replace the avatar",
                "parameters": [
                    {"type": "file", "description": "Avatar image", "name": "avatar", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/model.APIResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/model.UserView"}}}]}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/model.APIResponse"}}
                }
            }
        },
        "/api/v1/users/update-cover-image": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Replace the cover image",
                "parameters": [
                    {"type": "file", "description": "Cover image", "name": "coverImage", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/model.APIResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/model.UserView"}}}]}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/model.APIResponse"}}
                }
            }
        },
        "/api/v1/users/history": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "List watched video ids",
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/model.APIResponse"}, {"type": "object", "properties": {"data": {"type": "array", "items": {"type": "string"}}}}]}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "model.APIResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "message": {"type": "string"},
                "statusCode": {"type": "integer"},
                "success": {"type": "boolean"}
            }
        },
        "model.ChangePasswordRequest": {
            "type": "object",
            "properties": {
                "newPassword": {"type": "string"},
                "oldPassword": {"type": "string"}
            }
        },
        "model.LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "model.PingResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            }
        },
        "model.RefreshRequest": {
            "type": "object",
            "properties": {
                "refreshToken": {"type": "string"}
            }
        },
        "model.RootResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "model.Session": {
            "type": "object",
            "properties": {
                "accessToken": {"type": "string"},
                "refreshToken": {"type": "string"},
                "user": {"$ref": "#/definitions/model.UserView"}
            }
        },
        "model.TokenPair": {
            "type": "object",
            "properties": {
                "accessToken": {"type": "string"},
                "refreshToken": {"type": "string"}
            }
        },
        "model.UpdateAccountRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "fullName": {"type": "string"}
            }
        },
        "model.UserView": {
            "type": "object",
            "properties": {
                "_id": {"type": "string"},
                "avatar": {"type": "string"},
                "coverImage": {"type": "string"},
                "createdAt": {"type": "string"},
                "email": {"type": "string"},
                "fullName": {"type": "string"},
                "updatedAt": {"type": "string"},
                "username": {"type": "string"},
                "watchHistory": {"type": "array", "items": {"type": "string"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "vidhub user API",
	Description:      "Account registration, login and session rotation for vidhub.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
