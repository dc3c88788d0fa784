package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "description": "{{.Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": ["http", "https"],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Health Check",
                "description": "Check if server is running",
                "responses": {
                    "200": {
                        "description": "Server is healthy"
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Health"],
                "summary": "Readiness Check",
                "description": "Check that the task store answers",
                "responses": {
                    "200": {
                        "description": "Store reachable"
                    },
                    "503": {
                        "description": "Store not reachable"
                    }
                }
            }
        },
        "/todo/webhook": {
            "post": {
                "tags": ["Webhook"],
                "summary": "Telegram webhook",
                "description": "Receives bot updates; the path follows telegram.webhook_path",
                "consumes": ["application/json"],
                "parameters": [
                    {
                        "in": "header",
                        "name": "X-Telegram-Bot-Api-Secret-Token",
                        "type": "string",
                        "required": false
                    },
                    {
                        "in": "body",
                        "name": "update",
                        "required": true,
                        "schema": {
                            "type": "object",
                            "properties": {
                                "update_id": {"type": "integer"},
                                "message": {
                                    "type": "object",
                                    "properties": {
                                        "chat": {"type": "object", "properties": {"id": {"type": "integer"}}},
                                        "from": {"type": "object", "properties": {"id": {"type": "integer"}}},
                                        "text": {"type": "string", "example": "/add Buy milk due tomorrow 18:00"}
                                    }
                                }
                            }
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Update accepted"
                    },
                    "401": {
                        "description": "Secret token mismatch"
                    }
                }
            }
        },
        "/api/v1/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Admin Login",
                "description": "Exchange the admin credentials for a bearer token",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "in": "body",
                        "name": "credentials",
                        "description": "Login credentials",
                        "required": true,
                        "schema": {
                            "type": "object",
                            "properties": {
                                "username": {
                                    "type": "string",
                                    "example": "admin"
                                },
                                "password": {
                                    "type": "string"
                                }
                            }
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Login successful"
                    },
                    "401": {
                        "description": "Invalid credentials"
                    }
                }
            }
        },
        "/api/v1/users/{id}/export": {
            "get": {
                "tags": ["Admin"],
                "summary": "Export a user's tasks",
                "produces": ["application/json"],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "Snapshot of tasks and settings"
                    },
                    "404": {
                        "description": "User not found"
                    }
                }
            }
        },
        "/api/v1/users/{id}/import": {
            "post": {
                "tags": ["Admin"],
                "summary": "Import a user's tasks",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {
                        "in": "body",
                        "name": "snapshot",
                        "required": true,
                        "schema": {
                            "type": "object",
                            "properties": {
                                "tasks": {"type": "array", "items": {"type": "object"}},
                                "settings": {"type": "object"}
                            }
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Snapshot imported"
                    },
                    "400": {
                        "description": "Invalid snapshot"
                    }
                }
            }
        },
        "/api/v1/users/{id}/stats": {
            "get": {
                "tags": ["Admin"],
                "summary": "Get a user's statistics",
                "produces": ["application/json"],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "Task counts and completion rate"
                    },
                    "404": {
                        "description": "User not found"
                    }
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header",
            "description": "Type 'Bearer' followed by a space and JWT token"
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "CloudTodo API",
	Description:      "Telegram task bot webhook and admin API",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
