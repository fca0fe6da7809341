// Package docs holds the generated OpenAPI document served at /docs/doc.json.
// Regenerate with: swag init -g internal/httpapi/router.go -o docs
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
        "/api/records": {
            "get": {
                "produces": ["application/json"],
                "tags": ["stats"],
                "summary": "Match records",
                "description": "Raw per-player match outcomes, newest first.",
                "parameters": [
                    {"type": "integer", "description": "Maximum rows (default 50, max 500)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/store.MatchRecord"}}},
                    "400": {"description": "Bad limit", "schema": {"type": "string"}},
                    "503": {"description": "No record store configured", "schema": {"type": "string"}}
                }
            }
        },
        "/api/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["stats"],
                "summary": "Player standings",
                "description": "Aggregated per-player wins and games. Roles held as part of a merged composite count fractionally.",
                "parameters": [
                    {"type": "string", "description": "Exact player name", "name": "player", "in": "query"},
                    {"type": "string", "description": "Role filter (merlin, morgana, servant, ...)", "name": "role", "in": "query"},
                    {"type": "string", "description": "good or evil", "name": "alignment", "in": "query"},
                    {"type": "string", "description": "Earliest game date (yyyy-mm-dd)", "name": "since", "in": "query"},
                    {"type": "string", "description": "Latest game date (yyyy-mm-dd)", "name": "until", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/store.StatsRow"}}},
                    "400": {"description": "Bad filter", "schema": {"type": "string"}},
                    "503": {"description": "No record store configured", "schema": {"type": "string"}}
                }
            }
        },
        "/api/rooms": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["rooms"],
                "summary": "Create room",
                "description": "Create a new room. The requester becomes the host and owner of a fresh lobby.",
                "parameters": [
                    {"description": "Request body", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.CreateRoomRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.CreateRoomResponse"}},
                    "400": {"description": "Bad request (invalid display_name, password length, or body)", "schema": {"type": "string"}},
                    "500": {"description": "Server error", "schema": {"type": "string"}}
                }
            }
        },
        "/api/rooms/{code}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["rooms"],
                "summary": "Get room",
                "description": "Get room details and the public match snapshot. No authentication required.",
                "parameters": [
                    {"type": "string", "description": "Room code (6 alphanumeric)", "name": "code", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.GetRoomResponse"}},
                    "400": {"description": "Invalid room code", "schema": {"type": "string"}},
                    "404": {"description": "Room not found", "schema": {"type": "string"}}
                }
            }
        },
        "/api/rooms/{code}/join": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["rooms"],
                "summary": "Join room",
                "description": "Register a player identity in an existing room. Returns room, player, and a WebSocket token. Joining the running match happens over the WebSocket.",
                "parameters": [
                    {"type": "string", "description": "Room code (6 alphanumeric)", "name": "code", "in": "path", "required": true},
                    {"description": "Request body", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.JoinRoomRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.CreateRoomResponse"}},
                    "400": {"description": "Bad request", "schema": {"type": "string"}},
                    "401": {"description": "Invalid room password", "schema": {"type": "string"}},
                    "404": {"description": "Room not found", "schema": {"type": "string"}},
                    "409": {"description": "Display name already taken in this room", "schema": {"type": "string"}},
                    "500": {"description": "Server error", "schema": {"type": "string"}}
                }
            }
        },
        "/api/rooms/{code}/qr": {
            "get": {
                "produces": ["image/png"],
                "tags": ["rooms"],
                "summary": "Room QR code",
                "description": "PNG QR code encoding the public join link for the room.",
                "parameters": [
                    {"type": "string", "description": "Room code (6 alphanumeric)", "name": "code", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "400": {"description": "Invalid room code", "schema": {"type": "string"}},
                    "404": {"description": "Room not found", "schema": {"type": "string"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "description": "Liveness/readiness check. No authentication required.",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.healthResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handler.CreateRoomRequest": {
            "type": "object",
            "properties": {
                "display_name": {"type": "string"},
                "password": {"type": "string"},
                "true_random": {"type": "boolean"}
            }
        },
        "handler.CreateRoomResponse": {
            "type": "object",
            "properties": {
                "room": {"$ref": "#/definitions/handler.RoomInfo"},
                "player": {"$ref": "#/definitions/lobby.Player"},
                "token": {"type": "string"},
                "expires_at": {"type": "string"}
            }
        },
        "handler.JoinRoomRequest": {
            "type": "object",
            "properties": {
                "display_name": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handler.GetRoomResponse": {
            "type": "object",
            "properties": {
                "room": {"$ref": "#/definitions/handler.RoomInfo"},
                "players": {"type": "array", "items": {"$ref": "#/definitions/lobby.Player"}},
                "game": {"$ref": "#/definitions/engine.Info"}
            }
        },
        "handler.RoomInfo": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "code": {"type": "string"},
                "true_random": {"type": "boolean"},
                "has_password": {"type": "boolean"},
                "created_at": {"type": "string"}
            }
        },
        "handler.healthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "service": {"type": "string"}
            }
        },
        "lobby.Player": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "host": {"type": "boolean"},
                "created_at": {"type": "string"}
            }
        },
        "engine.Info": {
            "type": "object",
            "properties": {
                "phase": {"type": "integer"},
                "players": {"type": "array", "items": {"type": "string"}},
                "features": {"type": "object", "additionalProperties": {"type": "boolean"}},
                "merged": {"type": "array", "items": {"type": "array", "items": {"type": "string"}}},
                "muted": {"type": "boolean"},
                "quest": {"type": "integer"},
                "quest_results": {"type": "array", "items": {"type": "boolean"}},
                "team_size": {"type": "integer"},
                "fails_needed": {"type": "integer"},
                "reject_count": {"type": "integer"},
                "leader": {"type": "string"},
                "team": {"type": "array", "items": {"type": "string"}},
                "lady_holder": {"type": "string"},
                "winner": {"type": "string"}
            }
        },
        "store.MatchRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "player_id": {"type": "string"},
                "player_name": {"type": "string"},
                "role_id": {"type": "integer"},
                "won": {"type": "boolean"},
                "composite_count": {"type": "integer"},
                "created_at": {"type": "string"}
            }
        },
        "store.StatsRow": {
            "type": "object",
            "properties": {
                "player_name": {"type": "string"},
                "games": {"type": "number"},
                "wins": {"type": "number"},
                "ratio": {"type": "number"}
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

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Round Table API",
	Description:      "API for social-deduction game rooms, live play over WebSocket, and match records.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
