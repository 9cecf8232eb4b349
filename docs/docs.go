// Package docs registers the Swagger description of the organizer HTTP API.
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness check",
                "responses": {
                    "200": {"description": "data.status: ok", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error (database unreachable)", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/webhooks/yookassa": {
            "post": {
                "description": "Receives YooKassa notifications. The donation is looked up by payment id and its status is re-read from the provider. Unknown payments are acknowledged and ignored.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["webhooks"],
                "summary": "Payment notification",
                "parameters": [
                    {"description": "YooKassa notification", "name": "notification", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.PaymentNotification"}}
                ],
                "responses": {
                    "200": {"description": "data.status: updated or ignored", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/events/active/program": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the active event, the talk currently on stage and every talk with its question stats.",
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Program of the active event",
                "responses": {
                    "200": {"description": "data contains event, current talk and talks", "schema": {"$ref": "#/definitions/controllers.ActiveProgramSuccessResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "403": {"description": "error.code: forbidden", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found (no active event)", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/events/active/donations": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Total of succeeded donations, donation count and the latest donations.",
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Donation summary of the active event",
                "responses": {
                    "200": {"description": "data contains the summary", "schema": {"$ref": "#/definitions/controllers.DonationSummarySuccessResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "403": {"description": "error.code: forbidden", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found (no active event)", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/events/{eventID}/activate": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Marks the event active and every other event inactive.",
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Make an event the active one",
                "parameters": [
                    {"type": "string", "description": "Event ID", "name": "eventID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "data.status: activated", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "403": {"description": "error.code: forbidden", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "helpers.APIError": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "message": {"type": "string"}}
        },
        "helpers.APIResponse": {
            "type": "object",
            "properties": {"data": {}, "error": {"$ref": "#/definitions/helpers.APIError"}}
        },
        "controllers.PaymentNotification": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "event": {"type": "string"},
                "object": {"type": "object", "properties": {"id": {"type": "string"}, "status": {"type": "string"}}}
            }
        },
        "controllers.ActiveProgramSuccessResponse": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object",
                    "properties": {
                        "event": {"type": "object"},
                        "current_talk": {"type": "object"},
                        "talks": {"type": "array", "items": {"type": "object"}}
                    }
                },
                "error": {"$ref": "#/definitions/helpers.APIError"}
            }
        },
        "controllers.DonationSummarySuccessResponse": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object",
                    "properties": {
                        "currency": {"type": "string"},
                        "total": {"type": "integer"},
                        "count": {"type": "integer"},
                        "latest": {"type": "array", "items": {"type": "object"}}
                    }
                },
                "error": {"$ref": "#/definitions/helpers.APIError"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Meetup bot organizer API",
	Description:      "Dashboard and payment webhook endpoints of the meetup bot. Dashboard tokens are issued by the bot's /dashboard command.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
