// Package docs registers the namd OpenAPI document with swag so the swagger
// UI can serve it. Regenerate with `swag init -g cmd/namd/docs.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "namd maintainers"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/models": {
            "get": {
                "produces": ["application/json"],
                "summary": "List models in the catalog",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelsResponse"}}
                }
            }
        },
        "/models/rescan": {
            "post": {
                "produces": ["application/json"],
                "summary": "Rescan the models directory",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelsResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/status": {
            "get": {
                "produces": ["application/json"],
                "summary": "Engine status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}
                }
            }
        },
        "/model": {
            "get": {
                "produces": ["application/json"],
                "summary": "Active model",
                "parameters": [
                    {"type": "string", "description": "1 to ask the plugin to re-announce its path", "name": "refresh", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Request a model swap",
                "parameters": [
                    {"description": "Model to load", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.SetModelRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/types.ModelResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/gain": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Set input and output gain",
                "parameters": [
                    {"description": "Gains in dB", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.GainRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}
                }
            }
        },
        "/events": {
            "get": {
                "produces": ["application/x-ndjson"],
                "summary": "Stream plugin notifications",
                "responses": {
                    "200": {"description": "NDJSON stream", "schema": {"$ref": "#/definitions/types.Notification"}}
                }
            }
        },
        "/state/save": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Save plugin state to a preset file",
                "parameters": [
                    {"description": "Preset file", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/types.StateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StateRequest"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/state/restore": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Restore plugin state from a preset file",
                "parameters": [
                    {"description": "Preset file", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/types.StateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StateRequest"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 400},
                "error": {"type": "string", "example": "invalid JSON body"}
            }
        },
        "types.Model": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "path": {"type": "string"},
                "size_bytes": {"type": "integer"},
                "size": {"type": "string"},
                "compression": {"type": "string"}
            }
        },
        "types.ModelsResponse": {
            "type": "object",
            "properties": {
                "models": {"type": "array", "items": {"$ref": "#/definitions/types.Model"}}
            }
        },
        "types.ModelResponse": {
            "type": "object",
            "properties": {
                "path": {"type": "string"},
                "swap_state": {"type": "string", "example": "idle"},
                "id": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "types.SetModelRequest": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "path": {"type": "string"}
            }
        },
        "types.GainRequest": {
            "type": "object",
            "properties": {
                "input_db": {"type": "number"},
                "output_db": {"type": "number"}
            }
        },
        "types.StateRequest": {
            "type": "object",
            "properties": {
                "file": {"type": "string", "example": "presets/live.yaml"}
            }
        },
        "types.Notification": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "example": "model"},
                "path": {"type": "string"},
                "block": {"type": "integer"},
                "time_unix_ms": {"type": "integer"}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "instance_id": {"type": "string"},
                "state": {"type": "string"},
                "swap_state": {"type": "string"},
                "model_path": {"type": "string"},
                "sample_rate": {"type": "number"},
                "block_size": {"type": "integer"},
                "max_block": {"type": "integer"},
                "input_db": {"type": "number"},
                "output_db": {"type": "number"},
                "blocks": {"type": "integer"},
                "overruns": {"type": "integer"},
                "uptime_seconds": {"type": "integer"},
                "server_time_unix": {"type": "integer"},
                "activated": {"type": "boolean"},
                "in_flight": {"$ref": "#/definitions/types.SwapCounters"},
                "architectures": {"type": "array", "items": {"type": "string"}},
                "last_error": {"type": "string"},
                "last_load_error": {"type": "string"}
            }
        },
        "types.SwapCounters": {
            "type": "object",
            "properties": {
                "loads": {"type": "integer"},
                "switches": {"type": "integer"},
                "frees": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "namd API",
	Description:      "HTTP control API for the neural amp model host.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
