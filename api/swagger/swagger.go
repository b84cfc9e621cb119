package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SIWES Logbook API",
        "description": "Daily log lifecycle engine for SIWES work placements",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Logs", "description": "Daily log submission and retrieval"},
        {"name": "Sync", "description": "Offline batch reconciliation"},
        {"name": "Review", "description": "Supervisor verification workflow"},
        {"name": "Exports", "description": "Logbook export generation"}
    ],
    "paths": {
        "/logs": {
            "get": {
                "tags": ["Logs"],
                "summary": "List the authenticated student's logs",
                "parameters": [
                    {"name": "week", "in": "query", "type": "integer"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Logs"],
                "summary": "Submit a daily log",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateLogRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/logs/{id}": {
            "get": {
                "tags": ["Logs"],
                "summary": "Get one daily log",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Logs"],
                "summary": "Edit a pending or flagged log's content",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateLogRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Log already verified"}
                }
            },
            "delete": {
                "tags": ["Logs"],
                "summary": "Delete a log",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/logs/sync": {
            "post": {
                "tags": ["Sync"],
                "summary": "Reconcile a batch of offline logs",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SyncRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/logs/sync/ack": {
            "post": {
                "tags": ["Sync"],
                "summary": "Mark logs as synced on the client",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AckRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/logs/unsynced": {
            "get": {
                "tags": ["Sync"],
                "summary": "List server rows not yet acknowledged by the client",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/logs/{id}/verify": {
            "post": {
                "tags": ["Review"],
                "summary": "Verify a pending log",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/VerifyRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already verified or flagged"}
                }
            }
        },
        "/logs/{id}/flag": {
            "post": {
                "tags": ["Review"],
                "summary": "Flag a log for attention",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FlagRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Log already verified"}
                }
            }
        },
        "/logs/{id}/unflag": {
            "post": {
                "tags": ["Review"],
                "summary": "Return a flagged log to pending review",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/logs/bulk-verify": {
            "post": {
                "tags": ["Review"],
                "summary": "Verify many logs independently",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkVerifyRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/review/pending": {
            "get": {
                "tags": ["Review"],
                "summary": "List a placement's logs awaiting review",
                "parameters": [
                    {"name": "placementId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/review/flagged": {
            "get": {
                "tags": ["Review"],
                "summary": "List a placement's flagged logs",
                "parameters": [
                    {"name": "placementId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/review/statistics": {
            "get": {
                "tags": ["Review"],
                "summary": "Review progress statistics for a placement",
                "parameters": [
                    {"name": "placementId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/placements/{id}/weeks": {
            "get": {
                "tags": ["Logs"],
                "summary": "Log counts per program week for a placement",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/placements/{id}/weeks/{week}/logs": {
            "get": {
                "tags": ["Logs"],
                "summary": "List a placement's logs for one program week",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "week", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/logs/export": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a logbook export",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{id}/download": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File stream"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "DailyLog": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "client_uuid": {"type": "string"},
                "student_id": {"type": "string"},
                "placement_id": {"type": "string"},
                "log_date": {"type": "string"},
                "week_number": {"type": "integer"},
                "activity_description": {"type": "string"},
                "skills_learned": {"type": "string"},
                "challenges": {"type": "string"},
                "latitude": {"type": "number"},
                "longitude": {"type": "number"},
                "distance_from_geofence": {"type": "number"},
                "location_status": {"type": "string", "enum": ["within", "outside", "unknown"]},
                "status": {"type": "string", "enum": ["pending_review", "verified", "flagged"]},
                "synced": {"type": "boolean"},
                "reviewer_id": {"type": "string"},
                "reviewer_comment": {"type": "string"},
                "reviewed_at": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "CreateLogRequest": {
            "type": "object",
            "properties": {
                "placement_id": {"type": "string"},
                "log_date": {"type": "string", "example": "2024-01-15"},
                "activity_description": {"type": "string"},
                "skills_learned": {"type": "string"},
                "challenges": {"type": "string"},
                "latitude": {"type": "number"},
                "longitude": {"type": "number"},
                "client_uuid": {"type": "string"}
            },
            "required": ["placement_id", "log_date", "activity_description"]
        },
        "UpdateLogRequest": {
            "type": "object",
            "properties": {
                "activity_description": {"type": "string"},
                "skills_learned": {"type": "string"},
                "challenges": {"type": "string"}
            }
        },
        "SyncRequest": {
            "type": "object",
            "properties": {
                "logs": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/CreateLogRequest"}
                }
            },
            "required": ["logs"]
        },
        "AckRequest": {
            "type": "object",
            "properties": {
                "log_ids": {
                    "type": "array",
                    "items": {"type": "string"}
                }
            },
            "required": ["log_ids"]
        },
        "SyncResult": {
            "type": "object",
            "properties": {
                "synced": {"type": "integer"},
                "skipped": {"type": "integer"},
                "failed": {"type": "integer"},
                "errors": {
                    "type": "array",
                    "items": {"type": "string"}
                }
            }
        },
        "VerifyRequest": {
            "type": "object",
            "properties": {
                "feedback": {"type": "string"}
            }
        },
        "FlagRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"}
            },
            "required": ["reason"]
        },
        "BulkVerifyRequest": {
            "type": "object",
            "properties": {
                "log_ids": {
                    "type": "array",
                    "items": {"type": "string"}
                },
                "feedback": {"type": "string"}
            },
            "required": ["log_ids"]
        },
        "ExportRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "placement_id": {"type": "string"},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
            },
            "required": ["format"]
        },
        "ReviewStatistics": {
            "type": "object",
            "properties": {
                "total_logs": {"type": "integer"},
                "pending": {"type": "integer"},
                "verified": {"type": "integer"},
                "flagged": {"type": "integer"},
                "review_rate": {"type": "number"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
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
