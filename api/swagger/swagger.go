package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "NestLearn Planner API",
        "description": "Adaptive scheduling and proposal engine for household learning",
        "version": "0.1.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Plans", "description": "Proposal lifecycle: draft, approve, apply, export"},
        {"name": "Velocity", "description": "Adaptive pace multipliers"},
        {"name": "Reschedule", "description": "Conflict suggestions"},
        {"name": "Blackouts", "description": "No-schedule periods"},
        {"name": "Gaps", "description": "Free-time inspection"}
    ],
    "paths": {
        "/plans/propose": {
            "post": {
                "tags": ["Plans"],
                "summary": "Draft a schedule proposal for a family's week",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ProposePlanRequest"}}
                ],
                "responses": {
                    "201": {"description": "Draft plan with proposed changes", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error"},
                    "502": {"description": "Upstream read failure"}
                }
            }
        },
        "/plans/{id}/apply": {
            "patch": {
                "tags": ["Plans"],
                "summary": "Submit approvals and materialize a draft plan",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ApplyPlanRequest"}}
                ],
                "responses": {
                    "200": {"description": "Per-change outcomes and final plan status", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Plan not found"},
                    "409": {"description": "Plan already left draft"}
                }
            }
        },
        "/plans/{id}/export": {
            "get": {
                "tags": ["Plans"],
                "summary": "Download a plan as CSV or PDF",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Rendered document"},
                    "404": {"description": "Plan not found"}
                }
            }
        },
        "/velocity/recompute": {
            "post": {
                "tags": ["Velocity"],
                "summary": "Recompute adaptive pace multipliers",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecomputeVelocityRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated velocity records", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Recompute enqueued"}
                }
            }
        },
        "/commitments/{id}/suggestions": {
            "get": {
                "tags": ["Reschedule"],
                "summary": "Suggest replacement windows for a blocked commitment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "reason", "in": "query", "type": "string", "enum": ["sick", "weather", "family_emergency", "travel", "other"]}
                ],
                "responses": {
                    "200": {"description": "Same-day and next-day alternatives", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Commitment not found"}
                }
            }
        },
        "/blackouts": {
            "post": {
                "tags": ["Blackouts"],
                "summary": "Declare a no-schedule period",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateBlackoutRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created blackout", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error"}
                }
            }
        },
        "/learners/{id}/gaps": {
            "get": {
                "tags": ["Gaps"],
                "summary": "List a learner's free intervals in a date range",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "required": true, "type": "string"},
                    {"name": "to", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Free intervals", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Learner not found"}
                }
            }
        }
    },
    "definitions": {
        "ProposePlanRequest": {
            "type": "object",
            "required": ["familyId", "weekStart"],
            "properties": {
                "familyId": {"type": "string"},
                "weekStart": {"type": "string", "example": "2025-09-01"},
                "learnerIds": {"type": "array", "items": {"type": "string"}},
                "horizonWeeks": {"type": "integer"},
                "mode": {"type": "string", "enum": ["rebalance", "pack_week", "what_if"]},
                "reason": {"type": "string"}
            }
        },
        "ApplyPlanRequest": {
            "type": "object",
            "required": ["approvals"],
            "properties": {
                "approvals": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "changeId": {"type": "string"},
                            "approved": {"type": "boolean"},
                            "edits": {"type": "object"}
                        }
                    }
                }
            }
        },
        "RecomputeVelocityRequest": {
            "type": "object",
            "required": ["familyId"],
            "properties": {
                "familyId": {"type": "string"},
                "learnerId": {"type": "string"},
                "subjectId": {"type": "string"},
                "sinceWeeks": {"type": "integer"},
                "async": {"type": "boolean"}
            }
        },
        "CreateBlackoutRequest": {
            "type": "object",
            "required": ["familyId", "startsOn", "endsOn"],
            "properties": {
                "familyId": {"type": "string"},
                "learnerId": {"type": "string"},
                "startsOn": {"type": "string", "example": "2025-09-01"},
                "endsOn": {"type": "string", "example": "2025-09-03"},
                "reason": {"type": "string"}
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
