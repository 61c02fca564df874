package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Competency Assessment API",
        "description": "Scores employee competency assessments against position requirement templates.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Competencies", "description": "Active competency hierarchies"},
        {"name": "GradeBands", "description": "Percentage to letter grade table"},
        {"name": "Templates", "description": "Position requirement templates"},
        {"name": "Assessments", "description": "Assessment lifecycle and scoring"}
    ],
    "paths": {
        "/competencies/{flavor}": {
            "get": {
                "tags": ["Competencies"],
                "summary": "Active competency hierarchy",
                "parameters": [
                    {"name": "flavor", "in": "path", "required": true, "type": "string", "enum": ["CORE", "BEHAVIORAL", "LEADERSHIP"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown flavor", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grade-bands": {
            "get": {
                "tags": ["GradeBands"],
                "summary": "List grade bands",
                "parameters": [{"name": "active", "in": "query", "type": "boolean"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["GradeBands"],
                "summary": "Create grade band",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GradeBandRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid or overlapping band", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grade-bands/{id}": {
            "get": {
                "tags": ["GradeBands"],
                "summary": "Get grade band",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["GradeBands"],
                "summary": "Update grade band",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GradeBandRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["GradeBands"],
                "summary": "Delete grade band",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/grade-bands/coverage": {
            "get": {
                "tags": ["GradeBands"],
                "summary": "Report gaps and overlaps in the active grade band table",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/grade-bands/lookup": {
            "get": {
                "tags": ["GradeBands"],
                "summary": "Resolve the grade band for a percentage",
                "parameters": [{"name": "percentage", "in": "query", "required": true, "type": "number"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Percentage outside [0,100]", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Grade band configuration error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/templates": {
            "get": {
                "tags": ["Templates"],
                "summary": "List requirement templates",
                "parameters": [
                    {"name": "position", "in": "query", "type": "string"},
                    {"name": "flavor", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Templates"],
                "summary": "Create requirement template",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTemplateRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Active template already exists", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/templates/{id}": {
            "get": {
                "tags": ["Templates"],
                "summary": "Get requirement template",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Templates"],
                "summary": "Replace template grade levels and ratings",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateTemplateRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Templates"],
                "summary": "Delete requirement template",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Template still referenced", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assessments": {
            "get": {
                "tags": ["Assessments"],
                "summary": "List assessments",
                "parameters": [
                    {"name": "employeeId", "in": "query", "type": "string"},
                    {"name": "templateId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string", "enum": ["DRAFT", "COMPLETED"]},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Assessments"],
                "summary": "Create assessment",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateAssessmentRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate assessment", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assessments/{id}": {
            "get": {
                "tags": ["Assessments"],
                "summary": "Get assessment",
                "description": "Scores are only included once the assessment is COMPLETED.",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Assessments"],
                "summary": "Delete assessment",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/assessments/{id}/ratings": {
            "put": {
                "tags": ["Assessments"],
                "summary": "Replace ratings",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateRatingsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition or concurrent modification", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assessments/{id}/submit": {
            "post": {
                "tags": ["Assessments"],
                "summary": "Submit assessment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/SubmitAssessmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Grade band configuration error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assessments/{id}/reopen": {
            "post": {
                "tags": ["Assessments"],
                "summary": "Reopen assessment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/VersionRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/assessments/{id}/recalculate": {
            "post": {
                "tags": ["Assessments"],
                "summary": "Recalculate assessment scores",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/assessments/recalculate": {
            "post": {
                "tags": ["Assessments"],
                "summary": "Queue recalculation of every assessment on a template",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecalculateTemplateRequest"}}],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Bulk recalculation disabled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "GradeBandRequest": {
            "type": "object",
            "required": ["letter", "min_percentage", "max_percentage"],
            "properties": {
                "letter": {"type": "string"},
                "min_percentage": {"type": "number"},
                "max_percentage": {"type": "number"},
                "description": {"type": "string"},
                "is_active": {"type": "boolean"}
            }
        },
        "TemplateRating": {
            "type": "object",
            "properties": {
                "item_id": {"type": "string"},
                "required_level": {"type": "integer"}
            }
        },
        "CreateTemplateRequest": {
            "type": "object",
            "required": ["position", "grade_levels", "flavor", "ratings"],
            "properties": {
                "position": {"type": "string"},
                "grade_levels": {"type": "array", "items": {"type": "string"}},
                "flavor": {"type": "string", "enum": ["CORE", "BEHAVIORAL", "LEADERSHIP"]},
                "ratings": {"type": "array", "items": {"$ref": "#/definitions/TemplateRating"}},
                "is_active": {"type": "boolean"}
            }
        },
        "UpdateTemplateRequest": {
            "type": "object",
            "properties": {
                "grade_levels": {"type": "array", "items": {"type": "string"}},
                "ratings": {"type": "array", "items": {"$ref": "#/definitions/TemplateRating"}},
                "is_active": {"type": "boolean"}
            }
        },
        "RatingInput": {
            "type": "object",
            "properties": {
                "item_id": {"type": "string"},
                "actual_level": {"type": "integer"},
                "notes": {"type": "string"}
            }
        },
        "CreateAssessmentRequest": {
            "type": "object",
            "required": ["employee_id", "template_id", "assessment_date"],
            "properties": {
                "employee_id": {"type": "string"},
                "template_id": {"type": "string"},
                "assessment_date": {"type": "string", "format": "date"},
                "ratings": {"type": "array", "items": {"$ref": "#/definitions/RatingInput"}},
                "action": {"type": "string", "enum": ["save_draft", "submit"]}
            }
        },
        "UpdateRatingsRequest": {
            "type": "object",
            "properties": {
                "ratings": {"type": "array", "items": {"$ref": "#/definitions/RatingInput"}},
                "action": {"type": "string", "enum": ["save_draft", "submit"]},
                "version": {"type": "integer"}
            }
        },
        "SubmitAssessmentRequest": {
            "type": "object",
            "properties": {
                "ratings": {"type": "array", "items": {"$ref": "#/definitions/RatingInput"}},
                "version": {"type": "integer"}
            }
        },
        "VersionRequest": {
            "type": "object",
            "properties": {"version": {"type": "integer"}}
        },
        "RecalculateTemplateRequest": {
            "type": "object",
            "required": ["template_id"],
            "properties": {"template_id": {"type": "string"}}
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
