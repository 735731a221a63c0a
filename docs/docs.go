// Package docs registers the OpenAPI document served under /swagger.
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
        "/v1/score": {
            "post": {
                "description": "Scores all eight trait dimensions against the athlete's cohort.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["scoring"],
                "summary": "Score an athlete",
                "parameters": [
                    {
                        "description": "Feature observations",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/types.ScoreRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/analysis.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorBody"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/errors.ErrorBody"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/errors.ErrorBody"}}
                }
            }
        },
        "/v1/explain": {
            "post": {
                "description": "Returns the intermediate values behind every dimension score.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["scoring"],
                "summary": "Explain a score",
                "parameters": [
                    {
                        "description": "Feature observations",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/types.ScoreRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorBody"}}
                }
            }
        },
        "/v1/dimensions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "List trait dimensions",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/cohorts": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "List known cohorts",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/calibration": {
            "get": {
                "description": "Score anchors, squash parameters and tracked reliability metrics.",
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Calibration metadata",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "types.FeatureInput": {
            "type": "object",
            "required": ["name", "source", "value"],
            "properties": {
                "name": {"type": "string", "maxLength": 128},
                "value": {"type": "number"},
                "source": {"type": "string", "enum": ["pbp", "wearable", "cv", "social", "manual"]},
                "quality": {"type": "number", "minimum": 0, "maximum": 1},
                "leverage": {"type": "number", "minimum": 0, "maximum": 1},
                "recency_days": {"type": "number", "minimum": 0}
            }
        },
        "types.ScoreRequest": {
            "type": "object",
            "required": ["athleteId"],
            "properties": {
                "athleteId": {"type": "string", "maxLength": 128},
                "cohort": {"type": "string", "example": "mlb.closer"},
                "asOf": {"type": "string", "example": "2025-07-15T00:00:00Z"},
                "features": {
                    "type": "array",
                    "maxItems": 500,
                    "items": {"$ref": "#/definitions/types.FeatureInput"}
                }
            }
        },
        "analysis.Contributor": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "contrib": {"type": "number"},
                "sign": {"type": "string", "enum": ["+", "-"]},
                "source": {"type": "string"},
                "recency_days": {"type": "number"}
            }
        },
        "analysis.ScoreRecord": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "score": {"type": "number"},
                "confidence": {"type": "number"},
                "percentile": {"type": "number"},
                "top_k_features": {"type": "array", "items": {"$ref": "#/definitions/analysis.Contributor"}},
                "evidence_summary": {
                    "type": "object",
                    "properties": {
                        "n_eff": {"type": "number"},
                        "median_recency_days": {"type": "number"},
                        "coverage_by_source": {"type": "object", "additionalProperties": {"type": "number"}}
                    }
                },
                "notes": {
                    "type": "object",
                    "properties": {
                        "shrinkage_applied": {"type": "boolean"},
                        "conflicts_detected": {"type": "boolean"}
                    }
                }
            }
        },
        "analysis.Response": {
            "type": "object",
            "properties": {
                "athleteId": {"type": "string"},
                "asOf": {"type": "string"},
                "cohort": {"type": "string"},
                "version": {"type": "string"},
                "scores": {"type": "array", "items": {"$ref": "#/definitions/analysis.ScoreRecord"}}
            }
        },
        "errors.ErrorBody": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "category": {"type": "string"},
                "message": {"type": "string"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}},
                "request_id": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Athlete Trait Scoring API",
	Description:      "Cohort-normalized, confidence-weighted trait scores for athletes.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
