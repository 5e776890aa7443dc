package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Taxi Rank Administration API",
        "description": "Rank admin onboarding, bindings and reporting",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and token issuance"},
        {"name": "Registrations", "description": "Self-service admin registration"},
        {"name": "Assignments", "description": "Additional-rank requests"},
        {"name": "Bindings", "description": "Admin to rank binding registry"},
        {"name": "Ranks", "description": "Rank directory"},
        {"name": "Users", "description": "User directory (role-projected)"},
        {"name": "Exports", "description": "Roster downloads"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/registrations": {
            "post": {
                "tags": ["Registrations"],
                "summary": "Submit an admin registration request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitRegistrationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate email or pending request"}
                }
            },
            "get": {
                "tags": ["Registrations"],
                "summary": "List registration requests by status",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/registrations/{id}": {
            "get": {
                "tags": ["Registrations"],
                "summary": "Get a registration request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/registrations/{id}/review": {
            "post": {
                "tags": ["Registrations"],
                "summary": "Review a registration request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "Reviewed"},
                    "409": {"description": "Already reviewed or rank conflict"}
                }
            }
        },
        "/assignments": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Request an additional rank",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitAssignmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "403": {"description": "Caller holds no binding"},
                    "409": {"description": "Duplicate or conflicting request"}
                }
            },
            "get": {
                "tags": ["Assignments"],
                "summary": "List assignment requests",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "rank_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/assignments/mine": {
            "get": {
                "tags": ["Assignments"],
                "summary": "List the caller's own requests",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/assignments/{id}/review": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Review an assignment request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "Reviewed"},
                    "409": {"description": "Already processed or rank conflict"}
                }
            }
        },
        "/assignments/{id}/cancel": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Cancel an assignment request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Cancelled"},
                    "403": {"description": "Not the requesting admin"},
                    "409": {"description": "Already processed"}
                }
            }
        },
        "/bindings": {
            "post": {
                "tags": ["Bindings"],
                "summary": "Bind an admin to a rank",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignBindingRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Rank taken or already bound"}
                }
            },
            "get": {
                "tags": ["Bindings"],
                "summary": "Full binding roster",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/bindings/{user_id}/{rank_id}": {
            "patch": {
                "tags": ["Bindings"],
                "summary": "Update binding permissions",
                "parameters": [
                    {"name": "user_id", "in": "path", "required": true, "type": "string"},
                    {"name": "rank_id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PermissionUpdate"}}
                ],
                "responses": {
                    "200": {"description": "Updated"},
                    "404": {"description": "No such binding"}
                }
            },
            "delete": {
                "tags": ["Bindings"],
                "summary": "Remove a binding",
                "parameters": [
                    {"name": "user_id", "in": "path", "required": true, "type": "string"},
                    {"name": "rank_id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Removed"},
                    "404": {"description": "No such binding"}
                }
            }
        },
        "/ranks": {
            "get": {
                "tags": ["Ranks"],
                "summary": "List active ranks",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ranks/{id}": {
            "get": {
                "tags": ["Ranks"],
                "summary": "Get rank by id",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/ranks/code/{code}": {
            "get": {
                "tags": ["Ranks"],
                "summary": "Get rank by public code",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/ranks/cache": {
            "delete": {
                "tags": ["Ranks"],
                "summary": "Evict cached rank entries",
                "parameters": [
                    {"name": "codes", "in": "query", "required": false, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ranks/{id}/admins": {
            "get": {
                "tags": ["Ranks"],
                "summary": "List admins bound to a rank",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users",
                "parameters": [
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/me": {
            "get": {
                "tags": ["Users"],
                "summary": "Get the authenticated user's own view",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "tags": ["Users"],
                "summary": "Get user by id",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/users/{id}/bindings": {
            "get": {
                "tags": ["Bindings"],
                "summary": "List an admin's bindings",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/exports/roster": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download the binding roster",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "400": {"description": "Unsupported format"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "SubmitRegistrationRequest": {
            "type": "object",
            "required": ["first_name", "last_name", "email", "phone_number", "password", "rank_codes"],
            "properties": {
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "email": {"type": "string"},
                "phone_number": {"type": "string"},
                "password": {"type": "string"},
                "preferred_payment_method": {"type": "string"},
                "designation": {"type": "string"},
                "justification": {"type": "string"},
                "professional_experience": {"type": "string"},
                "admin_notes": {"type": "string"},
                "rank_codes": {"type": "array", "items": {"type": "string"}}
            }
        },
        "SubmitAssignmentRequest": {
            "type": "object",
            "required": ["rank_code"],
            "properties": {
                "rank_code": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "ReviewRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["APPROVED", "REJECTED"]},
                "notes": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "AssignBindingRequest": {
            "type": "object",
            "required": ["user_id", "rank_code"],
            "properties": {
                "user_id": {"type": "string"},
                "rank_code": {"type": "string"},
                "permissions": {"$ref": "#/definitions/PermissionUpdate"},
                "designation": {"type": "string"},
                "notes": {"type": "string"}
            }
        },
        "PermissionUpdate": {
            "type": "object",
            "properties": {
                "can_manage_drivers": {"type": "boolean"},
                "can_view_financials": {"type": "boolean"},
                "can_edit_rank_details": {"type": "boolean"},
                "can_manage_routes": {"type": "boolean"},
                "can_manage_terminals": {"type": "boolean"},
                "designation": {"type": "string"},
                "notes": {"type": "string"}
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
