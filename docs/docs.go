// Package docs registers the swagger spec served at /swagger/*any.
// Regenerate with: swag init -g cmd/breakd/main.go -o docs
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
        "/api/v1/feed": {
            "get": {
                "produces": ["application/json"],
                "tags": ["动态"],
                "summary": "获取 feed",
                "parameters": [
                    {"enum": ["none", "author", "query", "trending"], "type": "string", "name": "scope", "in": "query"},
                    {"type": "string", "name": "author_id", "in": "query"},
                    {"type": "string", "name": "q", "in": "query"},
                    {"type": "boolean", "name": "include_listings", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/posts": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["动态"],
                "summary": "发帖",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.CreatePostInput"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/v1/posts/{id}/like": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["互动"],
                "summary": "点赞（POST）或取消（DELETE）",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/v1/listings": {
            "get": {
                "tags": ["市场"],
                "summary": "商品列表",
                "parameters": [
                    {"type": "string", "name": "seller_id", "in": "query"},
                    {"type": "string", "name": "liked_by", "in": "query"},
                    {"type": "string", "name": "q", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/v1/relations/follow": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["关系链"],
                "summary": "关注用户",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.followRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/v1/notifications/unread-count": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["通知"],
                "summary": "未读通知数",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        }
    },
    "definitions": {
        "handler.followRequest": {
            "type": "object",
            "required": ["to_user_id"],
            "properties": {"to_user_id": {"type": "string"}}
        },
        "response.Response": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "data": {},
                "message": {"type": "string"}
            }
        },
        "service.CreatePostInput": {
            "type": "object",
            "properties": {
                "content": {"type": "string", "maxLength": 280},
                "image_url": {"type": "string"}
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
	Title:            "Break API",
	Description:      "Social feed and marketplace API.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
