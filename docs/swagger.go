// Package docs holds the generated-style Swagger definition for the RSS
// Reader API.
package docs

import "github.com/swaggo/swag"

// @title RSS Reader API
// @version 1.0
// @description An RSS reader with offline article archival

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

func init() {
	swag.Register(swag.Name, &swag.Spec{
		InfoInstanceName: "swagger",
		SwaggerTemplate:  docTemplate,
	})
}

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "RSS Reader API",
        "description": "An RSS reader with offline article archival",
        "version": "1.0.0",
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        }
    },
    "host": "localhost:8080",
    "basePath": "/api/v1",
    "paths": {
        "/feeds": {
            "get": {
                "summary": "List subscribed feeds",
                "description": "Returns all feeds with unread article counts",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "summary": "Subscribe to a feed",
                "description": "Fetches and validates the feed URL, stores it with its current items and schedules article archival",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object",
                            "properties": {"url": {"type": "string"}}
                        }
                    }
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Feed URL already exists"},
                    "422": {"description": "URL is not a usable feed"},
                    "502": {"description": "Feed could not be fetched"}
                }
            },
            "put": {
                "summary": "Refresh all feeds",
                "description": "Refreshes every feed; per-feed errors are logged and skipped",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/feeds/{id}": {
            "delete": {
                "summary": "Delete a feed",
                "description": "Deletes the feed and cascades to its articles and images",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Feed not found"}
                }
            }
        },
        "/feeds/{id}/refresh": {
            "post": {
                "summary": "Refresh one feed",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Feed not found"}
                }
            }
        },
        "/articles": {
            "get": {
                "summary": "List articles",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "feed_id", "in": "query", "type": "integer"},
                    {"name": "unread", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/articles/{id}/content": {
            "get": {
                "summary": "Get article content",
                "description": "Returns the archived full content when available, falling back to the feed-provided content",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Article not found"}
                }
            }
        },
        "/articles/{id}/read": {
            "post": {
                "summary": "Mark article as read",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Article not found"}
                }
            }
        },
        "/articles/{id}/unread": {
            "post": {
                "summary": "Mark article as unread",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Article not found"}
                }
            }
        },
        "/process-downloads": {
            "post": {
                "summary": "Drain the archival queue",
                "description": "Synchronously archives all unarchived unread articles",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/cleanup": {
            "post": {
                "summary": "Purge expired archives",
                "description": "Clears archived content and deletes image files older than the retention window",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/reset-downloads": {
            "post": {
                "summary": "Reset archive state",
                "description": "Forces all articles back to the unarchived state",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    }
}`
