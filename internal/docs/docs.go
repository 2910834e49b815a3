// Package docs registers the service's OpenAPI document with swaggo/swag so
// gin-swagger can serve it at /swagger/index.html. Hand-maintained here
// rather than `swag init`-generated, since the doc-comment annotations on
// internal/handler's methods are kept in sync manually; the shape mirrors
// what swag init would otherwise emit.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
  "swagger": "2.0",
  "info": {
    "title": "kgsearch search service",
    "description": "Recall/Expand/Rerank search over a knowledge-graph clue graph.",
    "version": "1.0"
  },
  "basePath": "/api/v1",
  "paths": {
    "/search": {
      "post": {
        "summary": "Run a Recall/Expand/Rerank search",
        "consumes": ["application/json"],
        "produces": ["application/json"],
        "responses": {
          "200": {"description": "search result"},
          "400": {"description": "configuration error"},
          "502": {"description": "store transport failure"},
          "504": {"description": "stage timeout"}
        }
      }
    },
    "/system/info": {
      "get": {
        "summary": "Report build version and backend configuration",
        "produces": ["application/json"],
        "responses": {"200": {"description": "system info"}}
      }
    },
    "/debug/query": {
      "post": {
        "summary": "Run an allowlisted read-only SQL debug query",
        "tags": ["debug"],
        "consumes": ["application/json"],
        "produces": ["application/json"],
        "responses": {
          "200": {"description": "query rows"},
          "400": {"description": "rejected by sqlguard"}
        }
      }
    }
  }
}`

// SwaggerInfo is consumed by ginSwagger.WrapHandler via swag.Register.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/api/v1",
	Title:            "kgsearch search service",
	Description:      "Recall/Expand/Rerank search over a knowledge-graph clue graph.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
