// Package docs registers the storefront OpenAPI document with swag.
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
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/health": {
            "get": {"tags": ["system"], "summary": "Liveness and store reachability", "responses": {"200": {"description": "OK"}, "503": {"description": "Store unreachable"}}}
        },
        "/api/auth/register": {
            "post": {
                "tags": ["auth"], "summary": "Create a customer account",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/service.RegisterInput"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/service.Session"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/gateway.errorResponse"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/gateway.errorResponse"}}}
            }
        },
        "/api/auth/login": {
            "post": {
                "tags": ["auth"], "summary": "Exchange credentials for a token",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/service.LoginInput"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/service.Session"}}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/gateway.errorResponse"}}}
            }
        },
        "/api/users/me": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Current user", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.User"}}}}
        },
        "/api/products": {
            "get": {
                "tags": ["products"], "summary": "List products",
                "parameters": [{"type": "string", "description": "Category filter", "name": "category", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Product"}}}}
            }
        },
        "/api/products/{id}": {
            "get": {
                "tags": ["products"], "summary": "Get a product",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Product"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/gateway.errorResponse"}}}
            }
        },
        "/api/orders": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["orders"], "summary": "Orders of the current user", "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Order"}}}}},
            "post": {
                "security": [{"BearerAuth": []}], "tags": ["orders"], "summary": "Place an order",
                "description": "Reserves stock for every line and creates the order with its shipment. Insufficient stock answers 409.",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/service.PlaceOrderInput"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Order"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/gateway.errorResponse"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/gateway.errorResponse"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/gateway.errorResponse"}}}
            }
        },
        "/api/orders/{id}": {
            "get": {
                "security": [{"BearerAuth": []}], "tags": ["orders"], "summary": "Get an order",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Order"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/gateway.errorResponse"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/gateway.errorResponse"}}}
            }
        },
        "/api/orders/{id}/cancel": {
            "put": {
                "security": [{"BearerAuth": []}], "tags": ["orders"], "summary": "Cancel an order",
                "description": "Only Processing orders can be cancelled. Stock is restored.",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Order"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/gateway.errorResponse"}}}
            }
        },
        "/api/admin/orders/{id}": {
            "put": {
                "security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Change an order's status",
                "description": "The paired shipment follows the order.",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/service.UpdateOrderStatusInput"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Order"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/gateway.errorResponse"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/gateway.errorResponse"}}}
            }
        },
        "/api/admin/shipments/{id}": {
            "put": {
                "security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Edit a shipment",
                "description": "Status changes move the order to the matching status.",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/service.UpdateShipmentInput"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Shipment"}}}
            }
        }
    },
    "definitions": {
        "gateway.errorResponse": {"type": "object", "properties": {"message": {"type": "string"}}},
        "models.Product": {"type": "object", "properties": {"_id": {"type": "string"}, "name": {"type": "string"}, "description": {"type": "string"}, "price": {"type": "number"}, "category": {"type": "string"}, "image": {"type": "string"}, "stock": {"type": "integer"}}},
        "models.User": {"type": "object", "properties": {"_id": {"type": "string"}, "name": {"type": "string"}, "email": {"type": "string"}, "isAdmin": {"type": "boolean"}, "phone": {"type": "string"}, "address": {"type": "string"}, "city": {"type": "string"}, "country": {"type": "string"}}},
        "models.OrderItem": {"type": "object", "properties": {"product": {"type": "string"}, "name": {"type": "string"}, "quantity": {"type": "integer"}, "price": {"type": "number"}, "image": {"type": "string"}}},
        "models.ShippingAddress": {"type": "object", "properties": {"firstName": {"type": "string"}, "lastName": {"type": "string"}, "address": {"type": "string"}, "city": {"type": "string"}, "postalCode": {"type": "string"}, "country": {"type": "string"}}},
        "models.Order": {"type": "object", "properties": {"_id": {"type": "string"}, "orderNumber": {"type": "string"}, "user": {"type": "string"}, "items": {"type": "array", "items": {"$ref": "#/definitions/models.OrderItem"}}, "shippingAddress": {"$ref": "#/definitions/models.ShippingAddress"}, "paymentMethod": {"type": "string"}, "totalPrice": {"type": "number"}, "status": {"type": "string", "enum": ["Processing", "Shipped", "Delivered", "Cancelled"]}}},
        "models.Shipment": {"type": "object", "properties": {"_id": {"type": "string"}, "order": {"type": "string"}, "status": {"type": "string", "enum": ["Preparing", "In Transit", "Ready for Pickup", "Delivered", "Cancelled"]}, "trackingNumber": {"type": "string"}, "shippingMethod": {"type": "string"}, "estimatedDelivery": {"type": "string"}}},
        "service.RegisterInput": {"type": "object", "required": ["name", "email", "password"], "properties": {"name": {"type": "string"}, "email": {"type": "string"}, "password": {"type": "string", "minLength": 6}}},
        "service.LoginInput": {"type": "object", "required": ["email", "password"], "properties": {"email": {"type": "string"}, "password": {"type": "string"}}},
        "service.Session": {"type": "object", "properties": {"user": {"$ref": "#/definitions/models.User"}, "token": {"type": "string"}}},
        "service.PlaceOrderItem": {"type": "object", "required": ["product"], "properties": {"product": {"type": "string"}, "quantity": {"type": "integer", "minimum": 1}, "name": {"type": "string"}, "price": {"type": "number"}, "image": {"type": "string"}}},
        "service.PlaceOrderInput": {"type": "object", "required": ["items", "shippingAddress", "paymentMethod"], "properties": {"items": {"type": "array", "items": {"$ref": "#/definitions/service.PlaceOrderItem"}}, "shippingAddress": {"$ref": "#/definitions/models.ShippingAddress"}, "paymentMethod": {"type": "string"}, "totalPrice": {"type": "number"}, "taxAmount": {"type": "number"}, "taxPercentage": {"type": "number"}, "shipping": {"type": "number"}}},
        "service.UpdateOrderStatusInput": {"type": "object", "required": ["status"], "properties": {"status": {"type": "string", "enum": ["Processing", "Shipped", "Delivered", "Cancelled"]}}},
        "service.UpdateShipmentInput": {"type": "object", "properties": {"status": {"type": "string", "enum": ["Preparing", "In Transit", "Ready for Pickup", "Delivered", "Cancelled"]}, "trackingNumber": {"type": "string"}, "shippingMethod": {"type": "string"}, "estimatedDelivery": {"type": "string"}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Candle Shop Storefront API",
	Description:      "Catalog, accounts, orders with stock reservation, shipment tracking and back office.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
