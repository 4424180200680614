// Package docs registers the OpenAPI document of the parcel API.
// Regenerate with: swag init -g cmd/api/main.go
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
        "/fude/{code}": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "parcel"
                ],
                "summary": "Look up a parcel by parcel code",
                "parameters": [
                    {
                        "type": "string",
                        "description": "parcel code",
                        "name": "code",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.ParcelLocation"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/resolve": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "parcel"
                ],
                "summary": "Resolve a parcel string to parcel codes",
                "parameters": [
                    {
                        "type": "string",
                        "description": "parcel string, e.g. 日田市大字田島字畑江583番地8",
                        "name": "q",
                        "in": "query",
                        "required": true
                    },
                    {
                        "type": "array",
                        "items": {
                            "type": "string"
                        },
                        "collectionFormat": "multi",
                        "description": "area names or JIS codes, outermost first",
                        "name": "area",
                        "in": "query"
                    },
                    {
                        "type": "boolean",
                        "description": "reject codes reached by a partial match",
                        "name": "exact",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/models.ParcelLocation"
                            }
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/segment": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "parcel"
                ],
                "summary": "Split a registry parcel notation into parcel strings",
                "parameters": [
                    {
                        "type": "string",
                        "description": "notation, e.g. 日田市大字田島字畑江　583番地8、9",
                        "name": "q",
                        "in": "query",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "JIS X 0402 municipality code",
                        "name": "city",
                        "in": "query",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "type": "string"
                            }
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "models.ParcelLocation": {
            "type": "object",
            "properties": {
                "address": {
                    "type": "string"
                },
                "chiban": {
                    "type": "string"
                },
                "city_code": {
                    "type": "string"
                },
                "fude_code": {
                    "type": "string"
                },
                "latitude": {
                    "type": "number"
                },
                "level": {
                    "type": "integer"
                },
                "longitude": {
                    "type": "number"
                },
                "status": {
                    "type": "integer"
                }
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
	Title:            "Chiban Geocoder API",
	Description:      "Resolves Japanese land registry parcel notations to cadastral parcel codes.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
