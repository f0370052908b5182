package handlers

import (
	"encoding/json"
	"net/http"
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the skyscraper ranking API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Skyscraper Ranking API",
			"description": "City, country, region and world rankings computed from scraped skyscraper records",
			"version":     "1.0.0",
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/cities": map[string]interface{}{
				"get": operation("List cities",
					"Merged cities best rated first, optionally narrowed by region (name or code) and country",
					"CityList",
					queryParam("region", "Region display name or code"),
					queryParam("country", "Country name"),
				),
			},
			"/api/cities/{name}": map[string]interface{}{
				"get": operation("Get a city",
					"One city with its sub-cities merged in, including its towers",
					"City",
					pathParam("name", "City name"),
				),
			},
			"/api/countries/{name}": map[string]interface{}{
				"get": operation("Get a country",
					"Country rating as the sum of its city ratings",
					"Country",
					pathParam("name", "Country name"),
				),
			},
			"/api/regions/{name}": map[string]interface{}{
				"get": operation("Get a region",
					"Region with its countries best rated first",
					"Region",
					pathParam("name", "Region display name or code"),
				),
			},
			"/api/world": map[string]interface{}{
				"get": operation("Get the world ranking",
					"Every region best rated first, plus cities outside any region",
					"World",
				),
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Check if the API and its document store are reachable",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "API is healthy"},
						"503": map[string]interface{}{"description": "Document store unavailable"},
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Prometheus metrics in text format",
							"content": map[string]interface{}{
								"text/plain": map[string]interface{}{
									"schema": map[string]string{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
		"components": map[string]interface{}{
			"schemas": schemas(),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}

func operation(summary, description, schema string, params ...map[string]interface{}) map[string]interface{} {
	op := map[string]interface{}{
		"summary":     summary,
		"description": description,
		"responses": map[string]interface{}{
			"200": map[string]interface{}{
				"description": "Successful response",
				"content": map[string]interface{}{
					"application/json": map[string]interface{}{
						"schema": ref(schema),
					},
				},
			},
			"404": errorResponse("Unknown city, country or region, or a filter matching no city"),
			"422": errorResponse("Stored towers cannot be tiered"),
			"500": errorResponse("Internal error"),
		},
	}
	if len(params) > 0 {
		op["parameters"] = params
	}
	return op
}

func queryParam(name, description string) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"in":          "query",
		"description": description,
		"required":    false,
		"schema":      map[string]string{"type": "string"},
	}
}

func pathParam(name, description string) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"in":          "path",
		"description": description,
		"required":    true,
		"schema":      map[string]string{"type": "string"},
	}
}

func errorResponse(description string) map[string]interface{} {
	return map[string]interface{}{
		"description": description,
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{
				"schema": ref("Error"),
			},
		},
	}
}

func ref(name string) map[string]string {
	return map[string]string{"$ref": "#/components/schemas/" + name}
}

func arrayOf(name string) map[string]interface{} {
	return map[string]interface{}{"type": "array", "items": ref(name)}
}

func schemas() map[string]interface{} {
	integer := map[string]string{"type": "integer"}
	str := map[string]string{"type": "string"}
	nullableString := map[string]interface{}{"type": "string", "nullable": true}

	summary := map[string]interface{}{
		"rating":              integer,
		"uncompleted_rating":  integer,
		"uncompleted_percent": map[string]string{"type": "number"},
		"has_uncompleted":     map[string]string{"type": "boolean"},
		"tower_count":         integer,
		"completed":           integer,
		"arch_topped_out":     integer,
		"struct_topped_out":   integer,
		"under_construction":  integer,
	}
	with := func(extra map[string]interface{}) map[string]interface{} {
		props := make(map[string]interface{}, len(summary)+len(extra))
		for k, v := range summary {
			props[k] = v
		}
		for k, v := range extra {
			props[k] = v
		}
		return map[string]interface{}{"type": "object", "properties": props}
	}

	return map[string]interface{}{
		"Error": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"error":   str,
				"message": str,
				"code":    integer,
			},
		},
		"Tower": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"name":           str,
				"height":         map[string]interface{}{"type": "number", "nullable": true},
				"floors":         map[string]interface{}{"type": "integer", "nullable": true},
				"status":         nullableString,
				"start":          map[string]interface{}{"type": "integer", "nullable": true},
				"completed_year": map[string]interface{}{"type": "integer", "nullable": true},
				"rank":           map[string]interface{}{"type": "integer", "nullable": true},
			},
		},
		"City": with(map[string]interface{}{
			"name":      str,
			"country":   str,
			"region":    nullableString,
			"timestamp": str,
			"subcities": map[string]interface{}{"type": "array", "items": str},
			"tiers":     map[string]interface{}{"type": "object", "additionalProperties": integer},
			"towers":    arrayOf("Tower"),
		}),
		"CityList": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"data":  arrayOf("City"),
				"total": integer,
			},
		},
		"Country": with(map[string]interface{}{
			"name":       str,
			"region":     nullableString,
			"city_count": integer,
			"cities":     arrayOf("City"),
		}),
		"Region": with(map[string]interface{}{
			"name":       str,
			"code":       str,
			"city_count": integer,
			"countries":  arrayOf("Country"),
		}),
		"World": with(map[string]interface{}{
			"city_count": integer,
			"regions":    arrayOf("Region"),
			"unregioned": arrayOf("City"),
		}),
	}
}
