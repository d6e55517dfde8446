package handler

import (
	"net/http"

	"github.com/hackfolio/hackfolio/internal/openapi"
)

// OpenAPIHandler serves the OpenAPI 3.1 description of the HTTP API.
type OpenAPIHandler struct {
	baseURL string
	version string
}

// NewOpenAPIHandler creates a new OpenAPIHandler. An empty baseURL makes the
// document's server entry follow the request's scheme and host.
func NewOpenAPIHandler(baseURL, version string) *OpenAPIHandler {
	return &OpenAPIHandler{baseURL: baseURL, version: version}
}

// ServeSpec returns the OpenAPI document.
// GET /openapi.json
func (h *OpenAPIHandler) ServeSpec(w http.ResponseWriter, r *http.Request) {
	base := h.baseURL
	if base == "" {
		base = requestBaseURL(r)
	}
	writeJSON(w, http.StatusOK, openapi.Generate(base, h.version))
}
