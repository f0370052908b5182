package handlers

import (
	"bytes"
	"html/template"
	"net/http"

	"skyscraper-platform/pkg/logging"
)

var swaggerPage = template.Must(template.New("swagger").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5.10.0/swagger-ui.css">
    <style>
        html { box-sizing: border-box; overflow-y: scroll; }
        body { margin:0; padding:0; }
    </style>
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5.10.0/swagger-ui-bundle.js"></script>
    <script>
        window.onload = function() {
            window.ui = SwaggerUIBundle({
                url: "{{.SpecURL}}",
                dom_id: '#swagger-ui',
                deepLinking: true,
                presets: [SwaggerUIBundle.presets.apis]
            });
        };
    </script>
</body>
</html>`))

// SwaggerUI serves the interactive API documentation page
func (h *RankingHandler) SwaggerUI(w http.ResponseWriter, r *http.Request) {
	var page bytes.Buffer
	err := swaggerPage.Execute(&page, struct {
		Title   string
		SpecURL string
	}{
		Title:   "Skyscraper Ranking API",
		SpecURL: "/api/docs/openapi.json",
	})
	if err != nil {
		h.logger.Error(r.Context(), "[API_DOCS_ERROR] Failed to render documentation page", logging.Fields{}, err)
		h.sendError(w, r, "/api/docs", "failed to render documentation", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/docs", r.Method, "200")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page.Bytes())
}
