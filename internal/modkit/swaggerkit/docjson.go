package swaggerkit

import (
	_ "embed"
	"encoding/json"
	"net/http"
)

//go:embed openapi.json
var openapiDoc []byte

var docReader = func() []byte { return openapiDoc }

// renderDoc fills in the server root and appends suffix to info.title
func renderDoc(raw []byte, suffix string) ([]byte, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if _, ok := doc["servers"]; !ok {
		doc["servers"] = []any{map[string]any{"url": "/api/v1"}}
	}
	if info, ok := doc["info"].(map[string]any); ok && suffix != "" {
		if title, ok := info["title"].(string); ok {
			info["title"] = title + " " + suffix
		}
	}
	return json.Marshal(doc)
}

func serveDocJSON(suffix string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		body, err := renderDoc(docReader(), suffix)
		if err != nil {
			http.Error(w, "openapi document is not valid JSON", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(body)
	}
}
