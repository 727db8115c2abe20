package handlers

import (
	"net/http"
)

// Health provides a minimal liveness check endpoint. It is also served on
// the root path.
func Health(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
