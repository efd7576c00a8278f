package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Dan9191/web-banking/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": msg,
	})
}

func writeTransactions(w http.ResponseWriter, entries []models.Transaction) {
	if entries == nil {
		entries = []models.Transaction{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "transactions": entries})
}
