package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/congbach123/baccon-ecommerce/middleware"
	"github.com/congbach123/baccon-ecommerce/utils"
)

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

// claimsFromRequest pulls the authenticated user's claims out of the
// request context. Returns nil if the auth middleware did not run.
func claimsFromRequest(r *http.Request) *utils.Claims {
	claims, ok := r.Context().Value(middleware.UserContextKey).(*utils.Claims)
	if !ok {
		return nil
	}
	return claims
}
