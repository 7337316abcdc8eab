// Package middleware contém os middlewares HTTP da API
package middleware

import "net/http"

// Headers CORS aceitos pelo endpoint de cobrança
const (
	AllowOrigin  = "*"
	AllowHeaders = "authorization, x-client-info, apikey, content-type"
	AllowMethods = "GET, POST, PUT, DELETE, OPTIONS"
)

// CORS adiciona os headers CORS em toda resposta e responde OPTIONS imediatamente
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", AllowOrigin)
		h.Set("Access-Control-Allow-Headers", AllowHeaders)
		h.Set("Access-Control-Allow-Methods", AllowMethods)

		// Responder imediatamente para OPTIONS
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
