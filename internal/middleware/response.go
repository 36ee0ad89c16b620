// Package middleware provides HTTP middleware for the AutoDoc API.
package middleware

import (
	"encoding/json"
	"net/http"
)

// Messages shared by the middleware error responses.
const (
	msgUnauthorized = "Sessão expirada. Faça login novamente."
	msgForbidden    = "Você não tem permissão para acessar este recurso."
	msgUnavailable  = "Serviço temporariamente indisponível. Tente novamente."
	msgRateLimited  = "Muitas requisições. Aguarde um momento e tente novamente."
	msgInternal     = "Erro interno. Tente novamente."
	msgTooLarge     = "Requisição muito grande."
	msgUnsupported  = "Envie os dados em formato JSON."
	msgInvalidEmail = "E-mail inválido."
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeError writes the API's JSON error body.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: message, Code: code})
}
