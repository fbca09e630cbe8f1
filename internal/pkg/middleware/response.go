package middleware

import (
	"encoding/json"
	"net/http"

	"gousers/internal/domain"
	apperror "gousers/internal/errors"
)

// WriteError escreve o corpo padronizado {"code","category","message"}.
func WriteError(w http.ResponseWriter, err error) {
	status, category, message := apperror.MapToHTTPStatus(err)
	WriteErrorBody(w, status, category, message)
}

// WriteErrorBody escreve o mesmo corpo para erros que não vêm de um AppError (429, 405).
func WriteErrorBody(w http.ResponseWriter, status int, category, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
	})
}
