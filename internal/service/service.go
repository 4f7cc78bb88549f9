// Package service holds the business rules of devlog.
//
//	Handler (HTTP) → Service (rules, ownership, logging) → Repository (SQL)
//
// Services take the caller's user id explicitly and know nothing about HTTP.
// They return apperror kinds; the handler layer picks the status code.
package service

import (
	"errors"
	"log/slog"

	"github.com/sakif/devlog/internal/apperror"
)

// logFailure logs err unless it is an expected outcome such as a missing
// record or a rejected input.
func logFailure(logger *slog.Logger, msg string, err error, attrs ...any) {
	if errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrValidation) {
		return
	}
	logger.Error(msg, append(attrs, slog.String("error", err.Error()))...)
}
