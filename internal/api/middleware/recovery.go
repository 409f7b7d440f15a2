package middleware

import (
	"net/http"
	"runtime/debug"

	"treasury/pkg/utils"
)

// Recovery - middleware восстановления после паники в handlers
//
// Назначение:
// Перехватывает panic в HTTP handlers и предотвращает падение всего
// сервера. Логирует ошибку со stack trace и возвращает клиенту 500
// без деталей паники.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				utils.L().Error("panic in handler",
					utils.Endpoint(r.URL.Path),
					utils.Any("panic", err),
					utils.String("stack", string(debug.Stack())))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"Internal server error"}`))
			}
		}()

		next.ServeHTTP(w, r)
	})
}
