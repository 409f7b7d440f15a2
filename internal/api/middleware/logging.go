package middleware

import (
	"net/http"
	"time"

	"treasury/pkg/utils"
)

// responseWriter перехватывает статус код и размер ответа
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Logging - middleware структурированного логирования HTTP запросов
//
// Назначение:
// Логирует каждый запрос: метод, путь, статус, длительность, IP клиента
// и размер ответа. Тела запросов не логируются: они могут содержать
// пароли и ключи действия.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		elapsed := float64(time.Since(start).Nanoseconds()) / 1e6

		utils.L().Info("http request",
			utils.String("method", r.Method),
			utils.String("path", r.URL.Path),
			utils.Int("status", wrapped.statusCode),
			utils.Latency(elapsed),
			utils.ClientIP(r.RemoteAddr),
			utils.Int64("bytes", wrapped.written))
	})
}
