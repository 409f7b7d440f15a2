package middleware

import "net/http"

// SecurityHeaders - middleware защитных HTTP заголовков
//
// Назначение:
// Добавляет ко всем ответам заголовки, ограничивающие поведение браузера:
// запрет определения типа содержимого, запрет встраивания в фреймы,
// ограничение передачи referrer и доступа к сенсорам.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")

		next.ServeHTTP(w, r)
	})
}
