package middleware

import (
	"net/http"

	"treasury/pkg/utils"
)

// Cookie сессии дашборда. Значение фиксированное: сессия подтверждает
// факт входа, роль хранится отдельной cookie.
const (
	SessionCookieName  = "auth_token"
	SessionCookieValue = "authenticated"

	// DashboardTypeCookie хранит роль вошедшего (admin/team)
	DashboardTypeCookie = "dashboard_type"
)

// Auth - middleware сессионной аутентификации
//
// Назначение:
// Защищает маршруты дашборда: пропускает запрос дальше только при
// наличии валидной сессионной cookie, установленной при входе.
// Запрос без cookie или с чужим значением получает 401 без деталей.
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value != SessionCookieValue {
			utils.L().Debug("unauthenticated request rejected",
				utils.Endpoint(r.URL.Path))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Authentication required"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}
