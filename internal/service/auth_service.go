package service

import (
	"treasury/internal/config"
	"treasury/pkg/crypto"
	"treasury/pkg/utils"
)

// Роли дашборда
const (
	RoleAdmin = "admin"
	RoleTeam  = "team"
)

// Маршруты дашбордов по ролям
const (
	RouteAdminDashboard = "/dashboard"
	RouteTeamDashboard  = "/team-dashboard"
)

// PasswordCheck - результат проверки пароля дашборда
type PasswordCheck struct {
	Valid bool
	Route string
	Role  string
}

// AuthService проверяет пароли дашборда и сопоставляет их ролям.
// Поддерживаются две роли: admin (основной дашборд) и team (урезанный).
type AuthService struct {
	adminPassword string
	teamPassword  string
	logger        *utils.Logger
}

// NewAuthService создаёт сервис аутентификации
func NewAuthService(cfg config.SecurityConfig, logger *utils.Logger) *AuthService {
	if logger == nil {
		logger = utils.L()
	}
	if cfg.DashboardPassword == "" && cfg.TeamPassword == "" {
		logger.Warn("no dashboard passwords configured, any password will be accepted")
	}
	return &AuthService{
		adminPassword: cfg.DashboardPassword,
		teamPassword:  cfg.TeamPassword,
		logger:        logger.WithComponent("auth"),
	}
}

// ValidatePassword сопоставляет введённый пароль с настроенными.
// Значения в конфигурации могут быть открытым текстом или bcrypt хешем;
// сравнение в обоих случаях устойчиво к timing-атакам.
//
// Если ни один пароль не настроен, любой вход допускается с ролью admin -
// поведение для локальной разработки, о котором сервис предупреждает
// при старте.
func (s *AuthService) ValidatePassword(provided string) PasswordCheck {
	if s.adminPassword == "" && s.teamPassword == "" {
		return PasswordCheck{Valid: true, Route: RouteAdminDashboard, Role: RoleAdmin}
	}

	if crypto.VerifyPassword(s.adminPassword, provided) {
		return PasswordCheck{Valid: true, Route: RouteAdminDashboard, Role: RoleAdmin}
	}

	if crypto.VerifyPassword(s.teamPassword, provided) {
		return PasswordCheck{Valid: true, Route: RouteTeamDashboard, Role: RoleTeam}
	}

	return PasswordCheck{Valid: false}
}
