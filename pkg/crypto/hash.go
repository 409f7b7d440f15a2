package crypto

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordLength - максимальная длина пароля для bcrypt (72 байта)
const MaxPasswordLength = 72

// DefaultCost - стоимость хеширования по умолчанию (рекомендуемое значение)
const DefaultCost = 12

// HashPassword хеширует пароль дашборда с использованием bcrypt.
// Используется утилитами деплоя для генерации значений DASHBOARD_PASSWORD
// в захешированном виде.
func HashPassword(password string) (string, error) {
	if len(password) > MaxPasswordLength {
		password = password[:MaxPasswordLength]
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// isBcryptHash определяет, выглядит ли сохранённое значение как bcrypt хеш
func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// VerifyPassword сравнивает введённый пароль с сохранённым значением.
//
// Сохранённое значение может быть либо bcrypt хешем (рекомендуется для
// production), либо паролем открытым текстом (для локальной разработки).
// В обоих случаях сравнение устойчиво к timing-атакам: bcrypt по
// построению, открытый текст - через subtle.ConstantTimeCompare.
//
// Пустое сохранённое значение никогда не совпадает.
func VerifyPassword(stored, provided string) bool {
	if stored == "" {
		return false
	}

	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(provided)) == nil
	}

	return subtle.ConstantTimeCompare([]byte(stored), []byte(provided)) == 1
}
