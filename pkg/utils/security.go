package utils

import "strings"

// MaskAPIKey маскирует API ключ для безопасного логирования.
// Ключи длиной до 8 символов скрываются полностью, у остальных
// остаются видны первые 4 символа и 4 символа перед последней
// четвёркой; сам хвост ключа не раскрывается.
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-8:len(key)-4]
}

// SanitizeErrorMessage приводит ошибку к безопасному для пользователя
// сообщению. Тексты ошибок биржи, упоминающие API ключ или секрет,
// заменяются на общие формулировки, чтобы фрагменты credentials не
// утекали в ответы и журналы.
func SanitizeErrorMessage(err error) string {
	if err == nil {
		return "An unknown error occurred"
	}

	message := err.Error()
	if strings.Contains(message, "API-key") || strings.Contains(message, "API key") {
		return "Authentication failed. Please check your API credentials."
	}
	if strings.Contains(message, "secret") {
		return "Authentication error. Please verify your configuration."
	}
	return message
}
