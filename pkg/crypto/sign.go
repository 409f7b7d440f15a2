package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign вычисляет HMAC-SHA256 подпись для строки запроса к API биржи.
//
// Детерминированная чистая функция: одинаковые (secret, payload) всегда
// дают одинаковый hex-дайджест в нижнем регистре. Биржа проверяет подпись
// по точной строке запроса, поэтому payload должен байт-в-байт совпадать
// с тем, что уходит в запрос (порядок параметров, кодирование).
func Sign(secret, payload string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}
