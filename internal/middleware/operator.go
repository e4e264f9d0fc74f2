// Package middleware содержит HTTP middleware сервиса подарочных карт.
package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

type contextKey string

const operatorRefKey contextKey = "operatorRef"

// OperatorTokenHeader — заголовок с подписанным токеном оператора вида "ref.signature".
const OperatorTokenHeader = "X-Operator-Token"

// OperatorMiddleware проверяет подписанный токен оператора. Токен выдаёт
// внешняя система учёта операторов; здесь проверяется только подпись,
// решений об авторизации сервис не принимает — ссылка на оператора
// сохраняется в журнале операций как есть.
type OperatorMiddleware struct {
	secretKey []byte
}

// NewOperatorMiddleware создаёт новый экземпляр OperatorMiddleware с указанным секретным ключом.
func NewOperatorMiddleware(secret string) *OperatorMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &OperatorMiddleware{
		secretKey: key,
	}
}

// Middleware проверяет токен оператора и добавляет ссылку на оператора в контекст запроса.
func (m *OperatorMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(OperatorTokenHeader)
		if token == "" {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		operatorRef, ok := m.parseToken(token)
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), operatorRefKey, operatorRef)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Token подписывает ссылку на оператора и возвращает готовый токен.
func (m *OperatorMiddleware) Token(operatorRef string) string {
	return operatorRef + "." + m.sign(operatorRef)
}

func (m *OperatorMiddleware) sign(operatorRef string) string {
	mac := hmac.New(sha256.New, m.secretKey)
	mac.Write([]byte(operatorRef))
	return hex.EncodeToString(mac.Sum(nil))
}

func (m *OperatorMiddleware) parseToken(token string) (string, bool) {
	// Ссылка на оператора может содержать точки; подпись — после последней.
	idx := strings.LastIndex(token, ".")
	if idx <= 0 {
		return "", false
	}

	operatorRef := token[:idx]
	signature := token[idx+1:]

	if !hmac.Equal([]byte(signature), []byte(m.sign(operatorRef))) {
		return "", false
	}

	return operatorRef, true
}

// GetOperatorRefFromContext извлекает ссылку на оператора из контекста запроса.
func GetOperatorRefFromContext(ctx context.Context) (string, bool) {
	ref, ok := ctx.Value(operatorRefKey).(string)
	return ref, ok
}
