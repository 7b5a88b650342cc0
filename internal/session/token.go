package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
)

const (
	// TokenCookieName はセッショントークンを保持するCookieの名前。
	TokenCookieName = "session_token"

	// DataCookieName は署名済みセッション情報（短期キャッシュ）を保持するCookieの名前。
	DataCookieName = "session_data"
)

// ExtractToken はリクエストからセッショントークンを取り出す。
// 正しい形式の Authorization: Bearer ヘッダーがあればCookieより優先する。
// Cookieを送れないクロスオリジン呼び出しのため。どちらも無い場合は空文字列を返す。
func ExtractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			if token = strings.TrimSpace(token); token != "" {
				return token
			}
		}
	}

	if c, err := r.Cookie(TokenCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	return ""
}

// GenerateToken は暗号的に安全なランダムなセッショントークンを生成する。
// 32バイトの乱数を16進数文字列に変換して返す。
func GenerateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashToken はトークンのSHA-256ハッシュを16進数で返す。
// 外部ストアのキーや署名Cookieにはトークン本体ではなくハッシュを使う。
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
