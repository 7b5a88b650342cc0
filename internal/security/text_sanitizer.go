// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer はプロフィールの自己紹介やキャンペーン説明など、
// ユーザーが入力する自由記述テキストからマークアップを除去する。
// フロントエンドはこれらをプレーンテキストとして表示するため、タグは一切残さない。
package security

import (
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer は自由記述テキストのサニタイズ機能のインターフェース。
type TextSanitizer interface {
	// Sanitize は全てのHTMLタグを除去したプレーンテキストを返す。
	// script, styleなどの要素は内容ごと除去される。前後の空白は取り除く。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string

	// SanitizeURL はhttpまたはhttpsの絶対URLのみを返し、それ以外は空文字列を返す。
	SanitizeURL(raw string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフに共有できる。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// maxSanitizePasses は文字参照の展開とタグ除去を繰り返す上限。
// 多重にエスケープされた入力でもこの回数で収束しなければ空文字列を返す。
const maxSanitizePasses = 8

// Sanitize はタグを除去し、エスケープされた文字参照を元の文字に戻す。
// 展開によって新たなタグが現れるため、出力が変化しなくなるまで繰り返す。
// 保存値はJSONで返すため、HTMLエスケープは表示側に任せる。
func (s *textSanitizer) Sanitize(raw string) string {
	cur := strings.TrimSpace(raw)
	for i := 0; i < maxSanitizePasses; i++ {
		if cur == "" {
			return ""
		}
		next := strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(cur)))
		if next == cur {
			return cur
		}
		cur = next
	}
	return ""
}

// SanitizeURL はhttp(s)の絶対URLのみを許可する。
func (s *textSanitizer) SanitizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.String()
	default:
		return ""
	}
}

// compile-time interface check
var _ TextSanitizer = (*textSanitizer)(nil)
