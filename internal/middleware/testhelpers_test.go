package middleware

import (
	"net/http"
	"time"

	"github.com/s4mp41xao/orihub/internal/model"
)

// --- モック定義 ---

type mockResolver struct {
	resolveFn func(r *http.Request) *model.Identity
	calls     int
}

func (m *mockResolver) Resolve(r *http.Request) *model.Identity {
	m.calls++
	if m.resolveFn != nil {
		return m.resolveFn(r)
	}
	return nil
}

type mockRecorder struct {
	denials   []string
	statuses  []int
	latencies int
}

func (m *mockRecorder) RecordGateDenial(reason string) {
	m.denials = append(m.denials, reason)
}

func (m *mockRecorder) RecordHTTPStatus(statusCode int) {
	m.statuses = append(m.statuses, statusCode)
}

func (m *mockRecorder) RecordRequestLatency(method string, duration time.Duration) {
	m.latencies++
}

var (
	brandIdentity = &model.Identity{ID: "brand-1", Email: "brand@example.com", Name: "Brand", Role: model.RoleBrand}
	oriIdentity   = &model.Identity{ID: "ori-1", Email: "ori@example.com", Name: "ORI", Role: model.RoleORI}
)

// okHandler は200を返すハンドラー。
var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})
