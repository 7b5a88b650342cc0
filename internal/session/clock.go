package session

import "time"

// Clock は現在時刻を提供する。テストでは固定・手動進行の実装を注入する。
type Clock interface {
	Now() time.Time
}

// SystemClock はtime.Nowを返すClock。
type SystemClock struct{}

// Now は現在時刻を返す。
func (SystemClock) Now() time.Time { return time.Now() }
