// Package cleanup は期限切れセッションの定期削除ジョブを提供する。
// 期限切れセッションはセッション解決では既に無効だが、行は残り続けるため
// workerコマンドから一定間隔で削除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/s4mp41xao/orihub/internal/session"
)

// SessionPurger は期限切れセッションを削除するインターフェース。
type SessionPurger interface {
	DeleteExpired(ctx context.Context, before time.Time) (int, error)
}

// PurgeRecorder は削除件数を記録するインターフェース。
type PurgeRecorder interface {
	RecordSessionsPurged(count int)
}

// CleanupJob は期限切れセッションの削除ジョブ。
// 削除は冪等で、対象が無い場合もエラーにならない。
type CleanupJob struct {
	sessions SessionPurger
	logger   *slog.Logger
	recorder PurgeRecorder // nilの場合は記録しない
	clock    session.Clock
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(sessions SessionPurger, logger *slog.Logger, recorder PurgeRecorder, clock session.Clock) *CleanupJob {
	if clock == nil {
		clock = session.SystemClock{}
	}
	return &CleanupJob{
		sessions: sessions,
		logger:   logger,
		recorder: recorder,
		clock:    clock,
	}
}

// Run は現在時刻までに期限切れとなったセッションを削除する。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	deletedCount, err := j.sessions.DeleteExpired(ctx, j.clock.Now())
	if err != nil {
		j.logger.Error("期限切れセッションの削除に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("期限切れセッションの削除に失敗: %w", err)
	}

	if j.recorder != nil {
		j.recorder.RecordSessionsPurged(deletedCount)
	}

	j.logger.Info("セッションクリーンアップジョブが完了しました",
		slog.Int("deleted_count", deletedCount),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

// Start は起動直後に1回実行し、以降intervalごとにRunを実行する。
// ctxがキャンセルされるまでブロックする。個々の失敗はログに記録して継続する。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	if err := j.Run(ctx); err != nil && ctx.Err() == nil {
		j.logger.Warn("cleanup job failed, retrying at next interval", slog.Duration("interval", interval))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			j.logger.Info("cleanup job stopped")
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil && ctx.Err() == nil {
				j.logger.Warn("cleanup job failed, retrying at next interval", slog.Duration("interval", interval))
			}
		}
	}
}
