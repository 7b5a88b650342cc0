// Package pgtest はPostgreSQLを必要とするテスト向けの接続先を提供する。
//
// TEST_DATABASE_URL が設定されていればそれを使用し、未設定の場合は
// testcontainers でPostgreSQLコンテナを起動する。どちらも利用できない環境では
// テストをスキップする。
package pgtest

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	once      sync.Once
	sharedDSN string
	startErr  error
)

// DSN はテスト用データベースの接続URLを返す。
// 接続できない場合はt.Skipfでテストをスキップする。
func DSN(t *testing.T) string {
	t.Helper()

	once.Do(func() {
		if url := os.Getenv("TEST_DATABASE_URL"); url != "" {
			sharedDSN = url
			return
		}
		sharedDSN, startErr = startContainer()
	})

	if startErr != nil {
		t.Skipf("テスト用データベースを起動できません（スキップ）: %v", startErr)
	}

	db, err := sql.Open("postgres", sharedDSN)
	if err != nil {
		t.Skipf("テスト用データベースに接続できません（スキップ）: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		t.Skipf("テスト用データベースに接続できません（スキップ）: %v", err)
	}

	return sharedDSN
}

// startContainer はPostgreSQL 16コンテナを起動して接続URLを返す。
// コンテナはプロセス終了時にtestcontainersのreaperが破棄する。
func startContainer() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	c, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("orihub_test"),
		postgres.WithUsername("orihub"),
		postgres.WithPassword("orihub"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return "", err
	}

	dsn, err := c.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = c.Terminate(context.Background())
		return "", err
	}
	return dsn, nil
}
