// Package session はリクエストごとの認証済みユーザーの解決を提供する。
//
// Resolverはキャッシュを確認した後、登録された解決手段（Strategy）を順番に試し、
// 最初に成功したものを採用する。どの手段でも解決できない場合や障害が起きた場合も
// リクエストを拒否せず、未認証として後続に委ねる。拒否の判断はロールゲートで行う。
package session

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/s4mp41xao/orihub/internal/model"
)

// 解決元を表すラベル
const (
	SourceCache = "cache"
	SourceNone  = "none"
)

// Recorder は解決結果を記録するインターフェース。
type Recorder interface {
	RecordSessionResolution(source string)
}

// Resolver はセッショントークンからIdentityを解決する。
type Resolver struct {
	cache      Cache
	strategies []Strategy
	logger     *slog.Logger
	recorder   Recorder
}

// NewResolver はResolverを生成する。strategiesは指定順に試行される。
// recorderはnilでもよい。
func NewResolver(cache Cache, logger *slog.Logger, recorder Recorder, strategies ...Strategy) *Resolver {
	return &Resolver{
		cache:      cache,
		strategies: strategies,
		logger:     logger,
		recorder:   recorder,
	}
}

// Resolve はリクエストの認証済みIdentityを返す。解決できない場合はnilを返す。
func (res *Resolver) Resolve(r *http.Request) *model.Identity {
	ctx := r.Context()

	token := ExtractToken(r)
	if token == "" {
		res.record(SourceNone)
		return nil
	}

	// 1. キャッシュ
	if identity, ok := res.cache.Get(ctx, token); ok {
		res.record(SourceCache)
		return identity
	}

	// 2. 登録順に解決手段を試行
	for _, s := range res.strategies {
		identity, err := s.Resolve(ctx, r, token)
		if err != nil {
			// 障害は未認証として扱い、次の手段に進む
			res.logger.Warn("session resolution strategy failed",
				slog.String("strategy", s.Name()),
				slog.String("error", err.Error()),
			)
			continue
		}
		if identity == nil {
			continue
		}

		res.cache.Put(ctx, token, identity)
		res.record(s.Name())
		return identity
	}

	res.record(SourceNone)
	return nil
}

// Evict はトークンのキャッシュエントリを削除する。サインアウト時に使う。
func (res *Resolver) Evict(ctx context.Context, token string) {
	if token == "" {
		return
	}
	res.cache.Delete(ctx, token)
}

func (res *Resolver) record(source string) {
	if res.recorder != nil {
		res.recorder.RecordSessionResolution(source)
	}
}
