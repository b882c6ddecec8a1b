// Package dashboard serves the analytics views. Every read prefers the
// backend, then the local cache, then data derived from the built-in samples,
// so a view is never left empty.
package dashboard

import (
	"context"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/webtoonlab/tagnet/internal/api"
	"github.com/webtoonlab/tagnet/internal/network"
	"github.com/webtoonlab/tagnet/internal/stats"
	"github.com/webtoonlab/tagnet/internal/storage"
	"github.com/webtoonlab/tagnet/internal/webtoon"
)

// Backend is the analytics API. *api.Client implements it.
type Backend interface {
	Webtoons(ctx context.Context) ([]webtoon.Webtoon, error)
	TagAnalysis(ctx context.Context) (*webtoon.TagAnalysis, error)
	Heatmap(ctx context.Context) ([]webtoon.HeatmapCell, error)
	Stats(ctx context.Context) (*webtoon.Stats, error)
	EnhancedRecommendations(ctx context.Context, req api.RecommendationRequest) ([]webtoon.Recommendation, error)
	TFIDF(ctx context.Context) (*webtoon.TFIDFAnalysis, error)
	SummaryKeywords(ctx context.Context, text string, maxKeywords int) (*webtoon.SummaryKeywords, error)
	Similarity(ctx context.Context, title1, title2 string) (*webtoon.Similarity, error)
	Network(ctx context.Context, q api.NetworkQuery) (*api.NetworkPayload, error)
	Health(ctx context.Context) (*webtoon.Health, error)
}

// Cache stores successful payloads. *storage.DB implements it.
type Cache interface {
	PutJSON(endpoint, key string, v any, fetchedAt time.Time) error
	GetJSON(endpoint, key string, v any) (time.Time, error)
}

// Origin says where a result came from.
type Origin string

const (
	OriginBackend  Origin = "backend"
	OriginCache    Origin = "cache"
	OriginFallback Origin = "fallback"
)

// Result carries data with its provenance.
type Result[T any] struct {
	Data      T         `json:"data"`
	Origin    Origin    `json:"origin"`
	FetchedAt time.Time `json:"fetched_at,omitzero"`
	Error     string    `json:"error,omitempty"`
}

// Degraded reports whether the data did not come live from the backend.
func (r Result[T]) Degraded() bool {
	return r.Origin != OriginBackend
}

// Service reads dashboard data with fallbacks.
type Service struct {
	backend Backend
	cache   Cache
	synth   *network.Synthesizer
	logger  *zap.Logger
	now     func() time.Time
	rng     *rand.Rand
	offline bool
}

// Option configures a Service.
type Option func(*Service)

// WithCache sets the payload cache.
func WithCache(c Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithSynthesizer sets the synthesizer used when no network payload is
// available.
func WithSynthesizer(syn *network.Synthesizer) Option {
	return func(s *Service) {
		if syn != nil {
			s.synth = syn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithOffline skips the backend entirely.
func WithOffline(offline bool) Option {
	return func(s *Service) {
		s.offline = offline
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSeed seeds the fallback recommendation scores.
func WithSeed(seed uint64) Option {
	return func(s *Service) {
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// New creates a Service. A nil backend behaves as if offline.
func New(backend Backend, opts ...Option) *Service {
	s := &Service{
		backend: backend,
		synth:   network.NewSynthesizer(),
		logger:  zap.NewNop(),
		now:     time.Now,
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Endpoint names used as cache keys.
const (
	EndpointWebtoons        = "/api/webtoons"
	EndpointTags            = "/api/analysis/tags"
	EndpointHeatmap         = "/api/analysis/heatmap"
	EndpointStats           = "/api/stats"
	EndpointRecommendations = "/api/recommendations/enhanced"
	EndpointTFIDF           = "/api/analysis/tfidf"
	EndpointKeywords        = "/api/analysis/summary-keywords"
	EndpointSimilarity      = "/api/analysis/similarity"
	EndpointNetwork         = "/api/analysis/network"
	EndpointHealth          = "/health"
)

func (s *Service) live() bool {
	return !s.offline && s.backend != nil
}

// fetch tries the backend, then the cache, then fallback.
func fetch[T any](ctx context.Context, s *Service, endpoint, key string, call func(context.Context) (T, error), fallback func() T) Result[T] {
	var lastErr error
	if s.live() {
		v, err := call(ctx)
		if err == nil {
			at := s.now()
			s.store(endpoint, key, v, at)
			return Result[T]{Data: v, Origin: OriginBackend, FetchedAt: at}
		}
		lastErr = err
		s.logger.Warn("backend read failed",
			zap.String("endpoint", endpoint), zap.String("key", key), zap.Error(err))
	}

	if s.cache != nil {
		var v T
		at, err := s.cache.GetJSON(endpoint, key, &v)
		if err == nil {
			return Result[T]{Data: v, Origin: OriginCache, FetchedAt: at, Error: errString(lastErr)}
		}
		s.logger.Debug("cache miss", zap.String("endpoint", endpoint), zap.String("key", key), zap.Error(err))
	}

	return Result[T]{Data: fallback(), Origin: OriginFallback, Error: errString(lastErr)}
}

func (s *Service) store(endpoint, key string, v any, at time.Time) {
	if s.cache == nil {
		return
	}
	if err := s.cache.PutJSON(endpoint, key, v, at); err != nil {
		s.logger.Warn("caching payload failed", zap.String("endpoint", endpoint), zap.Error(err))
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Webtoons lists the titles.
func (s *Service) Webtoons(ctx context.Context) Result[[]webtoon.Webtoon] {
	return fetch(ctx, s, EndpointWebtoons, "", s.backendWebtoons, webtoon.SampleWebtoons)
}

func (s *Service) backendWebtoons(ctx context.Context) ([]webtoon.Webtoon, error) {
	return s.backend.Webtoons(ctx)
}

// TagAnalysis returns ranked tag frequencies.
func (s *Service) TagAnalysis(ctx context.Context) Result[*webtoon.TagAnalysis] {
	return fetch(ctx, s, EndpointTags, "", func(ctx context.Context) (*webtoon.TagAnalysis, error) {
		return s.backend.TagAnalysis(ctx)
	}, func() *webtoon.TagAnalysis {
		a := webtoon.SampleTagAnalysis()
		return &a
	})
}

// Heatmap returns genre by demographic counts. The fallback is computed from
// the cached title list, or the sample titles.
func (s *Service) Heatmap(ctx context.Context) Result[[]webtoon.HeatmapCell] {
	return fetch(ctx, s, EndpointHeatmap, "", func(ctx context.Context) ([]webtoon.HeatmapCell, error) {
		return s.backend.Heatmap(ctx)
	}, func() []webtoon.HeatmapCell {
		ws, _ := s.fallbackWebtoons()
		return stats.HeatmapCells(ws)
	})
}

// Stats returns the headline numbers. Without a backend they are computed
// from the cached title list when there is one.
func (s *Service) Stats(ctx context.Context) Result[*webtoon.Stats] {
	return fetch(ctx, s, EndpointStats, "", func(ctx context.Context) (*webtoon.Stats, error) {
		return s.backend.Stats(ctx)
	}, func() *webtoon.Stats {
		if ws, cached := s.fallbackWebtoons(); cached {
			st := stats.Display(ws)
			return &st
		}
		st := webtoon.SampleStats()
		return &st
	})
}

// fallbackWebtoons returns the cached title list, or the samples. The flag
// reports whether the list came from the cache.
func (s *Service) fallbackWebtoons() ([]webtoon.Webtoon, bool) {
	if s.cache != nil {
		var ws []webtoon.Webtoon
		if _, err := s.cache.GetJSON(EndpointWebtoons, "", &ws); err == nil && len(ws) > 0 {
			return ws, true
		}
	}
	return webtoon.SampleWebtoons(), false
}

// Recommendations returns titles similar to title.
func (s *Service) Recommendations(ctx context.Context, req api.RecommendationRequest) Result[[]webtoon.Recommendation] {
	key := storage.CacheKey(req.Title, strconv.Itoa(req.Limit), strconv.FormatBool(req.UseTFIDF),
		strconv.FormatFloat(req.TFIDFWeight, 'f', -1, 64))
	return fetch(ctx, s, EndpointRecommendations, key, func(ctx context.Context) ([]webtoon.Recommendation, error) {
		return s.backend.EnhancedRecommendations(ctx, req)
	}, func() []webtoon.Recommendation {
		limit := req.Limit
		if limit <= 0 {
			limit = 3
		}
		return webtoon.FallbackRecommendations(req.Title, limit, s.rng)
	})
}

// TFIDF returns the keyword analysis.
func (s *Service) TFIDF(ctx context.Context) Result[*webtoon.TFIDFAnalysis] {
	return fetch(ctx, s, EndpointTFIDF, "", func(ctx context.Context) (*webtoon.TFIDFAnalysis, error) {
		return s.backend.TFIDF(ctx)
	}, func() *webtoon.TFIDFAnalysis {
		a := webtoon.SampleTFIDF()
		return &a
	})
}

// Keywords extracts keywords from text. Without a backend the result is
// empty.
func (s *Service) Keywords(ctx context.Context, text string, maxKeywords int) Result[*webtoon.SummaryKeywords] {
	key := storage.CacheKey(strconv.Itoa(maxKeywords), text)
	return fetch(ctx, s, EndpointKeywords, key, func(ctx context.Context) (*webtoon.SummaryKeywords, error) {
		return s.backend.SummaryKeywords(ctx, text, maxKeywords)
	}, func() *webtoon.SummaryKeywords {
		return &webtoon.SummaryKeywords{Keywords: []webtoon.Keyword{}, Text: text}
	})
}

// Similarity compares two titles. The fallback uses tag overlap of the
// sample titles.
func (s *Service) Similarity(ctx context.Context, title1, title2 string) Result[*webtoon.Similarity] {
	return fetch(ctx, s, EndpointSimilarity, storage.CacheKey(title1, title2), func(ctx context.Context) (*webtoon.Similarity, error) {
		return s.backend.Similarity(ctx, title1, title2)
	}, func() *webtoon.Similarity {
		sim, ok := webtoon.LocalSimilarity(title1, title2)
		if !ok {
			sim = webtoon.Similarity{Title1: title1, Title2: title2}
		}
		return &sim
	})
}

// Health reports backend health. It never reads the cache.
func (s *Service) Health(ctx context.Context) Result[*webtoon.Health] {
	if !s.live() {
		return Result[*webtoon.Health]{Data: &webtoon.Health{Status: "offline"}, Origin: OriginFallback}
	}
	h, err := s.backend.Health(ctx)
	if err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		return Result[*webtoon.Health]{Data: &webtoon.Health{Status: "error"}, Origin: OriginFallback, Error: err.Error()}
	}
	return Result[*webtoon.Health]{Data: h, Origin: OriginBackend, FetchedAt: s.now()}
}

// NetworkKey is the cache key of a network query.
func NetworkKey(q api.NetworkQuery) string {
	return storage.CacheKey(strings.Join(q.SelectedTags, ","),
		strconv.FormatFloat(q.MinCorrelation, 'f', -1, 64), strconv.Itoa(q.MaxNodes))
}
