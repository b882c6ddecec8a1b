package dashboard

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/webtoonlab/tagnet/internal/api"
	"github.com/webtoonlab/tagnet/internal/interact"
	"github.com/webtoonlab/tagnet/internal/network"
	"github.com/webtoonlab/tagnet/internal/tag"
	"github.com/webtoonlab/tagnet/internal/webtoon"
)

// Network returns the co-occurrence network for q. Without a backend or cached
// payload the network is synthesized from the tag frequencies, and the
// curated sample network is the last resort.
func (s *Service) Network(ctx context.Context, q api.NetworkQuery) Result[*network.Snapshot] {
	key := NetworkKey(q)
	var lastErr error
	if s.live() {
		snap, err := s.backendNetwork(ctx, q)
		if err == nil {
			return Result[*network.Snapshot]{Data: snap, Origin: OriginBackend, FetchedAt: s.now()}
		}
		lastErr = err
		s.logger.Warn("backend network failed", zap.String("key", key), zap.Error(err))
	}

	if snap, at, ok := s.cachedNetwork(q); ok {
		return Result[*network.Snapshot]{Data: snap, Origin: OriginCache, FetchedAt: at, Error: errString(lastErr)}
	}

	return Result[*network.Snapshot]{Data: s.fallbackNetwork(ctx, q), Origin: OriginFallback, Error: errString(lastErr)}
}

func (s *Service) backendNetwork(ctx context.Context, q api.NetworkQuery) (*network.Snapshot, error) {
	payload, err := s.backend.Network(ctx, q)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, fmt.Errorf("%w: empty network payload", api.ErrInvalidResponse)
	}
	s.store(EndpointNetwork, NetworkKey(q), payload, s.now())
	return s.synth.FromBackend(payload.Nodes, payload.Links, q.SelectedTags), nil
}

func (s *Service) cachedNetwork(q api.NetworkQuery) (*network.Snapshot, time.Time, bool) {
	if s.cache == nil {
		return nil, time.Time{}, false
	}
	var payload api.NetworkPayload
	at, err := s.cache.GetJSON(EndpointNetwork, NetworkKey(q), &payload)
	if err != nil {
		return nil, time.Time{}, false
	}
	return s.synth.FromBackend(payload.Nodes, payload.Links, q.SelectedTags), at, true
}

func (s *Service) fallbackNetwork(ctx context.Context, q api.NetworkQuery) *network.Snapshot {
	tags := s.TagAnalysis(ctx)
	if tags.Data != nil {
		if freqs := tag.Rank(tags.Data.TagFrequency); len(freqs) > 0 {
			return s.synth.Synthesize(freqs, q.SelectedTags)
		}
	}
	return webtoon.SampleNetwork().WithSelection(q.SelectedTags)
}

// Fetcher adapts the service to the interaction controller. Only backend and
// cached networks are returned; otherwise the error is passed on so the
// controller applies its own fallback.
func (s *Service) Fetcher() interact.Fetcher {
	return interact.FetcherFunc(func(ctx context.Context, q interact.Query) (*network.Snapshot, error) {
		aq := api.NetworkQuery{SelectedTags: q.SelectedTags, MinCorrelation: q.MinCorrelation, MaxNodes: q.MaxNodes}
		var lastErr error = api.ErrNetworkError
		if s.live() {
			snap, err := s.backendNetwork(ctx, aq)
			if err == nil {
				return snap, nil
			}
			lastErr = err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if snap, _, ok := s.cachedNetwork(aq); ok {
			return snap, nil
		}
		return nil, lastErr
	})
}

// Overview bundles the dashboard landing view.
type Overview struct {
	Stats    Result[*webtoon.Stats]        `json:"stats"`
	Tags     Result[*webtoon.TagAnalysis]  `json:"tags"`
	Heatmap  Result[[]webtoon.HeatmapCell] `json:"heatmap"`
	Webtoons Result[[]webtoon.Webtoon]     `json:"webtoons"`
	Degraded bool                          `json:"degraded"`
}

// Overview loads the landing view concurrently. Degraded is set when any part
// did not come from the backend.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	var out Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out.Stats = s.Stats(gctx)
		return nil
	})
	g.Go(func() error {
		out.Tags = s.TagAnalysis(gctx)
		return nil
	})
	g.Go(func() error {
		out.Heatmap = s.Heatmap(gctx)
		return nil
	})
	g.Go(func() error {
		out.Webtoons = s.Webtoons(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out.Degraded = out.Stats.Degraded() || out.Tags.Degraded() || out.Heatmap.Degraded() || out.Webtoons.Degraded()
	return &out, nil
}
