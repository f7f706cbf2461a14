// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"strings"
	"time"

	"github.com/pdiddy/paper-library/pkg/types"
)

// RecordViewedLink adds url to the viewed set. Recording a url twice is a
// no-op; blank urls are ignored.
func (s *Store) RecordViewedLink(ctx context.Context, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil
	}

	release, err := acquire(ctx, s.viewed)
	if err != nil {
		return err
	}
	defer release()

	var links []string
	if _, err := s.load(ctx, keyViewed, &links); err != nil {
		return err
	}
	for _, l := range links {
		if l == url {
			return nil
		}
	}
	links = append(links, url)
	if err := s.save(ctx, keyViewed, links); err != nil {
		return err
	}
	return s.touch(ctx)
}

// IsViewed reports whether url was recorded as viewed.
func (s *Store) IsViewed(ctx context.Context, url string) (bool, error) {
	links, err := s.ViewedLinks(ctx)
	if err != nil {
		return false, err
	}
	url = strings.TrimSpace(url)
	for _, l := range links {
		if l == url {
			return true, nil
		}
	}
	return false, nil
}

// ViewedLinks returns the viewed set in recording order.
func (s *Store) ViewedLinks(ctx context.Context) ([]string, error) {
	release, err := acquire(ctx, s.viewed)
	if err != nil {
		return nil, err
	}
	defer release()

	links := []string{}
	if _, err := s.load(ctx, keyViewed, &links); err != nil {
		return nil, err
	}
	return links, nil
}

// CacheRelatedWork replaces the related-work cache with papers stamped
// with the current time.
func (s *Store) CacheRelatedWork(ctx context.Context, papers []types.RelatedPaper) error {
	if papers == nil {
		papers = []types.RelatedPaper{}
	}

	release, err := acquire(ctx, s.related)
	if err != nil {
		return err
	}
	defer release()

	snapshot := types.RelatedWorkCache{Papers: papers, FetchedAt: s.now().UTC()}
	if err := s.save(ctx, keyRelated, snapshot); err != nil {
		return err
	}
	return s.touch(ctx)
}

// GetRelatedWorkCache returns the cached papers when the cache exists and
// is younger than maxAge. A maxAge of zero always reports the cache stale.
func (s *Store) GetRelatedWorkCache(ctx context.Context, maxAge time.Duration) ([]types.RelatedPaper, error) {
	snapshot, ok, err := s.RelatedWorkSnapshot(ctx)
	if err != nil || !ok {
		return []types.RelatedPaper{}, err
	}
	if s.now().Sub(snapshot.FetchedAt) >= maxAge {
		return []types.RelatedPaper{}, nil
	}
	return snapshot.Papers, nil
}

// RelatedWorkSnapshot returns the cache regardless of age and whether one
// exists. Papers whose URL was recorded as viewed after the cache was
// written are left out.
func (s *Store) RelatedWorkSnapshot(ctx context.Context) (types.RelatedWorkCache, bool, error) {
	release, err := acquire(ctx, s.viewed, s.related)
	if err != nil {
		return types.RelatedWorkCache{}, false, err
	}
	defer release()

	var snapshot types.RelatedWorkCache
	ok, err := s.load(ctx, keyRelated, &snapshot)
	if err != nil || !ok {
		return types.RelatedWorkCache{}, false, err
	}

	var links []string
	if _, err := s.load(ctx, keyViewed, &links); err != nil {
		return types.RelatedWorkCache{}, false, err
	}
	snapshot.Papers = withoutViewed(snapshot.Papers, links)
	return snapshot, true, nil
}

// withoutViewed drops papers whose URL is in links. It never returns nil.
func withoutViewed(papers []types.RelatedPaper, links []string) []types.RelatedPaper {
	viewed := make(map[string]bool, len(links))
	for _, l := range links {
		viewed[l] = true
	}
	out := make([]types.RelatedPaper, 0, len(papers))
	for _, p := range papers {
		if p.URL != "" && viewed[strings.TrimSpace(p.URL)] {
			continue
		}
		out = append(out, p)
	}
	return out
}
