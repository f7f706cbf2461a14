// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"

	"github.com/pdiddy/paper-library/pkg/types"
)

// Settings returns the stored settings, or the defaults.
func (s *Store) Settings(ctx context.Context) (types.Settings, error) {
	release, err := acquire(ctx, s.settings)
	if err != nil {
		return types.Settings{}, err
	}
	defer release()

	settings := types.DefaultSettings()
	if _, err := s.load(ctx, keySettings, &settings); err != nil {
		return types.Settings{}, err
	}
	return sanitizeSettings(settings), nil
}

// UpdateSettings applies mutate to the current settings under the
// settings gate and persists the result.
func (s *Store) UpdateSettings(ctx context.Context, mutate func(*types.Settings)) (types.Settings, error) {
	release, err := acquire(ctx, s.settings)
	if err != nil {
		return types.Settings{}, err
	}
	defer release()

	settings := types.DefaultSettings()
	if _, err := s.load(ctx, keySettings, &settings); err != nil {
		return types.Settings{}, err
	}
	mutate(&settings)
	settings = sanitizeSettings(settings)

	if err := s.save(ctx, keySettings, settings); err != nil {
		return types.Settings{}, err
	}
	return settings, s.touch(ctx)
}

func sanitizeSettings(st types.Settings) types.Settings {
	switch st.RelatedWorkFrequency {
	case types.FrequencyDaily, types.FrequencyWeekly:
	default:
		st.RelatedWorkFrequency = types.FrequencyWeekly
	}
	if st.ClusterThreshold < 0 {
		st.ClusterThreshold = 0
	}
	if st.ClusterThreshold > 1 {
		st.ClusterThreshold = 1
	}
	return st
}

// Preferences returns the stored user preferences, or the defaults.
func (s *Store) Preferences(ctx context.Context) (types.UserPreferences, error) {
	release, err := acquire(ctx, s.prefs)
	if err != nil {
		return types.UserPreferences{}, err
	}
	defer release()

	prefs := types.DefaultPreferences()
	if _, err := s.load(ctx, keyPreferences, &prefs); err != nil {
		return types.UserPreferences{}, err
	}
	return sanitizePreferences(prefs), nil
}

// UpdatePreferences applies mutate to the current preferences under the
// preferences gate and persists the result.
func (s *Store) UpdatePreferences(ctx context.Context, mutate func(*types.UserPreferences)) (types.UserPreferences, error) {
	release, err := acquire(ctx, s.prefs)
	if err != nil {
		return types.UserPreferences{}, err
	}
	defer release()

	prefs := types.DefaultPreferences()
	if _, err := s.load(ctx, keyPreferences, &prefs); err != nil {
		return types.UserPreferences{}, err
	}
	mutate(&prefs)
	prefs = sanitizePreferences(prefs)

	if err := s.save(ctx, keyPreferences, prefs); err != nil {
		return types.UserPreferences{}, err
	}
	return prefs, s.touch(ctx)
}

func sanitizePreferences(p types.UserPreferences) types.UserPreferences {
	p.ResearchInterests = cleanStrings(p.ResearchInterests, true)
	p.PreferredVenues = cleanStrings(p.PreferredVenues, true)
	if p.Language == "" {
		p.Language = "en"
	}
	return p
}
