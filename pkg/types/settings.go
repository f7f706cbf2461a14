// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RelatedWorkFrequency controls how often related work is refreshed.
type RelatedWorkFrequency string

const (
	FrequencyDaily  RelatedWorkFrequency = "daily"
	FrequencyWeekly RelatedWorkFrequency = "weekly"
)

// Period returns the refresh interval for the frequency. Unknown values
// are treated as weekly.
func (f RelatedWorkFrequency) Period() time.Duration {
	if f == FrequencyDaily {
		return 24 * time.Hour
	}
	return 7 * 24 * time.Hour
}

// Settings are the user-adjustable library settings.
type Settings struct {
	AutoCluster          bool                 `json:"autoCluster" yaml:"auto_cluster"`
	ClusterThreshold     float64              `json:"clusterThreshold" yaml:"cluster_threshold"`
	APIEndpoint          string               `json:"apiEndpoint" yaml:"api_endpoint"`
	AudioSummary         bool                 `json:"audioSummary" yaml:"audio_summary"`
	RelatedWorkFrequency RelatedWorkFrequency `json:"relatedWorkFrequency" yaml:"related_work_frequency"`
}

// DefaultSettings returns the settings used before the user changes any.
func DefaultSettings() Settings {
	return Settings{
		AutoCluster:          true,
		ClusterThreshold:     0.7,
		RelatedWorkFrequency: FrequencyWeekly,
	}
}

// UserPreferences steer related-work discovery.
type UserPreferences struct {
	ResearchInterests []string `json:"researchInterests" yaml:"research_interests"`
	PreferredVenues   []string `json:"preferredVenues" yaml:"preferred_venues"`
	Language          string   `json:"language" yaml:"language"`
}

// DefaultPreferences returns empty preferences in English.
func DefaultPreferences() UserPreferences {
	return UserPreferences{
		ResearchInterests: []string{},
		PreferredVenues:   []string{},
		Language:          "en",
	}
}
