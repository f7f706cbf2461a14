// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Cluster is a named grouping of paper ids produced by one clustering run.
// Clusters are replaced wholesale on every run.
type Cluster struct {
	// ID is "cluster_<n>" where n is the cluster's index in its run.
	ID string `json:"id" yaml:"id"`

	// Name is the display name.
	Name string `json:"name" yaml:"name"`

	// Description explains what the cluster groups.
	Description string `json:"description" yaml:"description"`

	// Color is a palette entry chosen by cluster position.
	Color string `json:"color" yaml:"color"`

	// Keywords are the representative keywords of the cluster.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// Members holds paper ids. A nil slice means the field was absent.
	Members []string `json:"members" yaml:"members"`

	// CohesionScore is informational only.
	CohesionScore float64 `json:"cohesionScore" yaml:"cohesion_score"`
}

// AlgorithmInfo describes the algorithm that produced a clustering.
type AlgorithmInfo struct {
	Name     string `json:"name" yaml:"name"`
	Version  string `json:"version,omitempty" yaml:"version,omitempty"`
	Fallback bool   `json:"fallback" yaml:"fallback"`
}

// QualityMetrics summarizes a clustering run.
type QualityMetrics struct {
	ClusterCount    int     `json:"clusterCount" yaml:"cluster_count"`
	AverageCohesion float64 `json:"averageCohesion" yaml:"average_cohesion"`

	// Coverage is the fraction of papers assigned to some cluster.
	Coverage float64 `json:"coverage" yaml:"coverage"`
}

// ClusteringResult is the payload of a PERFORM_CLUSTERING response.
type ClusteringResult struct {
	Clusters       []Cluster      `json:"clusters" yaml:"clusters"`
	AlgorithmInfo  AlgorithmInfo  `json:"algorithmInfo" yaml:"algorithm_info"`
	QualityMetrics QualityMetrics `json:"qualityMetrics" yaml:"quality_metrics"`
}
