// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cluster

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/pdiddy/paper-library/internal/httputil"
	"github.com/pdiddy/paper-library/internal/logger"
	"github.com/pdiddy/paper-library/internal/telemetry"
	"github.com/pdiddy/paper-library/pkg/types"
)

// DefaultTimeout bounds one clustering gateway call.
const DefaultTimeout = 30 * time.Second

// Service runs clustering with automatic fallback.
type Service struct {
	gateway Gateway
	timeout time.Duration
	log     *logger.Logger
}

// NewService returns a Service. A nil gateway always uses Fallback.
func NewService(gateway Gateway, timeout time.Duration, log *logger.Logger) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{gateway: gateway, timeout: timeout, log: log.With("component", "cluster")}
}

// Run clusters papers. Gateway failures, timeouts and malformed replies
// are absorbed: the result then comes from Fallback and the second return
// value is true.
func (s *Service) Run(ctx context.Context, papers []types.Paper, threshold float64) (types.ClusteringResult, bool) {
	if len(papers) == 0 {
		return types.ClusteringResult{
			Clusters:      []types.Cluster{},
			AlgorithmInfo: types.AlgorithmInfo{Name: FallbackAlgorithm, Fallback: true},
		}, true
	}
	if isNilGateway(s.gateway) {
		return Fallback(papers), true
	}

	ctx, span := telemetry.Tracer("cluster").Start(ctx, "cluster.gateway")
	span.SetAttributes(attribute.Int("papers", len(papers)), attribute.Float64("threshold", threshold))

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.gateway.Cluster(callCtx, papers, threshold)
	if err == nil {
		result, err = normalize(result, len(papers))
	}
	telemetry.EndSpan(span, err)
	if err != nil {
		s.log.Warn("clustering gateway failed, using fallback",
			"error", err, "gateway_error", httputil.IsGatewayError(err), "papers", len(papers))
		return Fallback(papers), true
	}
	return result, false
}

func isNilGateway(g Gateway) bool {
	if g == nil {
		return true
	}
	h, ok := g.(*HTTPGateway)
	return ok && h == nil
}

var errMalformed = errors.New("malformed clustering result")

// normalize fills ids and colors the gateway left out and rejects
// clusters without a members field. The first cluster to claim an id keeps
// it; blank and repeated ids are renumbered to the next free cluster_<n>.
func normalize(result types.ClusteringResult, total int) (types.ClusteringResult, error) {
	if result.Clusters == nil {
		return result, fmt.Errorf("%w: missing clusters", errMalformed)
	}

	owner := make(map[string]int, len(result.Clusters))
	for i := range result.Clusters {
		c := &result.Clusters[i]
		if c.Members == nil {
			return result, fmt.Errorf("%w: cluster %d has no members field", errMalformed, i)
		}
		c.ID = strings.TrimSpace(c.ID)
		if _, taken := owner[c.ID]; c.ID != "" && !taken {
			owner[c.ID] = i
		}
	}

	for i := range result.Clusters {
		c := &result.Clusters[i]
		if c.ID == "" || owner[c.ID] != i {
			c.ID = freeClusterID(owner, i)
			owner[c.ID] = i
		}
		if strings.TrimSpace(c.Color) == "" {
			c.Color = ColorFor(i)
		}
		if strings.TrimSpace(c.Name) == "" {
			c.Name = fmt.Sprintf("Cluster %d", i+1)
		}
		if c.Keywords == nil {
			c.Keywords = []string{}
		}
	}
	if result.AlgorithmInfo.Name == "" {
		result.AlgorithmInfo.Name = "remote"
	}
	if result.QualityMetrics.ClusterCount == 0 {
		result.QualityMetrics = Metrics(result.Clusters, total)
	}
	return result, nil
}

func freeClusterID(owner map[string]int, from int) string {
	for n := from; ; n++ {
		if _, taken := owner[ClusterID(n)]; !taken {
			return ClusterID(n)
		}
	}
}
