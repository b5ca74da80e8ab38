package places

import (
	"context"
	"time"

	"github.com/Ayash-Bera/mediguide/internal/facility"
	"github.com/Ayash-Bera/mediguide/internal/metrics"
	"github.com/sirupsen/logrus"
)

// Result is the outcome of a chained lookup
type Result struct {
	Facilities []facility.Facility `json:"facilities"`
	Source     string              `json:"source"`
}

// Chain asks each source in order. The first non-empty answer wins; when
// every source fails or comes back empty the static fallback list is used.
type Chain struct {
	sources []Source
	logger  *logrus.Logger
}

func NewChain(logger *logrus.Logger, sources ...Source) *Chain {
	return &Chain{sources: sources, logger: logger}
}

// Find never fails; errors from individual sources are logged
func (c *Chain) Find(ctx context.Context, q Query) Result {
	for _, src := range c.sources {
		if ctx.Err() != nil {
			break
		}

		start := time.Now()
		found, err := src.Nearby(ctx, q)
		elapsed := time.Since(start)

		logEntry := c.logger.WithFields(logrus.Fields{
			"source":   src.Name(),
			"location": q.Location,
			"radius":   q.Radius,
			"duration": elapsed,
		})

		switch {
		case err != nil && IsNoResults(err):
			metrics.RecordFacilityLookup(src.Name(), "empty", elapsed)
			logEntry.WithError(err).Debug("Facility source had no results")
		case err != nil:
			metrics.RecordFacilityLookup(src.Name(), "error", elapsed)
			logEntry.WithError(err).Warn("Facility source failed")
		case len(found) == 0:
			metrics.RecordFacilityLookup(src.Name(), "empty", elapsed)
			logEntry.Debug("Facility source had no results")
		default:
			metrics.RecordFacilityLookup(src.Name(), "hit", elapsed)
			logEntry.WithField("count", len(found)).Info("Facilities found")
			return Result{Facilities: found, Source: src.Name()}
		}
	}

	metrics.RecordFacilityLookup(facility.SourceFallback, "hit", 0)
	c.logger.WithField("location", q.Location).Info("Using fallback facility list")
	return Result{Facilities: facility.FallbackFacilities(), Source: facility.SourceFallback}
}
