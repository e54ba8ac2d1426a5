package services

import (
	"context"
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/contaclara/recon_backend/internal/core/domain"
	portssvc "github.com/contaclara/recon_backend/internal/core/ports/services"
	"github.com/contaclara/recon_backend/internal/matching"
	"github.com/contaclara/recon_backend/internal/middleware"
	lru "github.com/hashicorp/golang-lru/v2"
)

// conceptScorer blends the cheap string score with the semantic oracle,
// consulting the oracle only inside the ambiguous band. Oracle results are
// cached so retries and duplicate documents don't pay twice.
type conceptScorer struct {
	cfg         matching.Config
	comparator  portssvc.SemanticComparator // may be nil when no oracle is configured
	cache       *lru.Cache[string, int]
	oracleCalls atomic.Int64
}

// NewConceptScorer creates the hybrid scorer. comparator may be nil, in which
// case every ambiguous score falls back to the plain string score.
func NewConceptScorer(cfg matching.Config, comparator portssvc.SemanticComparator, cacheSize int) portssvc.ConceptScorerSvc {
	if cacheSize <= 0 {
		cacheSize = 1000
	}
	// lru.New only errors on a non-positive size
	cache, _ := lru.New[string, int](cacheSize)
	return &conceptScorer{
		cfg:        cfg,
		comparator: comparator,
		cache:      cache,
	}
}

var _ portssvc.ConceptScorerSvc = (*conceptScorer)(nil)

// ScoreConcepts returns the concept similarity and the method that produced it.
// ConceptNotApplicable means neither value should influence the decision.
func (s *conceptScorer) ScoreConcepts(ctx context.Context, a, b []string) (int, domain.ConceptMethod) {
	stringScore, ok := matching.Score(a, b)
	if !ok {
		return 0, domain.ConceptNotApplicable
	}

	// Outside the ambiguous band the string score is conclusive on its own.
	if stringScore >= s.cfg.HighBand || stringScore < s.cfg.LowBand {
		return stringScore, domain.ConceptStringMatch
	}

	if s.comparator == nil {
		return stringScore, domain.ConceptFallback
	}

	na := matching.NormalizeAll(a)
	nb := matching.NormalizeAll(b)
	key := cacheKey(na, nb)

	semantic, cached := s.cache.Get(key)
	if !cached {
		var err error
		s.oracleCalls.Add(1)
		semantic, err = s.comparator.CompareConcepts(ctx, na, nb)
		if err != nil {
			// The oracle is optional enrichment; an invoice must never fail
			// because it was unavailable.
			middleware.GetLoggerFromCtx(ctx).Warn("Semantic comparator failed, using string score",
				slog.Int("string_score", stringScore),
				slog.String("error", err.Error()),
			)
			return stringScore, domain.ConceptFallback
		}
		if semantic < 0 {
			semantic = 0
		}
		if semantic > 100 {
			semantic = 100
		}
		s.cache.Add(key, semantic)
	}

	blended := int(math.Round(float64(stringScore)*s.cfg.StringWeight + float64(semantic)*s.cfg.SemanticWeight))
	if blended > 100 {
		blended = 100
	}
	return blended, domain.ConceptHybrid
}

// OracleCallCount reports how many times the external comparator was invoked.
// Exposed for gate-correctness assertions and cost observability.
func (s *conceptScorer) OracleCallCount() int64 {
	return s.oracleCalls.Load()
}

// cacheKey is order-insensitive: comparing (a, b) and (b, a) hits one entry.
func cacheKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "\x1f" + b
}
