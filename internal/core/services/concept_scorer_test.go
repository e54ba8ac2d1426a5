package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/contaclara/recon_backend/internal/core/domain"
	"github.com/contaclara/recon_backend/internal/core/services"
	"github.com/contaclara/recon_backend/internal/matching"
)

// stubComparator returns a fixed score and counts invocations.
type stubComparator struct {
	mu    sync.Mutex
	score int
	err   error
	calls int
}

func (s *stubComparator) CompareConcepts(ctx context.Context, a, b string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.score, s.err
}

func (s *stubComparator) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// The fuel pair scores exactly 30 on the string pass, the bottom edge of the
// ambiguous band. Used everywhere an oracle consultation must be triggered.
var (
	fuelTicket  = []string{"MAGNA 40 LITROS"}
	fuelInvoice = []string{"COMBUSTIBLE MAGNA SIN PLOMO"}
)

func TestScoreConceptsConclusiveHighSkipsOracle(t *testing.T) {
	comparator := &stubComparator{score: 10}
	scorer := services.NewConceptScorer(matching.DefaultConfig(), comparator, 10)

	score, method := scorer.ScoreConcepts(context.Background(), []string{"GASOLINA MAGNA"}, []string{"gasolina magna"})

	assert.Equal(t, 100, score)
	assert.Equal(t, domain.ConceptStringMatch, method)
	assert.Equal(t, 0, comparator.callCount(), "a conclusive string score must not consult the oracle")
}

func TestScoreConceptsConclusiveLowSkipsOracle(t *testing.T) {
	comparator := &stubComparator{score: 95}
	scorer := services.NewConceptScorer(matching.DefaultConfig(), comparator, 10)

	score, method := scorer.ScoreConcepts(context.Background(), []string{"SERVICIO DE CONSULTORIA FISCAL"}, []string{"PANTALLA LED 55 PULGADAS"})

	assert.Less(t, score, 30)
	assert.Equal(t, domain.ConceptStringMatch, method)
	assert.Equal(t, 0, comparator.callCount(), "a conclusive non-match must not consult the oracle")
}

func TestScoreConceptsAmbiguousBlendsOracle(t *testing.T) {
	comparator := &stubComparator{score: 85}
	scorer := services.NewConceptScorer(matching.DefaultConfig(), comparator, 10)

	score, method := scorer.ScoreConcepts(context.Background(), fuelTicket, fuelInvoice)

	// string 30, semantic 85: 0.3*30 + 0.7*85 = 68.5, rounded up
	assert.Equal(t, 69, score)
	assert.Equal(t, domain.ConceptHybrid, method)
	assert.Equal(t, 1, comparator.callCount())
}

func TestScoreConceptsCachesOracleResult(t *testing.T) {
	comparator := &stubComparator{score: 85}
	scorer := services.NewConceptScorer(matching.DefaultConfig(), comparator, 10)

	first, _ := scorer.ScoreConcepts(context.Background(), fuelTicket, fuelInvoice)
	second, _ := scorer.ScoreConcepts(context.Background(), fuelTicket, fuelInvoice)
	// argument order must not matter for the cache
	swapped, _ := scorer.ScoreConcepts(context.Background(), fuelInvoice, fuelTicket)

	assert.Equal(t, first, second)
	assert.Equal(t, first, swapped)
	assert.Equal(t, 1, comparator.callCount(), "repeat comparisons must hit the cache")
}

func TestScoreConceptsOracleErrorFallsBack(t *testing.T) {
	comparator := &stubComparator{err: errors.New("quota exhausted")}
	scorer := services.NewConceptScorer(matching.DefaultConfig(), comparator, 10)

	score, method := scorer.ScoreConcepts(context.Background(), fuelTicket, fuelInvoice)

	assert.Equal(t, 30, score, "fallback must surface the raw string score")
	assert.Equal(t, domain.ConceptFallback, method)
}

func TestScoreConceptsNilComparatorFallsBack(t *testing.T) {
	scorer := services.NewConceptScorer(matching.DefaultConfig(), nil, 10)

	score, method := scorer.ScoreConcepts(context.Background(), fuelTicket, fuelInvoice)

	assert.Equal(t, 30, score)
	assert.Equal(t, domain.ConceptFallback, method)
}

func TestScoreConceptsNotApplicable(t *testing.T) {
	comparator := &stubComparator{score: 85}
	scorer := services.NewConceptScorer(matching.DefaultConfig(), comparator, 10)

	score, method := scorer.ScoreConcepts(context.Background(), nil, fuelInvoice)

	assert.Equal(t, 0, score)
	assert.Equal(t, domain.ConceptNotApplicable, method)
	assert.Equal(t, 0, comparator.callCount())
}
