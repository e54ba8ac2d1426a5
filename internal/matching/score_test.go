package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreIdenticalTexts(t *testing.T) {
	score, ok := Score([]string{"GASOLINA MAGNA"}, []string{"gasolina magna"})
	assert.True(t, ok)
	assert.Equal(t, 100, score)
}

func TestScoreIdenticalTextsWithNumbers(t *testing.T) {
	score, ok := Score([]string{"RENTA OFICINA ENERO 2026"}, []string{"renta oficina enero 2026"})
	assert.True(t, ok)
	assert.Equal(t, 100, score)
}

func TestScoreFuelAbbreviation(t *testing.T) {
	// A ticket-style abbreviation against the full invoice description. The
	// plain string score lands at the bottom of the ambiguous band; the
	// semantic layer is what pushes pairs like this to a confident match.
	score, ok := Score([]string{"MAGNA 40 LITROS"}, []string{"COMBUSTIBLE MAGNA SIN PLOMO"})
	assert.True(t, ok)
	assert.Equal(t, 30, score)
}

func TestScoreUnrelatedTexts(t *testing.T) {
	score, ok := Score([]string{"SERVICIO DE CONSULTORIA FISCAL"}, []string{"PANTALLA LED 55 PULGADAS"})
	assert.True(t, ok)
	assert.Less(t, score, 30, "unrelated descriptions must land below the ambiguous band")
}

func TestScoreNumericMismatchPenalized(t *testing.T) {
	same, ok := Score([]string{"CAJA ARCHIVO 100 PIEZAS"}, []string{"caja archivo 100 piezas"})
	assert.True(t, ok)
	different, ok2 := Score([]string{"CAJA ARCHIVO 100 PIEZAS"}, []string{"caja archivo 500 piezas"})
	assert.True(t, ok2)
	assert.Greater(t, same, different, "diverging quantities must cost score")
}

func TestScoreNotApplicable(t *testing.T) {
	_, ok := Score(nil, []string{"GASOLINA"})
	assert.False(t, ok)

	_, ok = Score([]string{"GASOLINA"}, nil)
	assert.False(t, ok)

	_, ok = Score([]string{"..."}, []string{"GASOLINA"})
	assert.False(t, ok, "text that normalizes to nothing is unusable")
}

func TestScoreMultipleConceptsJoined(t *testing.T) {
	score, ok := Score(
		[]string{"PAPEL BOND CARTA", "TONER NEGRO"},
		[]string{"papel bond carta toner negro"},
	)
	assert.True(t, ok)
	assert.Equal(t, 100, score)
}

func TestLCSLength(t *testing.T) {
	assert.Equal(t, 0, lcsLength("", "abc"))
	assert.Equal(t, 3, lcsLength("abc", "abc"))
	assert.Equal(t, 2, lcsLength("axc", "abc")) // "ac"
	assert.Equal(t, 5, lcsLength("gasolina", "gas na"))
	// order matters for subsequences
	assert.Equal(t, 1, lcsLength("ab", "ba"))
}
