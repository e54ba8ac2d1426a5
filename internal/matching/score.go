package matching

import (
	"math"
	"strings"
)

// Component weights of the string score. These are part of the algorithm, not
// deployment tuning; the gate bands around the resulting score live in Config.
const (
	keywordWeight  = 0.30
	sequenceWeight = 0.50
	numericWeight  = 0.20
)

// lcsCap bounds the character-sequence comparison; concept texts are short,
// this only guards against pathological input.
const lcsCap = 512

// Score computes the 0-100 string similarity between two concept lists.
// ok is false when either side has no usable text, which callers must treat
// as "not applicable" rather than zero similarity.
//
// The blend: 30% shared-keyword ratio, 50% character-sequence (LCS) ratio,
// 20% shared-numeric-token ratio. The numeric component catches quantities
// ("40" in "40 LITROS"); when neither side carries numbers it is vacuously
// satisfied so that identical non-numeric texts still reach 100.
func Score(a, b []string) (int, bool) {
	na := NormalizeAll(a)
	nb := NormalizeAll(b)
	if na == "" || nb == "" {
		return 0, false
	}

	tokensA := strings.Fields(na)
	tokensB := strings.Fields(nb)

	score := keywordWeight*keywordRatio(tokensA, tokensB) +
		sequenceWeight*sequenceRatio(na, nb) +
		numericWeight*numericRatio(tokensA, tokensB)

	s := int(math.Round(score * 100))
	if s < 0 {
		s = 0
	}
	if s > 100 {
		s = 100
	}
	return s, true
}

// keywordRatio is the Dice coefficient over unique tokens.
func keywordRatio(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	shared := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(setA)+len(setB))
}

// sequenceRatio is the longest-common-subsequence length over the average
// text length. Averaging keeps a short ticket text comparable against a
// longer invoice description without drowning in the length difference.
func sequenceRatio(a, b string) float64 {
	if len(a) > lcsCap {
		a = a[:lcsCap]
	}
	if len(b) > lcsCap {
		b = b[:lcsCap]
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	avg := float64(len(a)+len(b)) / 2
	return float64(lcsLength(a, b)) / avg
}

// numericRatio is the Dice coefficient over numeric tokens. Vacuously 1 when
// neither side has any.
func numericRatio(a, b []string) float64 {
	numsA := toSet(numericTokens(a))
	numsB := toSet(numericTokens(b))
	if len(numsA) == 0 && len(numsB) == 0 {
		return 1
	}
	if len(numsA) == 0 || len(numsB) == 0 {
		return 0
	}
	shared := 0
	for tok := range numsA {
		if _, ok := numsB[tok]; ok {
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(numsA)+len(numsB))
}

func numericTokens(tokens []string) []string {
	var nums []string
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		isNum := true
		for i := 0; i < len(tok); i++ {
			if tok[i] < '0' || tok[i] > '9' {
				isNum = false
				break
			}
		}
		if isNum {
			nums = append(nums, tok)
		}
	}
	return nums
}

func toSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}

// lcsLength computes longest-common-subsequence length with a rolling row.
func lcsLength(a, b string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
