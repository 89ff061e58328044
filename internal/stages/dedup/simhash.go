package dedup

import (
	"hash/fnv"
	"math/bits"
)

// signature computes a 64-bit simhash over rune k-grams. Each k-gram is
// hashed with FNV-1a; per-bit counters are incremented for set bits and
// decremented otherwise, and positive counters become signature bits.
// Text shorter than k yields the zero signature.
func signature(text string, k int) uint64 {
	grams := kgrams(text, k)
	if len(grams) == 0 {
		return 0
	}

	var counts [64]int
	for _, g := range grams {
		h := fnv.New64a()
		h.Write([]byte(g))
		v := h.Sum64()
		for bit := 0; bit < 64; bit++ {
			if v&(1<<uint(bit)) != 0 {
				counts[bit]++
			} else {
				counts[bit]--
			}
		}
	}

	var sig uint64
	for bit := 0; bit < 64; bit++ {
		if counts[bit] > 0 {
			sig |= 1 << uint(bit)
		}
	}
	return sig
}

// hammingSimilarity is 1 minus the normalized Hamming distance between
// two signatures.
func hammingSimilarity(a, b uint64) float64 {
	return 1.0 - float64(bits.OnesCount64(a^b))/64.0
}

// kgrams returns all overlapping rune k-grams of text.
func kgrams(text string, k int) []string {
	runes := []rune(text)
	if len(runes) < k {
		return nil
	}
	grams := make([]string, 0, len(runes)-k+1)
	for i := 0; i+k <= len(runes); i++ {
		grams = append(grams, string(runes[i:i+k]))
	}
	return grams
}

// shingleSet returns the set of distinct rune k-grams of text.
func shingleSet(text string, k int) map[string]struct{} {
	set := make(map[string]struct{})
	for _, g := range kgrams(text, k) {
		set[g] = struct{}{}
	}
	return set
}

// jaccardSimilarity is |a∩b| / |a∪b|. Two empty sets compare as
// identical.
func jaccardSimilarity(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	inter := 0
	for g := range a {
		if _, ok := b[g]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0.0
	}
	return float64(inter) / float64(union)
}
