package frequency

import (
	"sort"
	"strconv"
)

// sortedAlleles orders allele labels numerically where possible, so that
// "9.3" sorts before "10"; non-numeric labels follow in lexical order.
func sortedAlleles(alleles map[string]float64) []string {
	keys := make([]string, 0, len(alleles))
	for a := range alleles {
		keys = append(keys, a)
	}
	sort.Slice(keys, func(i, j int) bool {
		vi, ei := strconv.ParseFloat(keys[i], 64)
		vj, ej := strconv.ParseFloat(keys[j], 64)
		switch {
		case ei == nil && ej == nil:
			if vi != vj {
				return vi < vj
			}
			return keys[i] < keys[j]
		case ei == nil:
			return true
		case ej == nil:
			return false
		}
		return keys[i] < keys[j]
	})
	return keys
}
