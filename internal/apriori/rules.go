package apriori

import (
	"sort"

	"gonum.org/v1/gonum/stat/combin"

	"gobasket/domain/basket"
	"gobasket/domain/rules"
	"gobasket/internal/association"
)

// GenerateRules splits every itemset of size two or more into each non-empty proper
// antecedent and its complement, keeping rules with confidence >= minConfidence.
// Supports of both sides are read from itemsets, which must be downward closed
// as returned by Mine.
func GenerateRules(itemsets []rules.FrequentItemset, minConfidence float64) []rules.AssociationRule {
	supports := make(map[string]float64, len(itemsets))
	for _, fs := range itemsets {
		supports[fs.Items.Key()] = fs.Support
	}

	out := []rules.AssociationRule{}
	for _, fs := range itemsets {
		n := len(fs.Items)
		if n < 2 {
			continue
		}
		for k := 1; k < n; k++ {
			for _, picks := range combin.Combinations(n, k) {
				antecedent, consequent := split(fs.Items, picks)
				sA, okA := supports[antecedent.Key()]
				sB, okB := supports[consequent.Key()]
				if !okA || !okB {
					continue
				}

				metrics := association.FromSupports(fs.Support, sA, sB)
				if metrics.Confidence < minConfidence {
					continue
				}
				out = append(out, rules.AssociationRule{
					Antecedent:        antecedent,
					Consequent:        consequent,
					AntecedentSupport: sA,
					ConsequentSupport: sB,
					Metrics:           metrics,
				})
			}
		}
	}

	sort.SliceStable(out, func(a, b int) bool { return out[a].Key() < out[b].Key() })
	return out
}

// split partitions a sorted itemset by the picked positions. Both halves stay sorted.
func split(items basket.ItemSet, picks []int) (basket.ItemSet, basket.ItemSet) {
	picked := make([]bool, len(items))
	for _, p := range picks {
		picked[p] = true
	}
	antecedent := make(basket.ItemSet, 0, len(picks))
	consequent := make(basket.ItemSet, 0, len(items)-len(picks))
	for i, item := range items {
		if picked[i] {
			antecedent = append(antecedent, item)
		} else {
			consequent = append(consequent, item)
		}
	}
	return antecedent, consequent
}
