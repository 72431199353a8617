// Package apriori mines frequent itemsets and association rules over one dimension of
// a transaction index.
//
// Mining is level-wise. Frequent k-itemsets sharing their first k-1 values are joined
// into (k+1)-candidates, candidates with an infrequent k-subset are pruned, and the
// survivors are counted by intersecting sorted transaction lists. Candidates of one
// level are counted concurrently, levels run one after another.
//
// Output is deterministic: itemsets are ordered by size, then support descending,
// then lexical key; rules are ordered by key.
package apriori
