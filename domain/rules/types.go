package rules

import (
	"encoding/json"
	"math"
	"strconv"

	"gobasket/domain/basket"
	"gobasket/domain/core"
)

// Ratio is a float that may be +Inf (conviction of a perfect implication).
// It encodes +Inf as the JSON string "Infinity" so encoders never fail.
type Ratio float64

func (r Ratio) IsInf() bool { return math.IsInf(float64(r), 1) }

func (r Ratio) MarshalJSON() ([]byte, error) {
	if r.IsInf() {
		return []byte(`"Infinity"`), nil
	}
	return []byte(strconv.FormatFloat(float64(r), 'g', -1, 64)), nil
}

func (r *Ratio) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "Infinity" {
			*r = Ratio(math.Inf(1))
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*r = Ratio(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*r = Ratio(f)
	return nil
}

// Metrics holds the association measures for A -> B
type Metrics struct {
	Support    float64 `json:"support"`
	Confidence float64 `json:"confidence"`
	Lift       float64 `json:"lift"`
	Leverage   float64 `json:"leverage"`
	Conviction Ratio   `json:"conviction"`
}

// FrequentItemset is an itemset whose support met the mining threshold
type FrequentItemset struct {
	Items   basket.ItemSet `json:"items"`
	Count   int            `json:"count"`
	Support float64        `json:"support"`
}

// AssociationRule is antecedent -> consequent with its measures
type AssociationRule struct {
	Antecedent        basket.ItemSet `json:"antecedent_items"`
	Consequent        basket.ItemSet `json:"consequent_items"`
	AntecedentSupport float64        `json:"antecedent_support"`
	ConsequentSupport float64        `json:"consequent_support"`
	Metrics
}

// Key identifies the rule for deterministic tie-breaks
func (r AssociationRule) Key() string {
	return r.Antecedent.Key() + "=>" + r.Consequent.Key()
}

// AssociationRow is one line of a per-dimension ranked table
type AssociationRow struct {
	Value     string  `json:"value"`
	Frequency int     `json:"frequency"`
	Share     float64 `json:"share"`
	Metrics
}

// AssociationTable is the ranked consequents of one target dimension
type AssociationTable struct {
	Dimension string           `json:"dimension"`
	Total     int              `json:"total_rows"`
	Rows      []AssociationRow `json:"rows"`
}

// MiningRun records one frequent-itemset mining execution. Run listings carry
// the counts without the itemsets and rules themselves.
type MiningRun struct {
	ID            core.RunID        `json:"id" db:"id"`
	Dataset       string            `json:"dataset" db:"dataset"`
	Fingerprint   core.Fingerprint  `json:"fingerprint" db:"fingerprint"`
	Dimension     string            `json:"dimension" db:"dimension"`
	MinSupport    float64           `json:"min_support" db:"min_support"`
	MinConfidence float64           `json:"min_confidence" db:"min_confidence"`
	Transactions  int               `json:"transactions" db:"transactions"`
	ItemsetCount  int               `json:"itemset_count" db:"itemset_count"`
	RuleCount     int               `json:"rule_count" db:"rule_count"`
	Itemsets      []FrequentItemset `json:"itemsets,omitempty" db:"-"`
	Rules         []AssociationRule `json:"rules,omitempty" db:"-"`
	CreatedAt     core.Timestamp    `json:"created_at" db:"-"`
}
