package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math"

	"github.com/jmoiron/sqlx"

	"gobasket/domain/basket"
	"gobasket/domain/core"
	"gobasket/domain/rules"
	"gobasket/internal/errors"
	"gobasket/ports"
)

// RuleRunRepositoryImpl implements RuleRunRepository on PostgreSQL or SQLite
type RuleRunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRuleRunRepository creates a repository over a migrated database
func NewRuleRunRepository(db *sqlx.DB) ports.RuleRunRepository {
	return &RuleRunRepositoryImpl{db: db}
}

type runRow struct {
	ID            string         `db:"id"`
	Dataset       string         `db:"dataset"`
	Fingerprint   string         `db:"fingerprint"`
	Dimension     string         `db:"dimension"`
	MinSupport    float64        `db:"min_support"`
	MinConfidence float64        `db:"min_confidence"`
	Transactions  int            `db:"transactions"`
	ItemsetCount  int            `db:"itemset_count"`
	RuleCount     int            `db:"rule_count"`
	CreatedAt     core.Timestamp `db:"created_at"`
}

func (r runRow) toRun() *rules.MiningRun {
	return &rules.MiningRun{
		ID:            core.RunID(r.ID),
		Dataset:       r.Dataset,
		Fingerprint:   core.Fingerprint(r.Fingerprint),
		Dimension:     r.Dimension,
		MinSupport:    r.MinSupport,
		MinConfidence: r.MinConfidence,
		Transactions:  r.Transactions,
		ItemsetCount:  r.ItemsetCount,
		RuleCount:     r.RuleCount,
		CreatedAt:     r.CreatedAt,
	}
}

type itemsetRow struct {
	Items     string  `db:"items"`
	Frequency int     `db:"frequency"`
	Support   float64 `db:"support"`
}

type ruleRow struct {
	Antecedent         string  `db:"antecedent"`
	Consequent         string  `db:"consequent"`
	AntecedentSupport  float64 `db:"antecedent_support"`
	ConsequentSupport  float64 `db:"consequent_support"`
	Support            float64 `db:"support"`
	Confidence         float64 `db:"confidence"`
	Lift               float64 `db:"lift"`
	Leverage           float64 `db:"leverage"`
	Conviction         float64 `db:"conviction"`
	ConvictionInfinite bool    `db:"conviction_infinite"`
}

// SaveRun stores the run header, itemsets and rules in one transaction
func (r *RuleRunRepositoryImpl) SaveRun(ctx context.Context, run *rules.MiningRun) error {
	if run.ID.IsEmpty() {
		run.ID = core.NewRunID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = core.Now()
	}
	run.ItemsetCount = len(run.Itemsets)
	run.RuleCount = len(run.Rules)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO mining_runs (id, dataset, fingerprint, dimension, min_support, min_confidence, transactions, itemset_count, rule_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), string(run.ID), run.Dataset, run.Fingerprint.String(), run.Dimension, run.MinSupport, run.MinConfidence,
		run.Transactions, run.ItemsetCount, run.RuleCount, run.CreatedAt)
	if err != nil {
		return errors.DatabaseError("failed to insert mining run", err)
	}

	insertItemset := tx.Rebind(`
		INSERT INTO mining_itemsets (run_id, ordinal, items, item_count, frequency, support)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	for i, set := range run.Itemsets {
		items, err := encodeItems(set.Items)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insertItemset, string(run.ID), i, items, len(set.Items), set.Count, set.Support); err != nil {
			return errors.DatabaseError(fmt.Sprintf("failed to insert itemset %d", i), err)
		}
	}

	insertRule := tx.Rebind(`
		INSERT INTO mining_rules (run_id, ordinal, antecedent, consequent, antecedent_support, consequent_support,
			support, confidence, lift, leverage, conviction, conviction_infinite)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	for i, rule := range run.Rules {
		antecedent, err := encodeItems(rule.Antecedent)
		if err != nil {
			return err
		}
		consequent, err := encodeItems(rule.Consequent)
		if err != nil {
			return err
		}
		conviction := float64(rule.Conviction)
		if rule.Conviction.IsInf() {
			conviction = 0
		}
		if _, err := tx.ExecContext(ctx, insertRule, string(run.ID), i, antecedent, consequent,
			rule.AntecedentSupport, rule.ConsequentSupport, rule.Support, rule.Confidence,
			rule.Lift, rule.Leverage, conviction, rule.Conviction.IsInf()); err != nil {
			return errors.DatabaseError(fmt.Sprintf("failed to insert rule %d", i), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit mining run", err)
	}
	return nil
}

// GetRun loads a run with its itemsets and rules in stored order
func (r *RuleRunRepositoryImpl) GetRun(ctx context.Context, id core.RunID) (*rules.MiningRun, error) {
	var header runRow
	err := r.db.GetContext(ctx, &header, r.db.Rebind(`
		SELECT id, dataset, fingerprint, dimension, min_support, min_confidence, transactions, itemset_count, rule_count, created_at
		FROM mining_runs
		WHERE id = ?
	`), string(id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to load mining run", err)
	}
	run := header.toRun()

	var itemsets []itemsetRow
	if err := r.db.SelectContext(ctx, &itemsets, r.db.Rebind(`
		SELECT items, frequency, support FROM mining_itemsets WHERE run_id = ? ORDER BY ordinal
	`), string(id)); err != nil {
		return nil, errors.Wrap(errors.DatabaseError("failed to load itemsets", err), fmt.Sprintf("loading run %s", id))
	}
	run.Itemsets = make([]rules.FrequentItemset, 0, len(itemsets))
	for _, row := range itemsets {
		items, err := decodeItems(row.Items)
		if err != nil {
			return nil, err
		}
		run.Itemsets = append(run.Itemsets, rules.FrequentItemset{Items: items, Count: row.Frequency, Support: row.Support})
	}

	var ruleRows []ruleRow
	if err := r.db.SelectContext(ctx, &ruleRows, r.db.Rebind(`
		SELECT antecedent, consequent, antecedent_support, consequent_support,
			support, confidence, lift, leverage, conviction, conviction_infinite
		FROM mining_rules WHERE run_id = ? ORDER BY ordinal
	`), string(id)); err != nil {
		return nil, errors.Wrap(errors.DatabaseError("failed to load rules", err), fmt.Sprintf("loading run %s", id))
	}
	run.Rules = make([]rules.AssociationRule, 0, len(ruleRows))
	for _, row := range ruleRows {
		rule, err := row.toRule()
		if err != nil {
			return nil, err
		}
		run.Rules = append(run.Rules, rule)
	}

	return run, nil
}

// ListRuns returns the newest run headers first
func (r *RuleRunRepositoryImpl) ListRuns(ctx context.Context, limit int) ([]*rules.MiningRun, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []runRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT id, dataset, fingerprint, dimension, min_support, min_confidence, transactions, itemset_count, rule_count, created_at
		FROM mining_runs
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`), limit); err != nil {
		return nil, errors.DatabaseError("failed to list mining runs", err)
	}

	runs := make([]*rules.MiningRun, len(rows))
	for i, row := range rows {
		runs[i] = row.toRun()
	}
	return runs, nil
}

func (row ruleRow) toRule() (rules.AssociationRule, error) {
	antecedent, err := decodeItems(row.Antecedent)
	if err != nil {
		return rules.AssociationRule{}, err
	}
	consequent, err := decodeItems(row.Consequent)
	if err != nil {
		return rules.AssociationRule{}, err
	}
	conviction := rules.Ratio(row.Conviction)
	if row.ConvictionInfinite {
		conviction = rules.Ratio(math.Inf(1))
	}
	return rules.AssociationRule{
		Antecedent:        antecedent,
		Consequent:        consequent,
		AntecedentSupport: row.AntecedentSupport,
		ConsequentSupport: row.ConsequentSupport,
		Metrics: rules.Metrics{
			Support:    row.Support,
			Confidence: row.Confidence,
			Lift:       row.Lift,
			Leverage:   row.Leverage,
			Conviction: conviction,
		},
	}, nil
}

func encodeItems(items basket.ItemSet) (string, error) {
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to encode items: %w", err)
	}
	return string(data), nil
}

func decodeItems(data string) (basket.ItemSet, error) {
	var items basket.ItemSet
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}
	return items, nil
}
