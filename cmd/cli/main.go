package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"gobasket/adapters/excel"
	"gobasket/app"
	"gobasket/domain/basket"
	"gobasket/domain/rules"
	"gobasket/internal"
	"gobasket/internal/apriori"
	"gobasket/internal/testkit"
)

type dataFlags struct {
	file              string
	sheet             string
	transactionColumn string
	columns           string
	filter            string
}

func (f *dataFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "CSV or XLSX file with one purchased line per row")
	cmd.Flags().StringVar(&f.sheet, "sheet", "Sheet1", "Sheet to read from XLSX files")
	cmd.Flags().StringVar(&f.transactionColumn, "transaction-column", "", "Column holding the receipt id (detected when empty)")
	cmd.Flags().StringVar(&f.columns, "columns", "", `Dimension bindings, e.g. "item=sku,brand=Brand" (all columns when empty)`)
	cmd.Flags().StringVar(&f.filter, "filter", "", `Keep rows matching dimension=value[|value...], e.g. "region=North|East"`)
	_ = cmd.MarkFlagRequired("file")
}

// session reads the file and indexes it
func (f *dataFlags) session(ctx context.Context) (*app.Session, error) {
	columns, err := excel.ParseColumnBindings(f.columns)
	if err != nil {
		return nil, err
	}
	reader := excel.NewDataReader(excel.ExcelConfig{
		FilePath:          f.file,
		Sheet:             f.sheet,
		TransactionColumn: f.transactionColumn,
		Columns:           columns,
	})
	ds, err := reader.Read(ctx)
	if err != nil {
		return nil, err
	}
	if f.filter != "" {
		dim, values, ok := strings.Cut(f.filter, "=")
		if !ok || dim == "" || values == "" {
			return nil, fmt.Errorf("invalid filter %q, want dimension=value[|value...]", f.filter)
		}
		ds = ds.Filter(strings.TrimSpace(dim), strings.Split(values, "|")...)
	}
	return app.NewSession(ds)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:   "gobasket-cli",
		Short: "Market basket association analysis over transaction files",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			internal.DefaultLogger = internal.NewLogger(internal.ParseLogLevel(logLevel))
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "WARN", "Log level (ERROR, WARN, INFO, DEBUG, TRACE)")

	rootCmd.AddCommand(
		newSupportCmd(),
		newAssociationsCmd(),
		newMineCmd(),
		newSummaryCmd(),
		newGenerateCmd(),
	)
	return rootCmd
}

func newSupportCmd() *cobra.Command {
	var data dataFlags

	cmd := &cobra.Command{
		Use:   "support <dimension> [value]",
		Short: "Share of transactions containing a value, or every value of a dimension",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := data.session(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 2 {
				s, err := sess.Support(args[0], args[1])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"dimension": args[0], "value": args[1], "support": s, "transactions": sess.Total()})
			}
			all, err := sess.SupportAll(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"dimension": args[0], "supports": all, "transactions": sess.Total()})
		},
	}
	data.register(cmd)
	return cmd
}

func newAssociationsCmd() *cobra.Command {
	var data dataFlags
	var targets []string
	var sortBy string
	var topK int
	var ascending bool

	cmd := &cobra.Command{
		Use:   "associations <dimension> <value>",
		Short: "Rank what is bought together with one entity",
		Long: `Rank the co-occurring values of each target dimension for one antecedent.

Example: gobasket-cli associations item Pasta -f receipts.csv --targets item,brand --sort conviction --top-k 5`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := data.session(cmd.Context())
			if err != nil {
				return err
			}
			analysis, err := sess.Analyze(cmd.Context(), app.Query{
				Antecedent: basket.EntitySelector{Dimension: args[0], Value: args[1]},
				Targets:    targets,
				SortBy:     rules.Metric(sortBy),
				TopK:       topK,
				Ascending:  ascending,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), analysis)
		},
	}
	data.register(cmd)
	cmd.Flags().StringSliceVar(&targets, "targets", nil, "Target dimensions (all when empty)")
	cmd.Flags().StringVar(&sortBy, "sort", string(rules.MetricLift), "Ranking metric: support, confidence, lift, conviction, leverage, frequency")
	cmd.Flags().IntVar(&topK, "top-k", 10, "Rows per target dimension")
	cmd.Flags().BoolVar(&ascending, "ascending", false, "Sort ascending instead of descending")
	return cmd
}

func newMineCmd() *cobra.Command {
	var data dataFlags
	var minSupport, minConfidence float64
	var maxSize, topK, workers int
	var sortBy, within string

	cmd := &cobra.Command{
		Use:   "mine <dimension>",
		Short: "Mine frequent itemsets and association rules over one dimension",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := data.session(cmd.Context())
			if err != nil {
				return err
			}

			defaults := app.MiningDefaults{
				Options: apriori.Options{MinSupport: minSupport, MinConfidence: minConfidence, MaxSize: maxSize, Workers: workers},
				TopK:    topK,
				SortBy:  rules.MetricLift,
			}
			req := app.MineRequest{Dimension: args[0], SortBy: sortBy}
			if within != "" {
				dim, value, ok := strings.Cut(within, "=")
				if !ok {
					return fmt.Errorf("invalid --within %q, want dimension=value", within)
				}
				req.Within = &basket.EntitySelector{Dimension: dim, Value: value}
			}

			resp, err := app.NewMiningService(nil, defaults, internal.DefaultLogger).Run(cmd.Context(), sess, req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	data.register(cmd)
	def := apriori.DefaultOptions()
	cmd.Flags().Float64Var(&minSupport, "min-support", def.MinSupport, "Minimum itemset support")
	cmd.Flags().Float64Var(&minConfidence, "min-confidence", def.MinConfidence, "Minimum rule confidence")
	cmd.Flags().IntVar(&maxSize, "max-size", 0, "Largest itemset size (0 for no limit)")
	cmd.Flags().IntVar(&workers, "workers", def.Workers, "Parallel support counters per level")
	cmd.Flags().IntVar(&topK, "top-k", 20, "Rules to print")
	cmd.Flags().StringVar(&sortBy, "sort", string(rules.MetricLift), "Rule ranking metric")
	cmd.Flags().StringVar(&within, "within", "", "Mine only transactions containing dimension=value")
	return cmd
}

func newSummaryCmd() *cobra.Command {
	var data dataFlags

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Transaction count and basket size statistics per dimension",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := data.session(cmd.Context())
			if err != nil {
				return err
			}
			summary, err := sess.Summary()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summary)
		},
	}
	data.register(cmd)
	return cmd
}

func newGenerateCmd() *cobra.Command {
	config := testkit.DefaultBasketConfig()
	var output string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic basket file with planted rules",
		Long: `Write seeded synthetic receipts as CSV or XLSX (by extension).

Example: gobasket-cli generate -o baskets.csv --baskets 5000 --seed 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen := testkit.NewBasketGenerator(config)
			ds := gen.Dataset()
			if err := excel.WriteDataset(output, ds); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d lines of %d baskets to %s\n", ds.Len(), config.BasketCount, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "baskets.csv", "Output file (.csv or .xlsx)")
	cmd.Flags().IntVar(&config.BasketCount, "baskets", config.BasketCount, "Number of baskets")
	cmd.Flags().IntVar(&config.ProductCount, "products", config.ProductCount, "Catalog size")
	cmd.Flags().Float64Var(&config.AvgLinesPerBasket, "avg-lines", config.AvgLinesPerBasket, "Average lines per basket")
	cmd.Flags().Int64Var(&config.Seed, "seed", config.Seed, "Random seed")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
