// Command smartsave-report prints a spending report for a bank CSV export
// without a database. The input may be a local file or a gs:// URI.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/fatih/color"

	"smartsave/internal/aggregate"
	"smartsave/internal/archive"
	"smartsave/internal/categorize"
	"smartsave/internal/cli"
	"smartsave/internal/csvimport"
	"smartsave/internal/recommend"
	"smartsave/internal/savings"
)

var (
	input   = flag.String("csv", "", "CSV file path or gs://bucket/object URI.")
	rules   = flag.String("rules", "", "Optional YAML category rules file.")
	noColor = flag.Bool("no-color", false, "Disable colored output.")
)

var (
	heading  = color.New(color.Bold, color.FgCyan)
	category = color.New(color.FgWhite)
	spend    = color.New(color.FgRed)
	good     = color.New(color.FgGreen)
	advice   = color.New(color.FgYellow)
)

func main() {
	flag.Parse()
	cli.LoadEnvFile()
	if *input == "" {
		fmt.Fprintln(os.Stderr, "usage: smartsave-report -csv <file|gs://bucket/object> [-rules rules.yaml]")
		os.Exit(2)
	}
	color.NoColor = color.NoColor || *noColor

	if err := run(context.Background(), os.Stdout, *input, *rules, time.Now()); err != nil {
		fmt.Fprintln(os.Stderr, "smartsave-report:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, input, rulesFile string, now time.Time) error {
	data, err := readInput(ctx, input)
	if err != nil {
		return err
	}
	categorizer, err := categorize.FromFile(rulesFile)
	if err != nil {
		return err
	}
	parsed, err := csvimport.NewParser(categorizer).Parse(bytes.NewReader(data))
	if err != nil {
		return err
	}
	printReport(out, parsed, now)
	return nil
}

func readInput(ctx context.Context, input string) ([]byte, error) {
	if !strings.HasPrefix(input, "gs://") {
		return os.ReadFile(input)
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()
	return archive.Fetch(ctx, client, input)
}

func printReport(out io.Writer, parsed csvimport.Result, now time.Time) {
	txs := parsed.Transactions

	heading.Fprintf(out, "SmartSave report (%d transactions", len(txs))
	if parsed.Skipped > 0 {
		heading.Fprintf(out, ", %d rows skipped", parsed.Skipped)
	}
	heading.Fprintln(out, ")")

	heading.Fprintln(out, "\nSpending by category")
	for _, c := range aggregate.SortedCategoryTotals(txs) {
		category.Fprintf(out, "  %-28s", c.Category)
		spend.Fprintf(out, " €%10s\n", c.Amount.StringFixed(2))
	}

	heading.Fprintln(out, "\nMonthly spending")
	for _, m := range aggregate.MonthlyTotals(aggregate.GroupByMonth(txs)) {
		category.Fprintf(out, "  %-28s", m.Label)
		spend.Fprintf(out, " €%10s\n", m.Total.StringFixed(2))
	}

	heading.Fprintln(out, "\nRecommendations")
	for _, r := range recommend.NewEngine(recommend.FailureAdvisory).ForTransactions(txs, nil, now) {
		advice.Fprintf(out, "  - %s\n", r)
	}

	heading.Fprintln(out, "\nSavings opportunities")
	recs := savings.Recommendations(txs)
	if len(recs) == 0 {
		fmt.Fprintln(out, "  none found")
	}
	for _, r := range recs {
		fmt.Fprintf(out, "  %-28s cut %.0f%% of €%s\n", r.Category, r.SuggestedReduction, r.CurrentSpending.StringFixed(2))
	}
	potential := savings.PotentialMonthlySavings(txs)
	target := savings.MonthlySavingsTarget(txs)
	fmt.Fprint(out, "\n  Potential monthly savings: ")
	good.Fprintf(out, "€%s\n", potential.StringFixed(2))
	fmt.Fprint(out, "  Suggested monthly savings: ")
	good.Fprintf(out, "€%s\n", target.StringFixed(2))

	if len(txs) == 0 {
		return
	}
	income := aggregate.Sum(aggregate.MonthlyIncome(txs))
	expenses := aggregate.Sum(aggregate.MonthlyExpenses(txs))
	fmt.Fprint(out, "  Net over the period:       ")
	net := income.Sub(expenses)
	if net.IsNegative() {
		spend.Fprintf(out, "€%s\n", net.StringFixed(2))
	} else {
		good.Fprintf(out, "€%s\n", net.StringFixed(2))
	}
}
