package main

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/exascience/tokwork/concurrency"
	"github.com/exascience/tokwork/metrics"
	"github.com/exascience/tokwork/parallel"
	"github.com/exascience/tokwork/sequential"
	"github.com/exascience/tokwork/sort"
	"github.com/exascience/tokwork/token"
)

// ErrInvalidSize is returned for a non-positive element count.
var ErrInvalidSize = errors.New("size must be positive")

const (
	defaultSize     = 1 << 20
	defaultDistinct = 1 << 12
)

type benchConfig struct {
	Threads  int   `mapstructure:"threads"`
	Size     int   `mapstructure:"size"`
	Distinct int   `mapstructure:"distinct"`
	Seed     int64 `mapstructure:"seed"`
	Metrics  bool  `mapstructure:"metrics"`
}

// result is one row of the report.
type result struct {
	name       string
	elements   int
	sequential time.Duration
	parallel   time.Duration
	ok         bool
}

func newRootCommand() (*cobra.Command, error) {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "tokwork",
		Short: "Exercise the token registry and the parallel primitives",
		Long: `tokwork runs every parallel primitive once with concurrency disabled
and once with the configured limit, checks that both runs agree, and
prints the timings.

Flags can also be set through the environment with the TOKWORK_ prefix,
for example TOKWORK_SIZE.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			concurrency.SetLimitArgument(cfg.Threads)
			if err := run(cmd.OutOrStdout(), cfg); err != nil {
				return err
			}
			if cfg.Metrics {
				return renderMetrics(cmd.OutOrStdout())
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntP("threads", "t", 0, "concurrency limit; 0 keeps the default, -k leaves k CPUs free")
	flags.IntP("size", "n", defaultSize, "number of elements per benchmark")
	flags.Int("distinct", defaultDistinct, "number of distinct strings to intern")
	flags.Int64("seed", 1, "seed for the random input")
	flags.Bool("metrics", false, "print the registry and concurrency gauges after the run")
	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}
	v.SetEnvPrefix("TOKWORK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return cmd, nil
}

func loadConfig(v *viper.Viper) (*benchConfig, error) {
	var cfg benchConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, cfg.Size)
	}
	if cfg.Distinct <= 0 {
		return nil, fmt.Errorf("%w: distinct %d", ErrInvalidSize, cfg.Distinct)
	}
	return &cfg, nil
}

// timed runs f with concurrency disabled and with the current limit,
// and returns both durations and both results.
func timed[V any](f func() V) (seqDur, parDur time.Duration, seq, par V) {
	limit := concurrency.Limit()
	concurrency.SetLimit(1)
	start := time.Now()
	seq = f()
	seqDur = time.Since(start)
	concurrency.SetLimit(limit)
	start = time.Now()
	par = f()
	parDur = time.Since(start)
	return
}

func run(w io.Writer, cfg *benchConfig) error {
	rng := rand.New(rand.NewSource(cfg.Seed))
	values := make([]int, cfg.Size)
	for i := range values {
		values[i] = rng.Intn(cfg.Size)
	}
	names := make([]string, cfg.Size)
	for i := range names {
		names[i] = fmt.Sprintf("name_%d", rng.Intn(cfg.Distinct))
	}

	var results []result
	add := func(name string, seqDur, parDur time.Duration, ok bool) {
		results = append(results, result{name, cfg.Size, seqDur, parDur, ok})
	}

	{
		s, p, a, b := timed(func() []int {
			out := make([]int, len(values))
			parallel.For(len(values), 1, func(low, high int) {
				for i := low; i < high; i++ {
					out[i] = 2 * values[i]
				}
			})
			return out
		})
		add("for", s, p, equalInts(a, b))
	}
	{
		sum := func(low, high, partial int) int {
			for _, x := range values[low:high] {
				partial += x
			}
			return partial
		}
		add2 := func(x, y int) int { return x + y }
		s, p, a, b := timed(func() int { return parallel.Reduce(0, len(values), 1, sum, add2) })
		add("reduce", s, p, a == b && a == sequential.Reduce(0, len(values), sum, add2))
	}
	{
		even := func(i int) (int, bool) { return values[i], values[i]%2 == 0 }
		s, p, a, b := timed(func() []int { return parallel.FilterN(len(values), 1, even) })
		add("filter", s, p, equalInts(a, b) && equalInts(a, sequential.FilterN(len(values), even)))
	}
	{
		s, p, a, b := timed(func() []int {
			out := append([]int(nil), values...)
			sort.Slice(out)
			return out
		})
		add("sort", s, p, equalInts(a, b) && sort.SliceIsSorted(b))
	}
	{
		s, p, a, b := timed(func() []token.Token { return token.ToTokens(names) })
		ok := len(a) == len(b)
		for i := 0; ok && i < len(a); i++ {
			ok = a[i].Equal(b[i]) && a[i].EqualString(names[i])
		}
		add("intern", s, p, ok)
		token.ReleaseAll(a)
		token.ReleaseAll(b)
	}

	render(w, results)
	for _, r := range results {
		if !r.ok {
			return fmt.Errorf("%s: sequential and parallel results differ", r.name)
		}
	}
	return nil
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func render(w io.Writer, results []result) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle(fmt.Sprintf("concurrency limit %d of %d", concurrency.Limit(), concurrency.PhysicalLimit()))
	tw.AppendHeader(table.Row{"Primitive", "Elements", "Sequential", "Parallel", "Speedup", "Agree"})
	for _, r := range results {
		speedup := "-"
		if r.parallel > 0 {
			speedup = fmt.Sprintf("%.2fx", float64(r.sequential)/float64(r.parallel))
		}
		tw.AppendRow(table.Row{
			r.name,
			humanize.Comma(int64(r.elements)),
			r.sequential.Round(time.Microsecond),
			r.parallel.Round(time.Microsecond),
			speedup,
			r.ok,
		})
	}
	tw.Render()
}

// renderMetrics gathers the tokwork gauges from a private registry and
// prints them as a table.
func renderMetrics(w io.Writer) error {
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Metric", "Labels", "Value"})
	for _, family := range families {
		for _, m := range family.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			tw.AppendRow(table.Row{
				family.GetName(),
				strings.Join(labels, ","),
				humanize.Commaf(m.GetGauge().GetValue()),
			})
		}
	}
	tw.Render()
	return nil
}
