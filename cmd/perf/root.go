package perf

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	cmdUtil "github.com/ValentinKolb/crusher/cmd/util"
	"github.com/ValentinKolb/crusher/lib/broker"
	"github.com/ValentinKolb/crusher/lib/common"
	"github.com/ValentinKolb/crusher/lib/store"
	"github.com/ValentinKolb/crusher/lib/value"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	PerfCmd = &cobra.Command{
		Use:   "perf",
		Short: "Measure speed and fidelity of a crusher",
		Long: `Run store, fetch and remove benchmarks against a fresh crusher in a temporary directory.
Besides the speed of each operation the fidelity is reported: the share of fetches and removes that returned exactly the value that was stored.`,
		PreRunE: processPerfConfig,
		RunE:    run,
	}
	perfKeySpread = 100
	perfConfigs   = make([]string, 0)
	perfSkip      = make([]string, 0)
)

func init() {
	key := "seed"
	PerfCmd.Flags().Uint64(key, 0, cmdUtil.WrapString("Seed of the random source. 0 picks a random seed"))
	key = "log-level"
	PerfCmd.Flags().String(key, "error", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
	key = "keys"
	PerfCmd.Flags().Int(key, 100, cmdUtil.WrapString("How many different keys to use for the tests"))
	key = "conf"
	PerfCmd.Flags().StringArray(key, nil, cmdUtil.WrapString("Configuration command applied before the tests, may be repeated (e.g. --conf '(0, 16, 0.0, 0.0, 0.0, 0.0)')"))
	key = "skip"
	PerfCmd.Flags().String(key, "", cmdUtil.WrapString("Benchmarks to skip (comma separated - e.g. store,fetch)"))
	key = "csv"
	PerfCmd.Flags().String(key, "", cmdUtil.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	perfKeySpread = viper.GetInt("keys")
	if perfKeySpread < 1 {
		return fmt.Errorf("keys must be positive, got %d", perfKeySpread)
	}
	perfConfigs, _ = cmd.Flags().GetStringArray("conf")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

// --------------------------------------------------------------------------
// Results
// --------------------------------------------------------------------------

// result of one benchmark
type result struct {
	name     string
	bench    testing.BenchmarkResult
	checked  int
	faithful int
}

// fidelity is the share of checked operations that returned the stored
// value, NaN if nothing was checked
func (r result) fidelity() float64 {
	if r.checked == 0 {
		return math.NaN()
	}
	return float64(r.faithful) / float64(r.checked)
}

// --------------------------------------------------------------------------
// Benchmarks
// --------------------------------------------------------------------------

func run(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	if err := common.InitLoggers(viper.GetString("log-level")); err != nil {
		return err
	}

	dir, err := os.MkdirTemp("", "crusher-perf-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	opts := broker.DefaultOptions()
	opts.Seed = viper.GetUint64("seed")
	opts.Out = io.Discard

	b, err := broker.New(filepath.Join(dir, "perf"), opts)
	if err != nil {
		return err
	}
	for _, conf := range perfConfigs {
		if _, err := b.Configure(conf); err != nil {
			return err
		}
	}

	fmt.Fprintln(out, "Performance and fidelity test for the crusher")
	fmt.Fprintf(out, "Seed: %d, Keys: %d, Configurations: %d\n\n", b.Seed(), perfKeySpread, len(perfConfigs))

	results := []result{
		benchStore(b),
		benchFetch(b),
		benchRemove(b),
	}
	for _, r := range results {
		printResult(out, r)
	}

	if csvPath := viper.GetString("csv"); csvPath != "" {
		if err := writeResultsToCSV(csvPath, results, b.Seed()); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nresults written to %s\n", csvPath)
	}

	fmt.Fprintln(out)
	b.WriteFailures(out)
	return nil
}

func benchStore(b *broker.Broker) result {
	r := result{name: "store"}
	if shouldSkip(r.name) {
		return r
	}
	r.bench = testing.Benchmark(func(tb *testing.B) {
		for i := 0; i < tb.N; i++ {
			b.Store(getKey(i), getValue(i))
		}
	})
	return r
}

func benchFetch(b *broker.Broker) result {
	r := result{name: "fetch"}
	if shouldSkip(r.name) {
		return r
	}
	r.bench = testing.Benchmark(func(tb *testing.B) {
		for i := 0; i < perfKeySpread; i++ {
			b.Store(getKey(i), getValue(i))
		}
		// counts of earlier rounds are overwritten, only the final run matters
		r.checked, r.faithful = 0, 0

		tb.ResetTimer()
		for i := 0; i < tb.N; i++ {
			got, err := b.Fetch(getKey(i))
			r.checked++
			if err == nil && getValue(i%perfKeySpread).Equal(got) {
				r.faithful++
			}
		}
	})
	return r
}

func benchRemove(b *broker.Broker) result {
	r := result{name: "remove"}
	if shouldSkip(r.name) {
		return r
	}
	r.bench = testing.Benchmark(func(tb *testing.B) {
		r.checked, r.faithful = 0, 0
		for i := 0; i < tb.N; i++ {
			tb.StopTimer()
			b.Store(getKey(i), getValue(i))
			tb.StartTimer()

			got, err := b.Remove(getKey(i))
			r.checked++
			if err == nil && getValue(i).Equal(got) {
				r.faithful++
			} else if err != nil && !store.IsNotFound(err) {
				tb.Fatal(err)
			}
		}
	})
	return r
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	return slices.Contains(perfSkip, test)
}

// getKey returns one of perfKeySpread structured keys (with wraparound)
func getKey(i int) value.Value {
	return value.Seq(value.Text("__test"), value.Int(int64(i%perfKeySpread)))
}

func getValue(i int) value.Value {
	return value.Seq(value.Int(int64(i)), value.Real(float64(i)/7), value.Text("payload"))
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(w io.Writer, r result) {
	if r.bench.N == 0 {
		fmt.Fprintf(w, "%-10sskipped\n", r.name)
		return
	}

	nsPerOp := math.Max(float64(r.bench.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	fmt.Fprintf(w, "%-10s%.0fns/op (%s/op)\t%.0f ops/sec", r.name, nsPerOp, time.Duration(nsPerOp), opsPerSec)
	if f := r.fidelity(); !math.IsNaN(f) {
		fmt.Fprintf(w, "\tfidelity %.4f%% (%d/%d)", f*100, r.faithful, r.checked)
	}
	fmt.Fprintln(w)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results []result, seed uint64) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	header := []string{"Test", "NsPerOp", "OpsPerSec", "Skipped", "Checked", "Faithful", "Seed", "Keys", "Configurations"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for _, r := range results {
		skipped := r.bench.N == 0
		var nsPerOp, opsPerSec float64
		if !skipped {
			nsPerOp = math.Max(float64(r.bench.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			r.name,
			fmt.Sprintf("%.0f", nsPerOp),
			fmt.Sprintf("%.0f", opsPerSec),
			strconv.FormatBool(skipped),
			strconv.Itoa(r.checked),
			strconv.Itoa(r.faithful),
			strconv.FormatUint(seed, 10),
			strconv.Itoa(perfKeySpread),
			strings.Join(perfConfigs, ";"),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", r.name, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
