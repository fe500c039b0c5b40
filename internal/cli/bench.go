package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/barehttp/http"
	"github.com/wesleyorama2/barehttp/internal/metrics"
	"github.com/wesleyorama2/barehttp/internal/pace"
)

var benchCmd = &cobra.Command{
	Use:   "bench URL",
	Short: "Repeat a GET request and report latency percentiles",
	Long: `Send the same GET request a number of times, one after the other on a
fresh connection each time, and summarize the latencies. With --verbose the
summary includes the resolve, connect, TLS, first byte and transfer phases.
With --rate the requests are started at most that many times per second.
With --warmup that many requests are sent first and left out of the summary.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions(cmd)
		if err != nil {
			return err
		}

		count, _ := cmd.Flags().GetInt("requests")
		if count < 1 {
			return fmt.Errorf("--requests must be at least 1, got %d", count)
		}
		warmup, _ := cmd.Flags().GetInt("warmup")
		if warmup < 0 {
			return fmt.Errorf("--warmup cannot be negative, got %d", warmup)
		}
		rate, _ := cmd.Flags().GetFloat64("rate")
		if rate < 0 {
			return fmt.Errorf("--rate cannot be negative, got %g", rate)
		}

		headers, _ := cmd.Flags().GetStringArray("header")
		header, err := parseHeaders(headers)
		if err != nil {
			return err
		}

		// Fail on a bad URL before the first exchange.
		if _, err := http.NewRequest(string(http.MethodGet), args[0], header, nil); err != nil {
			return err
		}

		engine := metrics.NewEngine()
		pacer := pace.New(rate, nil)
		client := opts.newClient()

		for i := 0; i < warmup+count; i++ {
			if i == warmup && warmup > 0 {
				opts.logger.Debug("warmup done", "requests", warmup, "failed", engine.GetSnapshot().FailedRequests)
				engine.Reset()
			}
			if err := pacer.Wait(context.Background()); err != nil {
				return err
			}
			if err := benchOnce(opts, client, engine, args[0], header); err != nil {
				return err
			}
		}

		if stats := pacer.Stats(); stats.Waited > 0 {
			opts.logger.Debug("paced bench run", "interval", stats.Interval, "waited", stats.Waited)
		}

		fmt.Fprint(opts.out, opts.formatter.FormatBench(args[0], engine.GetSnapshot()))
		return nil
	},
}

// benchOnce runs one exchange and records it. Only a fatal error stops the run.
func benchOnce(opts *options, client *http.Client, engine *metrics.Engine, url string, header http.Header) error {
	ctx, cancel := opts.connectContext()
	defer cancel()

	resp, err := client.Get(ctx, url, header)
	if err != nil {
		if http.IsFatal(err) {
			return err
		}
		opts.logger.Warn("exchange failed", "url", url, "error", err)
		engine.RecordFailure()
		return nil
	}

	success := !resp.IsClientError() && !resp.IsServerError()
	engine.RecordTiming(resp.Timing, success, int64(len(resp.Raw)))
	return nil
}

func addBenchFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("requests", "n", 10, "Number of requests to send")
	cmd.Flags().Int("warmup", 0, "Number of requests to send before measuring")
	cmd.Flags().Float64("rate", 0, "Maximum requests per second, 0 for no limit")
	cmd.Flags().StringArrayP("header", "H", []string{}, "HTTP headers to include (can be used multiple times)")
}

func init() {
	addBenchFlags(benchCmd)
}
