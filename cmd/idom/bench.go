package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/idom/internal/errors"
	"github.com/vango-dev/idom/internal/sample"
	"github.com/vango-dev/idom/pkg/display"
	"github.com/vango-dev/idom/pkg/server"
	"github.com/vango-dev/idom/pkg/vdom"
)

type benchOptions struct {
	clients  int
	duration time.Duration
	rate     float64
	url      string
}

func benchCmd() *cobra.Command {
	var o benchOptions

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure event round trips under load",
		Long: `Drive concurrent clients against the sample application and report
round trip latency: client send, server dispatch, render, diff, patch
encode and client apply.

Without --url an in-process server on a loopback port is used. With
--url the clients connect to a running "idom serve".

Examples:
  idom bench --clients=200 --duration=30s
  idom bench --url=ws://localhost:8000/_api/stream`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.clients <= 0 || o.duration <= 0 || o.rate <= 0 {
				return errors.New("E152").WithSuggestion("--clients, --duration and --rate must be positive")
			}
			res, err := runBench(cmd.Context(), o)
			if err != nil {
				return err
			}
			res.print(cmd.OutOrStdout(), o)
			return nil
		},
	}

	cmd.Flags().IntVar(&o.clients, "clients", 50, "Number of concurrent clients")
	cmd.Flags().DurationVar(&o.duration, "duration", 10*time.Second, "How long to run")
	cmd.Flags().Float64Var(&o.rate, "rate", 5, "Target events per second per client")
	cmd.Flags().StringVar(&o.url, "url", "", "Stream URL of a running server")
	return cmd
}

type benchResult struct {
	events    uint64
	errors    uint64
	latencies []time.Duration
	elapsed   time.Duration
	alloc     uint64
	numGC     uint32
	pause     time.Duration
}

func runBench(ctx context.Context, o benchOptions) (*benchResult, error) {
	url := o.url
	if url == "" {
		stop, addr, err := startBenchServer()
		if err != nil {
			return nil, err
		}
		defer stop()
		url = "ws://" + addr + server.StreamPath
	}

	ctx, cancel := context.WithTimeout(ctx, o.duration)
	defer cancel()

	var (
		res     benchResult
		mu      sync.Mutex
		events  atomic.Uint64
		failed  atomic.Uint64
		before  runtime.MemStats
		after   runtime.MemStats
		started = time.Now()
	)
	runtime.GC()
	runtime.ReadMemStats(&before)

	var g errgroup.Group
	for i := 0; i < o.clients; i++ {
		id := i
		g.Go(func() error {
			samples, err := benchClient(ctx, url, id, o.rate)
			mu.Lock()
			res.latencies = append(res.latencies, samples...)
			mu.Unlock()
			events.Add(uint64(len(samples)))
			if err != nil {
				failed.Add(1)
			}
			return nil
		})
	}
	g.Wait()

	runtime.GC()
	runtime.ReadMemStats(&after)

	res.elapsed = time.Since(started)
	res.events = events.Load()
	res.errors = failed.Load()
	res.alloc = after.TotalAlloc - before.TotalAlloc
	res.numGC = after.NumGC - before.NumGC
	res.pause = time.Duration(after.PauseTotalNs - before.PauseTotalNs)
	sort.Slice(res.latencies, func(i, j int) bool { return res.latencies[i] < res.latencies[j] })
	return &res, nil
}

// startBenchServer serves the sample application on a loopback port.
func startBenchServer() (func(), string, error) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		return nil, "", err
	}
	config := server.DefaultConfig()
	config.CheckOrigin = func(*http.Request) bool { return true }
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	stream := server.NewSimpleServer(sample.Root(nil), config, server.WithLogger(logger))
	srv := &http.Server{Handler: stream}
	go srv.Serve(ln)

	stop := func() {
		stream.Close()
		srv.Shutdown(context.Background())
	}
	return stop, ln.Addr().String(), nil
}

// benchClient types tokens into the todo input and times how long each
// takes to come back as the input's value.
func benchClient(ctx context.Context, url string, id int, rate float64) ([]time.Duration, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d, err := display.Dial(ctx, url, display.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	defer d.Close()

	tree, err := d.WaitFor(ctx, display.Has(display.ByID("todo-input")))
	if err != nil {
		return nil, err
	}
	input, _, _ := vdom.Find(tree, display.ByID("todo-input"))

	period := time.Duration(float64(time.Second) / rate)
	var samples []time.Duration
	for seq := 1; ; seq++ {
		token := fmt.Sprintf("c%d-%d", id, seq)
		start := time.Now()
		if err := d.Input(ctx, input, token); err != nil {
			return samples, ignoreDone(ctx, err)
		}
		if _, err := d.WaitFor(ctx, display.Has(display.ByAttr("value", token))); err != nil {
			return samples, ignoreDone(ctx, err)
		}
		samples = append(samples, time.Since(start))

		if sleep := period - time.Since(start); sleep > 0 {
			select {
			case <-ctx.Done():
				return samples, nil
			case <-time.After(sleep):
			}
		}
	}
}

func ignoreDone(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(float64(len(sorted))*p)) - 1
	idx = max(0, min(idx, len(sorted)-1))
	return sorted[idx]
}

func (r *benchResult) print(w io.Writer, o benchOptions) {
	seconds := math.Max(0.001, r.elapsed.Seconds())
	fmt.Fprintf(w, "Clients:    %d\n", o.clients)
	fmt.Fprintf(w, "Duration:   %s\n", o.duration)
	fmt.Fprintf(w, "Events:     %d\n", r.events)
	fmt.Fprintf(w, "Errors:     %d\n", r.errors)
	fmt.Fprintf(w, "Throughput: %.1f events/s\n", float64(r.events)/seconds)
	fmt.Fprintln(w)

	if len(r.latencies) == 0 {
		fmt.Fprintln(w, "No latency samples recorded.")
	} else {
		fmt.Fprintln(w, "Round trip:")
		fmt.Fprintf(w, "  min: %s\n", r.latencies[0])
		fmt.Fprintf(w, "  p50: %s\n", percentile(r.latencies, 0.50))
		fmt.Fprintf(w, "  p95: %s\n", percentile(r.latencies, 0.95))
		fmt.Fprintf(w, "  p99: %s\n", percentile(r.latencies, 0.99))
		fmt.Fprintf(w, "  max: %s\n", r.latencies[len(r.latencies)-1])
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Runtime (process-wide):")
	fmt.Fprintf(w, "  alloc:    %.2f MB\n", float64(r.alloc)/(1024*1024))
	fmt.Fprintf(w, "  num_gc:   %d\n", r.numGC)
	fmt.Fprintf(w, "  gc_pause: %s\n", r.pause)
}
