package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/sync/errgroup"
)

const (
	defaultAPIURL      = "http://localhost:8080"
	defaultConcurrency = 20
	maxConcurrency     = 200

	defaultRequestTimeout = 10 * time.Second
)

type Config struct {
	APIURL         string
	Count          int           // Number of registrations to submit
	Concurrency    int           // Number of in-flight requests
	RequestTimeout time.Duration // Timeout for each request
	OutputFile     string        // Output markdown file path (optional)
	Debug          bool
}

// Attempt is the outcome of a single registration request
type Attempt struct {
	Identifier     string
	StatusCode     int
	ErrorCode      string
	SequenceNumber uint64
	Latency        time.Duration
	Err            error
}

// RunStats summarizes a benchmark run
type RunStats struct {
	StartTime     time.Time
	Duration      time.Duration
	Total         int
	Accepted      int
	Rejected      map[string]int // by API error code
	Failed        int            // transport errors and 5xx
	Duplicates    []uint64       // sequence numbers handed out more than once
	Gaps          []uint64       // numbers missing between the lowest and highest accepted
	MinSequence   uint64
	MaxSequence   uint64
	P50, P95, P99 time.Duration
	Population    *PopulationStats
}

// PopulationStats mirrors the /stats response
type PopulationStats struct {
	TotalWitnesses  int64  `json:"totalWitnesses"`
	TargetWitnesses int64  `json:"targetWitnesses"`
	PercentComplete int    `json:"percentComplete"`
	DaysRemaining   int    `json:"daysRemaining"`
	Tier            string `json:"tier"`
	Urgent          bool   `json:"urgent"`
}

func main() {
	cfg := parseFlags()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	fmt.Printf("Target API: %s\n", cfg.APIURL)
	fmt.Printf("Submitting %d registrations with concurrency %d\n\n", cfg.Count, cfg.Concurrency)

	client := &http.Client{Timeout: cfg.RequestTimeout}
	stats, err := runBenchmark(ctx, client, cfg)
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Printf("Error running benchmark: %v\n", err)
		os.Exit(1)
	}

	header := "BENCHMARK RESULTS"
	if errors.Is(err, context.Canceled) {
		header = "INTERRUPTED - PARTIAL RESULTS"
	}
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println(header)
	fmt.Println(strings.Repeat("=", 80))
	printRunStats(stats)

	if cfg.OutputFile != "" {
		if err := writeMarkdownReport(cfg.OutputFile, stats); err != nil {
			fmt.Printf("\n⚠️  Warning: Failed to write markdown file: %v\n", err)
		} else {
			fmt.Printf("\n✓ Report written to: %s\n", cfg.OutputFile)
		}
	}

	if len(stats.Duplicates) > 0 {
		os.Exit(2)
	}
}

func parseFlags() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.APIURL, "api-url", defaultAPIURL, "Base URL of the witness API")
	flag.IntVar(&cfg.Count, "count", 100, "Number of registrations to submit")
	flag.IntVar(&cfg.Concurrency, "concurrency", defaultConcurrency, "Number of concurrent requests (default: 20, max: 200)")
	flag.StringVar(&cfg.OutputFile, "output", "", "Output markdown file path (optional)")
	flag.BoolVar(&cfg.Debug, "debug", false, "Enable debug logging")

	var requestTimeoutSeconds int
	flag.IntVar(&requestTimeoutSeconds, "request-timeout", int(defaultRequestTimeout/time.Second), "Timeout for each request in seconds (default: 10)")

	configFile := flag.String("config", "", "Path to config file (optional)")
	saveConfig := flag.Bool("save-config", false, "Save api-url, concurrency and request-timeout to the default config path")

	flag.Parse()

	cfg.RequestTimeout = time.Duration(requestTimeoutSeconds) * time.Second

	if cfg.Count <= 0 {
		cfg.Count = 1
	}

	if *configFile != "" {
		fileCfg, err := LoadConfig(*configFile)
		if err != nil {
			fmt.Printf("Warning: failed to load config file: %v\n", err)
		} else {
			fileCfg.applyTo(cfg)
		}
	}

	// Validate concurrency
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.Concurrency > maxConcurrency {
		cfg.Concurrency = maxConcurrency // Cap to avoid exhausting the API's connection pool
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")

	if *saveConfig {
		path := DefaultConfigPath()
		if err := SaveConfig(path, newBenchmarkConfig(cfg)); err != nil {
			fmt.Printf("Warning: failed to save config file: %v\n", err)
		} else {
			fmt.Printf("Saved config to %s\n", path)
		}
	}

	return cfg
}

// runBenchmark submits cfg.Count registrations from fresh keys and collects the outcome.
// Stats are returned even when the context is canceled part way.
func runBenchmark(ctx context.Context, client *http.Client, cfg *Config) (*RunStats, error) {
	attempts := make([]Attempt, 0, cfg.Count)
	var mu sync.Mutex

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)

	for i := 0; i < cfg.Count; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			attempt := register(gctx, client, cfg.APIURL)
			if cfg.Debug {
				fmt.Printf("[DEBUG] %s -> %d %s seq=%d (%s)\n",
					attempt.Identifier, attempt.StatusCode, attempt.ErrorCode, attempt.SequenceNumber, formatDuration(attempt.Latency))
			}

			mu.Lock()
			attempts = append(attempts, attempt)
			done := len(attempts)
			mu.Unlock()

			if !cfg.Debug {
				fmt.Printf("\r⏳ Registering... (%d/%d)    ", done, cfg.Count)
			}
			return nil
		})
	}
	_ = g.Wait()
	fmt.Println()

	stats := analyzeAttempts(attempts)
	stats.StartTime = start
	stats.Duration = time.Since(start)

	if ctx.Err() != nil {
		return stats, ctx.Err()
	}

	population, err := fetchPopulation(ctx, client, cfg.APIURL)
	if err != nil {
		fmt.Printf("Warning: failed to fetch stats: %v\n", err)
	}
	stats.Population = population

	return stats, nil
}

// register signs a throwaway message with a fresh key and submits it
func register(ctx context.Context, client *http.Client, apiURL string) Attempt {
	key, err := crypto.GenerateKey()
	if err != nil {
		return Attempt{Err: err}
	}
	identifier := strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex())
	signedAt := time.Now().UTC()

	message := fmt.Sprintf("I witness the covenant as %s at %d", identifier, signedAt.Unix())
	signature, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	if err != nil {
		return Attempt{Identifier: identifier, Err: err}
	}

	body, err := json.Marshal(map[string]any{
		"identifier": identifier,
		"proofHash":  hexutil.Encode(crypto.Keccak256(signature)),
		"signedAt":   signedAt.Format(time.RFC3339),
	})
	if err != nil {
		return Attempt{Identifier: identifier, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+"/witnesses", bytes.NewReader(body))
	if err != nil {
		return Attempt{Identifier: identifier, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := client.Do(req)
	attempt := Attempt{Identifier: identifier, Latency: time.Since(started)}
	if err != nil {
		attempt.Err = err
		return attempt
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	attempt.StatusCode = resp.StatusCode

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		attempt.Err = err
		return attempt
	}

	var decoded struct {
		Error   string `json:"error"`
		Witness struct {
			SequenceNumber uint64 `json:"sequenceNumber"`
		} `json:"witness"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		attempt.Err = fmt.Errorf("undecodable response: %w", err)
		return attempt
	}
	attempt.ErrorCode = decoded.Error
	attempt.SequenceNumber = decoded.Witness.SequenceNumber
	return attempt
}

func fetchPopulation(ctx context.Context, client *http.Client, apiURL string) (*PopulationStats, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+"/stats", nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var stats PopulationStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// analyzeAttempts counts outcomes and checks that accepted sequence numbers are unique
// and dense. Gaps are only reported inside the accepted range, since other clients may
// register concurrently with the benchmark.
func analyzeAttempts(attempts []Attempt) *RunStats {
	stats := &RunStats{
		Total:    len(attempts),
		Rejected: make(map[string]int),
	}

	seen := make(map[uint64]int)
	var latencies []time.Duration
	for _, a := range attempts {
		switch {
		case a.Err != nil || a.StatusCode >= http.StatusInternalServerError || a.StatusCode == 0:
			stats.Failed++
		case a.StatusCode == http.StatusOK:
			stats.Accepted++
			seen[a.SequenceNumber]++
		default:
			code := a.ErrorCode
			if code == "" {
				code = fmt.Sprintf("HTTP %d", a.StatusCode)
			}
			stats.Rejected[code]++
		}
		if a.Latency > 0 {
			latencies = append(latencies, a.Latency)
		}
	}

	for seq, count := range seen {
		if count > 1 {
			stats.Duplicates = append(stats.Duplicates, seq)
		}
		if stats.MinSequence == 0 || seq < stats.MinSequence {
			stats.MinSequence = seq
		}
		if seq > stats.MaxSequence {
			stats.MaxSequence = seq
		}
	}
	sort.Slice(stats.Duplicates, func(i, j int) bool { return stats.Duplicates[i] < stats.Duplicates[j] })

	for seq := stats.MinSequence; len(seen) > 0 && seq <= stats.MaxSequence; seq++ {
		if _, ok := seen[seq]; !ok {
			stats.Gaps = append(stats.Gaps, seq)
		}
	}

	stats.P50 = percentile(latencies, 50)
	stats.P95 = percentile(latencies, 95)
	stats.P99 = percentile(latencies, 99)
	return stats
}

func sortedRejections(stats *RunStats) []string {
	codes := make([]string, 0, len(stats.Rejected))
	for code := range stats.Rejected {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func printRunStats(stats *RunStats) {
	fmt.Println(strings.Repeat("-", 80))
	fmt.Printf("Registrations: %s\n", statusEmoji(stats.Accepted, len(stats.Duplicates)+stats.Failed, 0))
	fmt.Printf("  Start Time:  %s\n", stats.StartTime.Format("2006-01-02 15:04:05"))
	fmt.Printf("  Duration:    %s\n", formatDuration(stats.Duration))
	fmt.Printf("  Total:       %d\n", stats.Total)
	fmt.Printf("  Accepted:    %d (%s)\n", stats.Accepted, percentageString(stats.Accepted, stats.Total))
	for _, code := range sortedRejections(stats) {
		fmt.Printf("  %-12s %d (%s)\n", code+":", stats.Rejected[code], percentageString(stats.Rejected[code], stats.Total))
	}
	if stats.Failed > 0 {
		fmt.Printf("  Failed:      %d (%s)\n", stats.Failed, percentageString(stats.Failed, stats.Total))
	}
	fmt.Printf("  Rate:        %s\n", formatRate(stats.Total, stats.Duration))
	fmt.Println()

	fmt.Println("Latency:")
	fmt.Printf("  p50:         %s\n", formatDuration(stats.P50))
	fmt.Printf("  p95:         %s\n", formatDuration(stats.P95))
	fmt.Printf("  p99:         %s\n", formatDuration(stats.P99))
	fmt.Println()

	fmt.Println("Sequence Numbers:")
	if stats.Accepted > 0 {
		fmt.Printf("  Range:       %d..%d\n", stats.MinSequence, stats.MaxSequence)
	}
	fmt.Printf("  Duplicates:  %d\n", len(stats.Duplicates))
	fmt.Printf("  Gaps:        %d\n", len(stats.Gaps))
	if len(stats.Duplicates) > 0 {
		fmt.Printf("  ❌ Duplicated: %v\n", stats.Duplicates)
	}

	if stats.Population != nil {
		fmt.Println()
		fmt.Println("Population:")
		fmt.Printf("  Witnesses:   %d / %d (%d%%)\n",
			stats.Population.TotalWitnesses, stats.Population.TargetWitnesses, stats.Population.PercentComplete)
		fmt.Printf("  Tier:        %s\n", stats.Population.Tier)
		fmt.Printf("  Days Left:   %d\n", stats.Population.DaysRemaining)
	}
	fmt.Println(strings.Repeat("-", 80))
}

// writeMarkdownReport writes a markdown report of the run
func writeMarkdownReport(filepath string, stats *RunStats) error {
	file, err := os.Create(filepath)
	if err != nil {
		return err
	}
	defer func() {
		_ = file.Close()
	}()

	_, _ = fmt.Fprintf(file, "# Registration Benchmark Report\n\n")
	_, _ = fmt.Fprintf(file, "Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))

	_, _ = fmt.Fprintf(file, "## Summary\n\n")
	_, _ = fmt.Fprintf(file, "| Metric | Value |\n")
	_, _ = fmt.Fprintf(file, "|--------|-------|\n")
	_, _ = fmt.Fprintf(file, "| **Start Time** | %s |\n", stats.StartTime.Format("2006-01-02 15:04:05"))
	_, _ = fmt.Fprintf(file, "| **Duration** | %s |\n", formatDuration(stats.Duration))
	_, _ = fmt.Fprintf(file, "| **Total** | %d |\n", stats.Total)
	_, _ = fmt.Fprintf(file, "| **Accepted** | %d (%s) |\n", stats.Accepted, percentageString(stats.Accepted, stats.Total))
	for _, code := range sortedRejections(stats) {
		_, _ = fmt.Fprintf(file, "| **%s** | %d (%s) |\n", code, stats.Rejected[code], percentageString(stats.Rejected[code], stats.Total))
	}
	if stats.Failed > 0 {
		_, _ = fmt.Fprintf(file, "| **Failed** | %d (%s) |\n", stats.Failed, percentageString(stats.Failed, stats.Total))
	}
	_, _ = fmt.Fprintf(file, "| **Rate** | %s |\n", formatRate(stats.Total, stats.Duration))
	_, _ = fmt.Fprintf(file, "\n")

	_, _ = fmt.Fprintf(file, "## Latency\n\n")
	_, _ = fmt.Fprintf(file, "| Percentile | Value |\n")
	_, _ = fmt.Fprintf(file, "|------------|-------|\n")
	_, _ = fmt.Fprintf(file, "| p50 | %s |\n", formatDuration(stats.P50))
	_, _ = fmt.Fprintf(file, "| p95 | %s |\n", formatDuration(stats.P95))
	_, _ = fmt.Fprintf(file, "| p99 | %s |\n", formatDuration(stats.P99))
	_, _ = fmt.Fprintf(file, "\n")

	_, _ = fmt.Fprintf(file, "## Sequence Numbers %s\n\n", statusEmoji(stats.Accepted, len(stats.Duplicates), 0))
	_, _ = fmt.Fprintf(file, "| Metric | Value |\n")
	_, _ = fmt.Fprintf(file, "|--------|-------|\n")
	if stats.Accepted > 0 {
		_, _ = fmt.Fprintf(file, "| **Range** | %d..%d |\n", stats.MinSequence, stats.MaxSequence)
	}
	_, _ = fmt.Fprintf(file, "| **Duplicates** | %d |\n", len(stats.Duplicates))
	_, _ = fmt.Fprintf(file, "| **Gaps** | %d |\n", len(stats.Gaps))
	_, _ = fmt.Fprintf(file, "\n")

	if stats.Population != nil {
		_, _ = fmt.Fprintf(file, "## Population\n\n")
		_, _ = fmt.Fprintf(file, "| Metric | Value |\n")
		_, _ = fmt.Fprintf(file, "|--------|-------|\n")
		_, _ = fmt.Fprintf(file, "| **Witnesses** | %d / %d |\n", stats.Population.TotalWitnesses, stats.Population.TargetWitnesses)
		_, _ = fmt.Fprintf(file, "| **Percent Complete** | %d%% |\n", stats.Population.PercentComplete)
		_, _ = fmt.Fprintf(file, "| **Tier** | %s |\n", stats.Population.Tier)
		_, _ = fmt.Fprintf(file, "| **Days Remaining** | %d |\n", stats.Population.DaysRemaining)
		_, _ = fmt.Fprintf(file, "\n")
	}

	return nil
}
