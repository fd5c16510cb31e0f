// Package main provides a performance benchmarking tool for the fanpulse CLI.
// It measures how long growth and survey runs take against one source,
// running each command without a cache, then with a cache where the first
// successful run is cold and the rest are averaged as warm,
// generating CSV output for performance analysis and documentation.
//
// Prerequisites:
// - fanpulse binary installed and available in PATH
// - A reachable source, configured through FANPULSE_* variables or .fanpulse.yaml
//
// Usage: go run benchmark/main.go [cache-backend...]
//
//	cache-backend: Backends to compare against no cache (default: sqlite)
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Backend     string
	Command     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	Timeout     time.Duration
	NoCacheRuns int
	CacheRuns   int
	Backends    []string
	Commands    map[string][]string
}

func main() {
	backends := os.Args[1:]
	if len(backends) == 0 {
		backends = []string{"sqlite"}
	}

	config := BenchmarkConfig{
		Timeout:     2 * time.Minute,
		NoCacheRuns: 3,
		CacheRuns:   4,
		Backends:    backends,
		Commands: map[string][]string{
			"growth-videos": {"growth", "videos"},
			"growth-sns":    {"growth", "sns"},
			"ranking":       {"growth", "videos", "--view", "day"},
			"survey-song":   {"survey", "--field", "song"},
		},
	}

	if _, err := exec.LookPath("fanpulse"); err != nil {
		fmt.Printf("Prerequisites check failed: fanpulse binary not found in PATH\n")
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// runBenchmarks executes every command against every cache backend
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d backends, %v timeout, no-cache: %d runs, cache: %d runs\n",
		len(config.Backends), config.Timeout, config.NoCacheRuns, config.CacheRuns)

	for _, backend := range config.Backends {
		// Every suite starts from an empty cache so the first cached run is cold
		clearCmd := exec.Command("fanpulse", "cache", "clear", "--cache-backend", backend)
		if output, err := clearCmd.CombinedOutput(); err != nil {
			fmt.Printf("Warning: failed to clear %s cache: %v\nOutput: %s\n", backend, err, string(output))
		}

		for name, args := range config.Commands {
			results = append(results, runBenchmarkSuite(config, backend, name, args))
		}
	}

	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, backend, name string, args []string) BenchmarkResult {
	fmt.Printf("Running %s with %s cache\n", name, backend)

	runPhase := func(cacheBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, args, cacheBackend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	_, noCacheAvg := runPhase("none", config.NoCacheRuns, "No-cache")
	coldTime, warmAvg := runPhase(backend, config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Backend:     backend,
		Command:     name,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes a fanpulse command multiple times and returns the cold time and warm times
func runBenchmark(config BenchmarkConfig, args []string, cacheBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	fullArgs := append(append([]string{}, args...), "--cache-backend", cacheBackend)

	var times []float64
	for range numRuns {
		start := time.Now()
		cmd := exec.Command("fanpulse", fullArgs...)

		done := make(chan struct{})
		var output []byte
		var cmdErr error
		go func() {
			output, cmdErr = cmd.CombinedOutput()
			close(done)
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte) bool {
	return strings.Contains(string(output), "Computed in")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/fanpulse_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"backend", "cmd", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Backend, result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %-8s %-14s: No-cache: %s, Cold: %s, Warm: %s\n", result.Backend, result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime)
	}
}
