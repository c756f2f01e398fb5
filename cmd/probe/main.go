// Command probe runs a single refresh for one district and prints the
// resulting reading as JSON. It is meant for checking a district name
// against the live feeds, or for replaying a saved feed file.
//
// Usage:
//
//	go run ./cmd/probe -district "Greater Sydney Region"
//	go run ./cmd/probe -district ACT -file internal/domain/testdata/firedangerrating.xml
//
// The exit code is 1 when the reading is unavailable or its state unknown.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/fire-danger-service/internal/adapter/feedhttp"
	"github.com/couchcryptid/fire-danger-service/internal/domain"
	"github.com/couchcryptid/fire-danger-service/internal/observability"
	"github.com/couchcryptid/fire-danger-service/internal/pipeline"
)

func main() {
	district := flag.String("district", "", "district name as published in the feed")
	file := flag.String("file", "", "read the feed from this file instead of fetching it")
	timeout := flag.Duration("timeout", 30*time.Second, "feed request timeout")
	insecure := flag.Bool("insecure", false, "skip TLS certificate verification")
	verbose := flag.Bool("v", false, "log refresh details to stderr")
	flag.Parse()

	if *district == "" {
		flag.Usage()
		os.Exit(2)
	}

	logOut := io.Discard
	if *verbose {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: slog.LevelDebug}))

	os.Exit(run(os.Stdout, *district, *file, *timeout, !*insecure, logger))
}

func run(out io.Writer, district, file string, timeout time.Duration, verifyTLS bool, logger *slog.Logger) int {
	var fetcher domain.Fetcher
	if file != "" {
		fetcher = fileFetcher(file)
	} else {
		fetcher = feedhttp.NewClient(timeout, verifyTLS, observability.NewMetricsForTesting(), logger)
	}

	source := domain.NewSource(domain.JurisdictionFor(district), fetcher, logger)
	sensor := pipeline.NewSensor(source, district, true, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*timeout)
	defer cancel()

	res := sensor.Refresh(ctx)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res.Reading); err != nil {
		fmt.Fprintln(os.Stderr, "encode reading:", err)
		return 1
	}

	if !res.Reading.Available || res.Reading.State == domain.StateUnknown {
		fmt.Fprintf(os.Stderr, "no reading for %q (%s)\n", district, res.Outcome)
		return 1
	}
	return 0
}

// fileFetcher serves the same file for every URL, so a fallback fetch
// replays it too.
type fileFetcher string

func (f fileFetcher) Fetch(_ context.Context, _ string) ([]byte, error) {
	data, err := os.ReadFile(string(f))
	if err != nil {
		return nil, &domain.TransportError{URL: "file://" + string(f), Err: err}
	}
	return data, nil
}
