// Command lineage-report renders a population or lineage report from a
// species database and stores the artifacts in the configured blob backend.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"speciescore/internal/core"
	"speciescore/internal/history"
	"speciescore/internal/infra/blob"
	"speciescore/internal/infra/persistence/sqlite"
)

var exitFunc = os.Exit

func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("lineage-report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		dbPath    string
		kind      string
		formats   string
		requester string
		timeout   time.Duration
	)
	fs.StringVar(&dbPath, "db", "speciescore.db", "path to the species sqlite database")
	fs.StringVar(&kind, "kind", string(history.ReportPopulation), "report kind: population|lineage")
	fs.StringVar(&formats, "formats", "json,csv", "comma-separated report formats")
	fs.StringVar(&requester, "requested-by", "lineage-report", "actor recorded in the audit trail")
	fs.DurationVar(&timeout, "timeout", 30*time.Second, "maximum time to wait for the report")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	store, err := sqlite.NewStore(dbPath, core.NewDefaultRulesEngine())
	if err != nil {
		fmt.Fprintf(stderr, "open store: %v\n", err)
		return 1
	}
	defer func() { _ = store.Close() }()

	artifacts, err := blob.Open(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "open blob store: %v\n", err)
		return 1
	}

	worker := history.NewWorker(store, artifacts, &history.MemoryAuditLog{})
	worker.Start()
	defer func() { _ = worker.Stop(context.Background()) }()

	var reportFormats []history.ReportFormat
	for _, format := range strings.Split(formats, ",") {
		format = strings.TrimSpace(format)
		if format == "" {
			continue
		}
		reportFormats = append(reportFormats, history.ReportFormat(format))
	}

	queued, err := worker.Enqueue(ctx, history.ReportInput{
		Kind:        history.ReportKind(kind),
		Formats:     reportFormats,
		RequestedBy: requester,
	})
	if err != nil {
		fmt.Fprintf(stderr, "enqueue report: %v\n", err)
		return 1
	}

	record, err := waitForReport(ctx, worker, queued.ID)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	if record.Status != history.StatusSucceeded {
		fmt.Fprintf(stderr, "report failed: %s\n", record.Error)
		return 1
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(record); err != nil {
		fmt.Fprintf(stderr, "encode record: %v\n", err)
		return 1
	}
	return 0
}

func waitForReport(ctx context.Context, worker *history.Worker, id string) (history.ReportRecord, error) {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		record, ok := worker.Get(id)
		if !ok {
			return history.ReportRecord{}, fmt.Errorf("report %s not found", id)
		}
		if record.Status == history.StatusSucceeded || record.Status == history.StatusFailed {
			return record, nil
		}
		select {
		case <-ctx.Done():
			return history.ReportRecord{}, fmt.Errorf("report %s timed out in status %s", id, record.Status)
		case <-ticker.C:
		}
	}
}
