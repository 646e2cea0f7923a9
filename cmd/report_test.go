package cmd

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

const sampleTxs = `[
  {"id":"t1","user_id":"u1","plaza_id":"p1","generator_id":"tank","fuel_amount":200,
   "transaction_date":"2026-01-01T08:00:00Z","created_at":"2026-01-01T08:00:00Z"},
  {"id":"t2","user_id":"u1","plaza_id":"p1","generator_id":"g1","fuel_amount":-20,"odometer_hours":100,
   "transaction_date":"2026-01-02T08:00:00Z","created_at":"2026-01-02T08:00:00Z"},
  {"id":"t3","user_id":"u1","plaza_id":"p1","generator_id":"g1","fuel_amount":-20,"odometer_hours":105,
   "transaction_date":"2026-01-03T08:00:00Z","created_at":"2026-01-03T08:00:00Z"}
]`

const sampleRefs = `{"plazas":[{"id":"p1","name":"North"}],"generators":[{"id":"g1","plaza_id":"p1","name":"Gen 1"}]}`

func TestRunReportCSV(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "txs.json")
	refs := filepath.Join(dir, "refs.json")
	if err := os.WriteFile(in, []byte(sampleTxs), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(refs, []byte(sampleRefs), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	var out bytes.Buffer
	if err := runReport(context.Background(), reportOptions{in: in, refs: refs, format: "csv", out: "-"}, &out, nil); err != nil {
		t.Fatalf("run report: %v", err)
	}
	records, err := csv.NewReader(&out).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected header and 3 rows, got %d", len(records))
	}
	newest := records[1]
	if newest[3] != "Gen 1" || newest[7] != "5" || newest[8] != "0.25" {
		t.Fatalf("unexpected newest row %v", newest)
	}
}

func TestRunReportNeedsOutForBinary(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "txs.json")
	if err := os.WriteFile(in, []byte(sampleTxs), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := runReport(context.Background(), reportOptions{in: in, format: "pdf", out: "-"}, &bytes.Buffer{}, nil); err == nil {
		t.Fatalf("expected error writing pdf to stdout")
	}
	out := filepath.Join(dir, "r.xlsx")
	if err := runReport(context.Background(), reportOptions{in: in, format: "xlsx", out: out}, &bytes.Buffer{}, nil); err != nil {
		t.Fatalf("xlsx report: %v", err)
	}
	if info, err := os.Stat(out); err != nil || info.Size() == 0 {
		t.Fatalf("xlsx not written: %v", err)
	}
}
