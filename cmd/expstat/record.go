package main

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	_ "github.com/ClickHouse/clickhouse-go"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ablab/experimentutils"
	"github.com/ablab/experimentutils/recorder"
)

var (
	dsn           string
	csvPath       string
	spoolDir      string
	flushInterval time.Duration
	flushLimit    int
)

// recordCmd streams observations from a CSV into ClickHouse
var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Stream experiment observations from a CSV into ClickHouse",
	Long: `record reads observations from a CSV file and batch-inserts them
through the buffering recorder.

Expected columns: experiment,variant,unit,metric,value[,observed_at]
with observed_at in RFC 3339. A header row is skipped when present. All
rows of one invocation share a fresh run ID.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := sql.Open("clickhouse", dsn)
		if err != nil {
			return err
		}
		defer db.Close()

		rec := recorder.NewRecorder(db, recorder.Config{
			Logger:        logger.Sugar(),
			SpoolDir:      spoolDir,
			FlushInterval: flushInterval,
			FlushLimit:    flushLimit,
		})
		rec.RunFlusher(0, 0)

		n, err := recordCSV(rec, csvPath)

		// Publish whatever made it into the buffers, even on a bad row.
		rec.Stop(true)

		if err != nil {
			return err
		}
		cmd.Printf("recorded %d observations (run %s)\n", n, runID)
		return nil
	},
}

var runID uuid.UUID

func recordCSV(rec *recorder.Recorder, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	runID = uuid.New()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	n := 0
	for line := 1; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}

		if line == 1 && isHeader(row) {
			continue
		}

		obs, err := parseObservation(row)
		if err != nil {
			return n, fmt.Errorf("row %d: %w", line, err)
		}

		if err := rec.Record(obs); err != nil {
			return n, err
		}
		n++
	}
}

// isHeader only skips a first row matching the full documented column
// tuple, so a data row whose experiment happens to be named
// "experiment" is still recorded.
func isHeader(row []string) bool {
	if len(row) < 5 {
		return false
	}
	for i, col := range []string{"experiment", "variant", "unit", "metric", "value"} {
		if row[i] != col {
			return false
		}
	}
	return true
}

func parseObservation(row []string) (*experimentutils.Observation, error) {
	if len(row) < 5 {
		return nil, fmt.Errorf("want at least 5 columns, got %d", len(row))
	}

	value, err := strconv.ParseFloat(row[4], 64)
	if err != nil {
		return nil, fmt.Errorf("bad value %q: %w", row[4], err)
	}

	observedAt := time.Now().UTC()
	if len(row) > 5 && row[5] != "" {
		observedAt, err = time.Parse(time.RFC3339, row[5])
		if err != nil {
			return nil, fmt.Errorf("bad observed_at %q: %w", row[5], err)
		}
	}

	return &experimentutils.Observation{
		RunID:      runID,
		Experiment: row[0],
		Variant:    row[1],
		Unit:       row[2],
		Metric:     row[3],
		Value:      value,
		ObservedAt: observedAt,
	}, nil
}

func init() {
	recordCmd.Flags().StringVar(&dsn, "dsn", "tcp://127.0.0.1:9000?debug=false", "ClickHouse DSN")
	recordCmd.Flags().StringVarP(&csvPath, "input", "i", "", "CSV file with observations")
	recordCmd.Flags().StringVar(&spoolDir, "spool-dir", "", "directory for on-disk spools (default a temp dir)")
	recordCmd.Flags().DurationVar(&flushInterval, "flush-interval", time.Second, "how often buffered observations are published")
	recordCmd.Flags().IntVar(&flushLimit, "flush-limit", 1000, "max observations published per flush")
	_ = recordCmd.MarkFlagRequired("input")
}
