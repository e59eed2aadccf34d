//go:build integration

package experimentutils_test

import (
	"context"
	"database/sql"
	"math/rand"
	"os"
	"testing"
	"time"

	_ "github.com/ClickHouse/clickhouse-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ablab/experimentutils"
	"github.com/ablab/experimentutils/recorder"
)

func TestRecorderClickHouse(t *testing.T) {
	dsn := os.Getenv("EXPSTAT_TEST_DSN")
	if dsn == "" {
		dsn = "tcp://127.0.0.1:9000?debug=false"
	}

	connect, err := sql.Open("clickhouse", dsn)
	require.NoError(t, err)
	defer connect.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, connect.PingContext(ctx))

	_, err = connect.Exec(`CREATE DATABASE IF NOT EXISTS experiments`)
	require.NoError(t, err)
	_, err = connect.Exec(`
		CREATE TABLE IF NOT EXISTS experiments.observations (
			run_id      String,
			experiment  String,
			variant     String,
			unit        String,
			metric      String,
			value       Float64,
			observed_at DateTime
		) ENGINE = MergeTree() ORDER BY (experiment, variant, observed_at)
	`)
	require.NoError(t, err)

	rec := recorder.NewRecorder(connect, recorder.Config{
		SpoolDir: t.TempDir(),
	})
	rec.RunFlusher(100*time.Millisecond, 500)

	runID := uuid.New()
	const total = 1000
	for i := 0; i < total; i++ {
		variant := "control"
		if i%2 == 0 {
			variant = "treatment"
		}
		require.NoError(t, rec.Record(&experimentutils.Observation{
			RunID:      runID,
			Experiment: "checkout-button",
			Variant:    variant,
			Unit:       uuid.NewString(),
			Metric:     "revenue",
			Value:      rand.Float64() * 100,
			ObservedAt: time.Now().UTC(),
		}))
	}
	rec.Stop(true)

	var count uint64
	row := connect.QueryRow(
		`SELECT count() FROM experiments.observations WHERE run_id = ?`,
		runID.String(),
	)
	require.NoError(t, row.Scan(&count))
	assert.EqualValues(t, total, count)
}
