package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/ablab/experimentutils"
	"github.com/ablab/experimentutils/queue/file"
	"github.com/ablab/experimentutils/queue/memory"
)

var ErrShutdown = errors.New("recorder shutdown")

// nopLogger keeps the recorder usable when no logger is configured and
// the default zap logger cannot be built.
type nopLogger struct{}

func (nopLogger) Infow(string, ...interface{})  {}
func (nopLogger) Warnw(string, ...interface{})  {}
func (nopLogger) Errorw(string, ...interface{}) {}

func NewRecorder(connect *sql.DB, config ...Config) *Recorder {
	// Set default config
	cfg := configDefault(config...)

	logger, err := experimentutils.NewStdLogger()
	if cfg.Logger != nil {
		logger = cfg.Logger
	} else if err != nil {
		logger = nopLogger{}
	}

	return &Recorder{
		cfg: cfg,
		filePool: NewPool(
			func(record experimentutils.Record) (experimentutils.Queue, error) {
				return file.NewSpoolByRecord(record, file.Config{
					Dir: cfg.SpoolDir,
				})
			},
		),
		memoryPool: NewPool(func(_ experimentutils.Record) (experimentutils.Queue, error) {
			return memory.NewQueue(), nil
		}),
		stopSig: make(chan bool),
		connect: connect,
		logger:  logger,
	}
}

// Recorder buffers experiment observations on disk and batch-inserts
// them into analytical storage on a fixed interval.
type Recorder struct {
	cfg Config

	logger experimentutils.Logger

	filePool   experimentutils.Pool
	memoryPool experimentutils.Pool

	stopSig  chan bool
	connect  *sql.DB
	shutdown int32
}

// Stop shuts the recorder down. With flushTail the buffered tail is
// published before returning, otherwise it is spilled to the spool.
func (r *Recorder) Stop(flushTail bool) {
	atomic.StoreInt32(&r.shutdown, 1)
	r.stopSig <- flushTail
	<-r.stopSig
}

// Record buffers one observation for publishing.
func (r *Recorder) Record(obs *experimentutils.Observation) error {
	return r.Push(obs)
}

func (r *Recorder) Push(record experimentutils.Record) error {
	if atomic.LoadInt32(&r.shutdown) != 0 {
		return ErrShutdown
	}

	if err := r.filePool.Push(record); err != nil {
		if r.cfg.UseMemoryFallback {
			r.logger.Warnw("writing to spool failed", "error", err)

			// the memory queue does not return an error
			_ = r.memoryPool.Push(record)
			return nil
		}
		return fmt.Errorf("writing to spool failed: %w", err)
	}
	return nil
}

func (r *Recorder) publish(query string, records []experimentutils.Record) error {
	return retry.Do(
		func() error { return r.publishOnce(query, records) },
		retry.Attempts(r.cfg.PublishAttempts),
		retry.Delay(50*time.Millisecond),
		retry.LastErrorOnly(true),
	)
}

func (r *Recorder) publishOnce(query string, records []experimentutils.Record) error {
	panicked := true
	tx, err := r.connect.Begin()
	if err != nil {
		return err
	}
	defer func() {
		// Make sure to rollback when panic, Exec error or Commit error
		if panicked || err != nil {
			if err := tx.Rollback(); err != nil {
				r.logger.Errorw("problem when rolling back a transaction", "error", err)
			}
		}
	}()

	err = func() error {
		stmt, err := tx.Prepare(query)
		if err != nil {
			return err
		}

		for _, record := range records {
			if _, err := stmt.Exec(record.ToExec()...); err != nil {
				return err
			}
		}

		return stmt.Close()
	}()

	if err == nil {
		err = tx.Commit()
	}

	panicked = false

	return err
}

func (r *Recorder) fallback(records []experimentutils.Record, memorySafe bool) {
	if err := r.filePool.Append(records); err != nil {
		if memorySafe {
			_ = r.memoryPool.Append(records)
			r.logger.Warnw("error when fallback a write to spool", "error", err)
			return
		}

		r.logger.Errorw("data lost! fatal error when fallback a write to spool",
			"error", err,
			"lost", len(records),
		)
	}
}

func groupBySQL(safes map[string][]experimentutils.Record, records []experimentutils.Record) {
	for _, record := range records {
		query := record.SQL()
		safes[query] = append(safes[query], record)
	}
}

// RunFlusher starts the background flush loop: every period it ejects up
// to limit records, memory first, and publishes them grouped by insert
// statement. Zero or negative arguments fall back to the configured
// FlushInterval and FlushLimit.
func (r *Recorder) RunFlusher(period time.Duration, limit int) {
	if period <= 0 {
		period = r.cfg.FlushInterval
	}
	if period < time.Millisecond {
		period = time.Millisecond
	}
	if limit <= 0 {
		limit = r.cfg.FlushLimit
	}

	t := time.NewTicker(period)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-t.C:
				safes := map[string][]experimentutils.Record{}
				ejected, _ := r.memoryPool.Eject(limit)
				groupBySQL(safes, ejected)

				if rest := limit - len(ejected); rest > 0 {
					ejected, err := r.filePool.Eject(rest)
					if err != nil {
						r.logger.Warnw("problem ejecting spool from disk", "error", err)
					}
					groupBySQL(safes, ejected)
				}

				for query, records := range safes {
					if err := r.publish(query, records); err != nil {
						r.logger.Warnw("publication ended with an error", "error", err)
						r.fallback(records, r.cfg.UseMemoryFallback)
					} else if r.cfg.ShowSuccessfulInfo {
						r.logger.Infow("successfully sent", "count", len(records))
					}
				}
			case flushTail := <-r.stopSig:
				ejected, _ := r.memoryPool.Eject(-1)
				if !flushTail {
					if len(ejected) > 0 {
						if err := r.filePool.Append(ejected); err != nil {
							r.logger.Errorw("data lost! fatal error writing to spool when stopping recorder",
								"error", err,
								"lost", len(ejected),
							)
						}
					}
					close(r.stopSig)
					return
				}

				safes := map[string][]experimentutils.Record{}

				// From memory
				groupBySQL(safes, ejected)

				// From disk
				ejected, err := r.filePool.Eject(-1)
				if err != nil {
					r.logger.Warnw("problem ejecting spool from disk", "error", err)
				}
				groupBySQL(safes, ejected)

				for query, records := range safes {
					if err := r.publish(query, records); err != nil {
						r.logger.Warnw("publication ended with an error", "error", err)
						r.fallback(records, false)
					}
				}

				close(r.stopSig)
				return
			}
		}
	}()
}
