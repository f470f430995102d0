package lsm

import "time"

// runFlushWorker is the dedicated flush worker. Exactly one runs per
// engine, started by Open and stopped by Close. It is the only writer of
// new SSTs during the engine's lifetime.
func (e *Engine) runFlushWorker() {
	defer close(e.workerDone)

	for {
		msg := e.queue.receive()
		if msg.kind == flushSignalStop {
			return
		}
		if err := e.flushOldest(); err != nil {
			// No retry here: the immutable stays queued and its WAL segment
			// stays on disk, so the data survives for replay at next open.
			// TODO: retry with backoff before giving up on a flush.
			continue
		}
	}
}

// flushOldest takes the state lock exclusive, reads the current snapshot's
// oldest immutable memtable, persists it as an SST reusing its own id, then
// publishes a snapshot with that SST swapped in for the immutable it
// replaced.
func (e *Engine) flushOldest() error {
	e.stateLock.Lock()
	defer e.stateLock.Unlock()

	e.snapshotLock.RLock()
	snap := e.snapshot
	e.snapshotLock.RUnlock()

	m := snap.oldestImmutable()
	if m == nil {
		return nil
	}

	start := time.Now()
	sst, err := sstableFromMemtable(m, e.dir, e.sstableOptions())
	if err != nil {
		return err
	}
	e.metrics.flushDuration.Observe(time.Since(start).Seconds())

	e.snapshotLock.Lock()
	e.snapshot = snap.withFlushedSSTable(sst)
	e.snapshotLock.Unlock()

	e.truncateWAL(m.ID())

	e.metrics.flushesTotal.Inc()
	e.metrics.sstablesTotal.Set(float64(len(e.snapshot.sstables)))
	return nil
}
