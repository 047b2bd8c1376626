// Package journal records Bridge engine activity in SQLite.
//
// Recorder implements bridge.Observer: every completed request, connection
// transition and dispatched push event becomes a row in bridge_journal.
// Observer callbacks only enqueue; a single writer goroutine inserts rows,
// so a slow disk never stalls the engine. When the queue is full new
// entries are dropped and counted.
//
// The control API exposes List through GET /api/v1/journal.
package journal
