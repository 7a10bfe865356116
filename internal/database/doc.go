// Package database provides SQLite-based storage for analysis history.
//
// HistoryDB stores:
//   - One row per analysis with its counts, percentages, the artifact
//     fingerprint and the full result as JSON
//   - The last fetch metadata of every analyzed URL
//
// The database is a single file under the XDG data directory, opened
// through the CGO-free modernc.org/sqlite driver in WAL mode.
package database
