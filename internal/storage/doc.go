// Package storage persists trajectories.
//
// A trajectory is written as a CSV table with a leading unnamed index column
// followed by Time, Position and Momentum. Floats are written in their
// shortest round-trip form so [ReadTable] recovers them bit for bit. The same
// rows can be exported to Parquet, and [Store] keeps whole runs (metadata and
// trajectory) in per-run directories.
package storage
