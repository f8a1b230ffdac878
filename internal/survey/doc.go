// Package survey holds the cave survey data model: stations, shots, survey
// chunks, and the trip/cave/region project hierarchy they are committed into.
//
// A Chunk is one contiguous traverse. Its core invariant is
//
//	StationCount() == ShotCount() + 1   (whenever the chunk is non-empty)
//
// Every public mutation either keeps the invariant or is refused as a silent
// no-op. Mutations are reported to an optional Observer as Change values
// carrying half-open [Begin, End) index ranges or a (Role, Index) key.
//
// Field values move in and out of a chunk as text keyed by Role, mirroring
// how an editor reads and writes cells. Each field carries an explicit state
// (Empty / Valid, plus Up / Down sentinels for inclinations) so that a value
// missing from the source data is never confused with zero.
//
// Trips own their chunks exclusively; caves own trips; the region owns caves.
// Stations and shots are values and are copied between chunks.
package survey
