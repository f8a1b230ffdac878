// Package walls reads Walls cave survey data: .srv survey files, one line at
// a time, and .wpj project files that arrange surveys into books.
//
// SurveyParser keeps the mutable state Walls directives change (units, date,
// station prefixes) and reports what it reads to a Visitor. Recoverable
// problems are reported as Messages; anything that makes the rest of the
// file untrustworthy is returned as a *ParseError.
//
// All lengths are held in meters and all angles in degrees. Units only
// matter when text is read and when values are handed back out.
package walls
