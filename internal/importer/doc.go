// Package importer turns Walls survey files and projects into a staged
// import tree.
//
// A visitor listens to a walls.SurveyParser and groups the vectors of one
// file into trips. The Importer drives the parser over every requested file,
// collects diagnostics, and applies station LRUDs once all files are read.
// A Worker runs an import on its own goroutine and hands the tree back when
// parsing finishes.
package importer
