// Package parser owns the per-file memory logger pipeline.
//
// Ownership boundary:
// - input expansion and filename-based dispatch
// - the state queue pipeline: decode, report, lifecycle, call flow
// - report file and diagram placement under the output directory
package parser
