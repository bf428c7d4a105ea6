// Package record owns binary decoding of memory logger records.
//
// Ownership boundary:
// - positional field codec driven by registry layouts
// - state queue records and the ACD variant sub-record
// - fixed-stride scanning over an in-memory dump
package record
