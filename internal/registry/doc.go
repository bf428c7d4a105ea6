// Package registry owns record layout and enum definitions.
//
// Ownership boundary:
// - definitions document loading and shape validation
// - named layout lookup
// - enum value to symbol resolution
package registry
