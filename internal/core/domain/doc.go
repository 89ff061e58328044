// Package domain contains the core types for the document curation
// pipeline: raw documents as collected from a source, the mutable record
// threaded through processing stages, and the domain errors shared across
// the system.
package domain
