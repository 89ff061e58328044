// Package driven defines the driven ports (secondary interfaces) of the
// pipeline core: stage contracts, document collectors, and record
// storage. Adapters implement these; the core depends only on them.
package driven
