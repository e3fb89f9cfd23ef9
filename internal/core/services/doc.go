// Package services contains the core orchestration logic: the
// ingestion pipeline (sanitise, chunk, embed, replace) and the query
// pipeline (embed, retrieve, assemble, generate). Services depend only
// on the driven ports, never on concrete adapters.
package services
