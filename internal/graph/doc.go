// Package graph provides a small client abstraction over Neo4j.
//
// GraphClient covers what the secondary memory store needs: connecting,
// a single-shot liveness probe, read queries and node creation. Neo4jClient
// is the production implementation on the official Go driver and
// MockGraphClient is a recording in-memory double for tests.
//
// The driver is created lazily. NewNeo4jClient never touches the network, so
// a process can start while the graph database is down and pick it up on the
// first successful Probe.
package graph
