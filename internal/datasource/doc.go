// Package datasource reads the outside temperature reported to the boiler
// by the emulated probe.
//
// The only source is Home Assistant: the state of an entity is fetched from
// its REST API (GET /api/states/<entity_id> with a long-lived bearer token)
// and the temperature is taken from one of its attributes, or from the state
// itself when no attribute is configured. Transient failures are retried
// with exponential backoff.
package datasource
