// Package memory provides in-process implementations of the persistence
// ports. They honour the same atomicity guarantees as the Mongo and Redis
// backends and are used for local runs and tests.
package memory
