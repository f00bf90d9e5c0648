// Package storage provides implementations of the edwa Store
// contract: a SQLite-backed store for durable server-side page state
// and an in-memory store for tests and single-process deployments.
package storage

import "errors"

// ErrNotFound is returned by Get when no blob exists under the given
// scope and id. StoredCodec surfaces it as a tampering failure.
var ErrNotFound = errors.New("storage: blob not found")
