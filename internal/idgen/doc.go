// Package idgen wraps the UUID generator so it can be stubbed in tests.
// It lives under `internal` because callers should treat identifiers as
// opaque strings and never rely on their exact shape.
package idgen
