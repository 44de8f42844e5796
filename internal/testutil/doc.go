// Package testutil contains helper builders used across tests to construct
// wire payloads (inbound messages and response envelopes) without hand
// writing JSON. They are not intended for production usage.
package testutil
