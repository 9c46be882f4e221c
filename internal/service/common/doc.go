// Package common holds helpers shared by several services.
//
// It provides a lightweight gRPC client for the scheduler control API with
// per-call timeouts, and a writer that serializes lines coming from the
// dispatcher and the console.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
