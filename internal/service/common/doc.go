// Package common holds helpers shared by several services.
//
// It provides a lightweight gRPC client wrapper for the SecurityService with
// timeouts and detection of the operator (user@hostname) sent with each call.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
