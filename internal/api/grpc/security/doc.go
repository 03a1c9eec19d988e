// Package security adapts the security engine to the SecurityService gRPC API.
package security
