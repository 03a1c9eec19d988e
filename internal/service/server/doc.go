// Package server runs the catpoint security engine behind the SecurityService
// gRPC API, choosing the state store, image classifier and event listeners
// from configuration.
package server
