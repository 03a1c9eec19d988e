// Package client implements the catpoint CLI commands.
//
// Each command connects to the security server, performs one action and
// prints the resulting state as a table.
package client
