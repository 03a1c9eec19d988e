// Package security contains core domain types of the home security monitor.
//
// It defines Sensor (a named, typed door/window/motion device), the
// ArmingStatus and AlarmStatus enums, and State, a snapshot of everything the
// state store persists. Enums are textual on the wire and parse strictly:
// unknown values are rejected instead of being carried around.
package security
