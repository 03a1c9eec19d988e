// Package notify contains status listeners for the security engine:
// structured logging, in-process fan-out to stream subscribers and
// publication to an MQTT broker.
package notify
