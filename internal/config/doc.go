// Package config defines the settings shared by the catpoint binaries and
// provides helpers to load, validate and save them in YAML format.
//
// Config holds the gRPC server address, the log level, and the sections that
// select the state store, the image classifier and the optional MQTT feed.
package config
