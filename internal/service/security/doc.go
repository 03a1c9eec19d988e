// Package security implements the decision engine of the home security monitor.
//
// The Engine reconciles three independent signal sources (sensor activity,
// arming commands and camera cat detection) into one alarm status, persists
// every decision through a Repository and fans status changes out to
// registered StatusListener values.
package security
