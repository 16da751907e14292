// Package controller is the composition root of the regatta-timer
// process: it loads the behavior profile, opens the GPIO or simulated
// lines, wires the dispatcher, actuators, countdown and button poller
// together, and runs the control loop until shutdown.
package controller
