// Package logger wraps zap for the start-sequence controller:
//   - a global sugared logger writing plain console lines, color-free
//     because the output usually lands on a serial console,
//   - context helpers so every scheduled task logs through the logger
//     attached to its context,
//   - level parsing for the settings profile and the --log-level flag,
//     including a per-logger override option (WithLevel).
//
// Every blocking entry point takes a context; the logger travels with it.
package logger
