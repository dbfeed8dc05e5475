// Package logx configures structured logging for this repo.
//
// It is a small wrapper (logx.Logger) on top of zerolog that keeps:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//   - An optional per-second rate cap so bursty scheduling telemetry
//     cannot flood the sinks
package logx
