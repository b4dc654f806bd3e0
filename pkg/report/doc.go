// Package report collects the non-fatal failures of a render run.
//
// Asset downloads never abort rendering. Each failure is recorded with its
// kind, the remote URI and the local place it belonged to; at the end of the
// run the collector is written as render-report.json in the course root and
// summarised on the terminal.
package report
