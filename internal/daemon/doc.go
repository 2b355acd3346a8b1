// Package daemon runs scan-and-combine passes for as long as the process
// lives.
//
// Passes are triggered at startup, on a robfig/cron schedule, and (optionally)
// by filesystem events below the run parent directories. Every trigger is
// funneled into one goroutine, so passes never overlap; triggers that arrive
// while a pass is running collapse into a single follow-up pass. A flock on
// the state directory keeps a second daemon (or a concurrent `autocombine run`)
// from combining the same runs.
package daemon
