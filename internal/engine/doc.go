// Package engine contains the game loop and simulation logic.
// This is the heartbeat of OVERHEAT.
//
// A Session is advanced one tick at a time by Tick(dt). Every timed effect
// (spawn cadence, popup lifetimes, freeze windows, power-up delays) is a
// deadline compared against the session's elapsed time, never a blocking
// wait. The systems hold no locks: Engine is the only type meant to be
// shared between goroutines.
package engine
