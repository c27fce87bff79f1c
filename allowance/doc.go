// Package allowance implements the permission record store and its mode
// dispatch state machine.
//
// Records are reconciled by the logical timestamp embedded in each write, not
// by arrival order: the same signed authorization may land on independent
// execution contexts at different wall-clock times, and both contexts must
// converge on the same final record. Defensive operations (Decrease, Lock)
// ignore the timestamp and always apply; permissive operations (Increase,
// Unlock) respect it and refuse to be overridden by stale replays.
package allowance
