// Package permit implements the orchestration layer: it validates signed
// submissions, consumes replay-protection salts, resolves cross-context
// commitments, and applies operation batches to the allowance store.
//
// A submission is one atomic unit. Authorization failures (deadline, context,
// signature, salt) reject it before any state is touched; a business-rule
// failure on operation k discards the staged effects of operations 1..k-1.
// Nothing is retried internally; every failure surfaces as a typed error so
// the caller can decide whether to re-sign with a fresh salt or timestamp.
package permit
