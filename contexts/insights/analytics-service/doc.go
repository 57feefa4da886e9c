// Package analyticsservice folds platform facts into reporting read models:
// daily totals, per-instructor totals and the latest progress of each
// enrollment. It only consumes events.
package analyticsservice
