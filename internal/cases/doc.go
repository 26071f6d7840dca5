// Package cases stores forensic cases and their ordered evidence links.
//
// A case moves between Open, Closed and Archived. Closing stamps closed_at,
// reopening clears it, archiving leaves it untouched. Evidence is linked by
// id in the order it was added; the same evidence can sit in several cases
// but only once in each.
package cases
