// Package batch expands per-key selections into repeated outputs.
//
// A host call may evaluate several sub-selectors at once and ask for each
// result to be repeated. The selection itself happens once per call; this
// package only multiplies and combines what was already chosen.
package batch
