// Package scratch owns the local artifacts a run produces.
//
// Manager hands out uuid-named paths in per-kind subdirectories (images/,
// audio/, videos/) of the scratch root and remembers them. Cleanup removes
// every tracked file and then any kind directory left empty. Removal never
// fails a run: problems are logged as warnings and reported in the result.
// CleanStale sweeps files abandoned by earlier runs that crashed before
// their cleanup ran.
package scratch
