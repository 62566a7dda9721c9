// Package pipeline runs one candidate from selection to publication.
//
// Orchestrator.Run walks a fixed sequence of states. Each stage either
// succeeds, fails fatally (the run stops, nothing is recorded in history), or
// degrades (the failure is logged and reported, and the run continues without
// that stage's output). Stage failures surface as *StageError values carrying
// the stage and its severity. Local artifacts are removed before Run returns
// whatever the outcome, and the candidate key is appended to history only
// after its post was created.
package pipeline
