// Package outdated decides which reps must be recompiled this run.
//
// Each rep is run through an ordered list of rules; the first rule that
// fires becomes the rep's reason. Outdatedness then propagates backwards
// along the dependency edges recorded by the previous run: if B is outdated
// and A read B last time, A is outdated too.
//
// Without prior metadata every rep is outdated with reason NotEnoughData.
package outdated
