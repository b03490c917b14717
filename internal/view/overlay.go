// Package view derives the list to render by overlaying pending
// set-completed submissions onto the last confirmed snapshot.
package view

import (
	"github.com/idilsaglam/optodo/internal/model"
	"github.com/idilsaglam/optodo/internal/submission"
)

// Overlay predicts the end state of snapshot given the in-flight
// mutations. Pure: given the same inputs it returns equal results and
// mutates neither argument. Order and length of snapshot are
// preserved.
//
// Only unsettled set-completed entries predict anything; the first
// pending entry matching a todo's id wins. Settled entries, including
// ones that settled with an error, fall back to the confirmed
// snapshot.
func Overlay(snapshot []model.Todo, pending []submission.Submission) []model.Todo {
	if !anyPending(pending) {
		return snapshot
	}
	out := make([]model.Todo, len(snapshot))
	for i, t := range snapshot {
		if in, ok := firstMatch(pending, t.ID); ok {
			t.Completed = in.Completed
		}
		out[i] = t
	}
	return out
}

func anyPending(subs []submission.Submission) bool {
	for _, s := range subs {
		if s.Pending && s.Kind == submission.KindSetCompleted {
			return true
		}
	}
	return false
}

func firstMatch(subs []submission.Submission, id model.ID) (submission.SetCompletedInput, bool) {
	for _, s := range subs {
		if !s.Pending || s.Kind != submission.KindSetCompleted {
			continue
		}
		if in, ok := s.Input.(submission.SetCompletedInput); ok && in.ID == id {
			return in, true
		}
	}
	return submission.SetCompletedInput{}, false
}
