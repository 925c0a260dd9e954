// Package priorq is a priority-based admission and scheduling engine.
//
// It maintains one bounded max-priority queue per item kind (tasks and
// requests), a time-based schedule store with exactly-once due delivery,
// periodic reprioritization boosts, distribution planning across named
// resources, and a capacity-checked resource allocation ledger.
//
// Priorities are derived from item attributes (urgency, importance,
// deadline proximity, complexity) unless the caller supplies one; all
// priorities live on the [0, 1] scale where higher dispatches first.
//
// Basic usage:
//
//	srv, err := priorq.New(priorq.WithConfig(config))
//	if err != nil {
//		return err
//	}
//	priority, err := srv.Submit(ctx, item.KindTask, "task-1", payload, nil)
package priorq
