package controllers

import (
	"context"

	"golang.org/x/sync/errgroup"

	"todo-client/app/models"
)

// TaskNode is a task with its fetched children.
type TaskNode struct {
	Task     models.Task
	Children []*TaskNode
}

// TreeLoader expands a root list into a tree using the subtask listing.
type TreeLoader struct {
	gw       Gateway
	parallel int
	maxDepth int
}

// NewTreeLoader creates a loader that runs at most parallel listings at once
// and stops expanding below maxDepth levels.
func NewTreeLoader(gw Gateway, parallel, maxDepth int) *TreeLoader {
	if parallel < 1 {
		parallel = 1
	}
	return &TreeLoader{gw: gw, parallel: parallel, maxDepth: maxDepth}
}

// Load fetches the children of every task the server reports as having
// subtasks, level by level.
func (l *TreeLoader) Load(ctx context.Context, roots []models.Task) ([]*TaskNode, error) {
	nodes := make([]*TaskNode, len(roots))
	seen := make(map[int64]bool, len(roots))
	for i, t := range roots {
		nodes[i] = &TaskNode{Task: t}
		seen[t.ID] = true
	}

	level := nodes
	for depth := 0; len(level) > 0 && (l.maxDepth <= 0 || depth < l.maxDepth); depth++ {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(l.parallel)
		for _, n := range level {
			if !n.Task.HasSubtasks() {
				continue
			}
			n := n
			g.Go(func() error {
				children, err := l.gw.ListSubtasks(gctx, n.Task.ID)
				if err != nil {
					return err
				}
				n.Children = make([]*TaskNode, len(children))
				for i, c := range children {
					n.Children[i] = &TaskNode{Task: c}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, &ActionError{Action: ActionLoad, Err: err}
		}

		// Tasks already placed are dropped so a cyclic linkage cannot recurse.
		var next []*TaskNode
		for _, n := range level {
			kept := n.Children[:0]
			for _, child := range n.Children {
				if seen[child.Task.ID] {
					continue
				}
				seen[child.Task.ID] = true
				kept = append(kept, child)
			}
			n.Children = kept
			next = append(next, kept...)
		}
		level = next
	}
	return nodes, nil
}
