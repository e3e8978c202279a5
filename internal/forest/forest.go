// Package forest turns a flat task list, in which nested tasks may appear
// both on their own and under their parent, into a forest holding every
// reachable task exactly once.
package forest

import (
	"github.com/vinayprograms/kaal/internal/task"
)

// Build returns the roots of the forest reachable from tasks.
//
// Tasks are identified by (path, line); the first object seen for a key is
// canonical. Roots are input tasks that are nobody's child and whose
// parent is absent or not reachable, kept in input order. The returned
// nodes are copies: the input is never modified.
func Build(tasks []*task.Task) []*task.Task {
	canon := make(map[task.Key]*task.Task)
	nested := make(map[task.Key]bool)
	var index func(ts []*task.Task)
	index = func(ts []*task.Task) {
		for _, t := range ts {
			if t == nil {
				continue
			}
			if _, seen := canon[t.Key()]; seen {
				continue
			}
			canon[t.Key()] = t
			for _, c := range t.Children {
				if c != nil {
					nested[c.Key()] = true
				}
			}
			index(t.Children)
		}
	}
	index(tasks)

	b := &builder{canon: canon, built: make(map[task.Key]*task.Task)}
	var roots []*task.Task
	for _, t := range tasks {
		if t == nil {
			continue
		}
		if nested[t.Key()] {
			continue
		}
		if t.Parent != nil {
			if _, ok := canon[*t.Parent]; ok {
				continue
			}
		}
		if _, done := b.built[t.Key()]; done {
			continue
		}
		roots = append(roots, b.node(t.Key()))
	}
	// input tasks left unplaced (cycles, a parent that does not list them)
	// become roots where they appear
	for _, t := range tasks {
		if t == nil {
			continue
		}
		if _, done := b.built[t.Key()]; !done {
			roots = append(roots, b.node(t.Key()))
		}
	}
	return roots
}

type builder struct {
	canon map[task.Key]*task.Task
	built map[task.Key]*task.Task
}

// node copies the canonical task for k with canonical children. A key is
// placed once; later references to it, including cycles, are dropped.
func (b *builder) node(k task.Key) *task.Task {
	src := b.canon[k]
	n := *src
	n.Children = nil
	b.built[k] = &n
	for _, c := range src.Children {
		if c == nil {
			continue
		}
		if _, done := b.built[c.Key()]; done {
			continue
		}
		n.Children = append(n.Children, b.node(c.Key()))
	}
	return &n
}

// Count returns the number of nodes in the forest.
func Count(roots []*task.Task) int {
	n := 0
	task.Walk(roots, func(*task.Task) { n++ })
	return n
}

// Flatten lists the forest depth first.
func Flatten(roots []*task.Task) []*task.Task {
	var out []*task.Task
	task.Walk(roots, func(t *task.Task) { out = append(out, t) })
	return out
}
