package git

import (
	"errors"
	"fmt"

	"github.com/emirpasic/gods/trees/binaryheap"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// commitLookup loads a commit by hash.
type commitLookup func(plumbing.Hash) (*object.Commit, error)

// walkTopoTime visits every commit reachable from start in combined topological and
// chronological order: a commit is always visited before its parents, and among
// commits without such a constraint the newer committer time comes first.
// Returning storer.ErrStop from fn ends the walk without error.
// Parents missing from the object store (shallow clones) are treated as absent.
func walkTopoTime(start *object.Commit, lookup commitLookup, fn func(*object.Commit) error) error {
	commits := map[plumbing.Hash]*object.Commit{start.Hash: start}
	pending := map[plumbing.Hash]int{}

	// First pass: load the reachable graph and count children per commit.
	stack := []*object.Commit{start}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, p := range c.ParentHashes {
			if _, seen := commits[p]; !seen {
				parent, err := lookup(p)
				if errors.Is(err, plumbing.ErrObjectNotFound) {
					continue
				}
				if err != nil {
					return fmt.Errorf("failed to load commit %s: %w", p, err)
				}
				commits[p] = parent
				stack = append(stack, parent)
			}
			pending[p]++
		}
	}

	// Second pass: Kahn's algorithm with a heap on committer time.
	heap := binaryheap.NewWith(func(a, b interface{}) int {
		ca, cb := a.(*object.Commit), b.(*object.Commit)
		switch {
		case ca.Committer.When.After(cb.Committer.When):
			return -1
		case ca.Committer.When.Before(cb.Committer.When):
			return 1
		}
		switch {
		case ca.Hash.String() < cb.Hash.String():
			return -1
		case ca.Hash.String() > cb.Hash.String():
			return 1
		}
		return 0
	})
	heap.Push(start)

	for !heap.Empty() {
		v, _ := heap.Pop()
		c := v.(*object.Commit)

		if err := fn(c); err != nil {
			if errors.Is(err, storer.ErrStop) {
				return nil
			}
			return err
		}

		for _, p := range c.ParentHashes {
			parent, ok := commits[p]
			if !ok {
				continue
			}
			pending[p]--
			if pending[p] == 0 {
				heap.Push(parent)
			}
		}
	}
	return nil
}
