package scheduler

import (
	"errors"
	"fmt"

	"github.com/kilianp07/fleetsim/core/random"
)

var (
	// ErrNotFound is returned when removing an agent that is not scheduled.
	ErrNotFound = errors.New("agent not scheduled")
	// ErrDuplicate is returned when adding an agent twice.
	ErrDuplicate = errors.New("agent already scheduled")
)

// Scheduler holds the live agent set. Agents may be added or removed while a
// step is in progress: removed agents whose turn has not come yet are
// skipped, added agents wait for the next step.
type Scheduler[K comparable] struct {
	order []K // insertion order, the base of every permutation
	live  map[K]struct{}
}

// New returns an empty Scheduler.
func New[K comparable]() *Scheduler[K] {
	return &Scheduler[K]{live: make(map[K]struct{})}
}

// Add schedules k from the next step on.
func (s *Scheduler[K]) Add(k K) error {
	if _, ok := s.live[k]; ok {
		return fmt.Errorf("add %v: %w", k, ErrDuplicate)
	}
	s.live[k] = struct{}{}
	s.order = append(s.order, k)
	return nil
}

// Remove unschedules k. Safe to call during Step.
func (s *Scheduler[K]) Remove(k K) error {
	if _, ok := s.live[k]; !ok {
		return fmt.Errorf("remove %v: %w", k, ErrNotFound)
	}
	delete(s.live, k)
	for i, other := range s.order {
		if other == k {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Contains reports whether k is scheduled.
func (s *Scheduler[K]) Contains(k K) bool {
	_, ok := s.live[k]
	return ok
}

// Len returns the number of scheduled agents.
func (s *Scheduler[K]) Len() int { return len(s.order) }

// Keys returns the scheduled agents in insertion order.
func (s *Scheduler[K]) Keys() []K {
	out := make([]K, len(s.order))
	copy(out, s.order)
	return out
}

// Step draws a permutation of the agents live at step start with
// src.Shuffle over the insertion order and calls activate once per agent
// still live when its turn comes. The first activation error aborts the step.
func (s *Scheduler[K]) Step(src *random.Source, activate func(K) error) error {
	drawn := s.Keys()
	src.Shuffle(len(drawn), func(i, j int) { drawn[i], drawn[j] = drawn[j], drawn[i] })
	for _, k := range drawn {
		if !s.Contains(k) {
			continue
		}
		if err := activate(k); err != nil {
			return fmt.Errorf("activate %v: %w", k, err)
		}
	}
	return nil
}
