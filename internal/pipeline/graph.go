package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shinji-kodama/vendor-bundler/internal/model"
)

// ErrTaskNotFound is returned when a target or group member names
// nothing registered in the graph.
var ErrTaskNotFound = errors.New("task not found")

// ErrCycle is returned when groups reference each other in a loop.
var ErrCycle = errors.New("task cycle")

// TaskFunc is the body of a leaf task.
type TaskFunc func(ctx context.Context) (*model.TaskResult, error)

// nodeMode tells how a node executes.
type nodeMode int

const (
	modeLeaf nodeMode = iota
	modeSeries
	modeParallel
)

func (m nodeMode) String() string {
	switch m {
	case modeSeries:
		return "series"
	case modeParallel:
		return "parallel"
	default:
		return "task"
	}
}

type node struct {
	name    string
	mode    nodeMode
	fn      TaskFunc
	members []string
}

// Graph is a registry of tasks and groups.
//
// Registration is not safe for concurrent use; Run may be called
// concurrently once registration is complete.
type Graph struct {
	nodes map[string]*node
	order []string
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{nodes: make(map[string]*node)}
}

// Task registers a leaf task.
func (g *Graph) Task(name string, fn TaskFunc) error {
	if fn == nil {
		return fmt.Errorf("task %q: nil task function", name)
	}
	return g.add(&node{name: name, mode: modeLeaf, fn: fn})
}

// Series registers a group that runs its members one after another and
// stops at the first failure.
func (g *Graph) Series(name string, members ...string) error {
	return g.add(&node{name: name, mode: modeSeries, members: members})
}

// Parallel registers a group that runs its members concurrently.
func (g *Graph) Parallel(name string, members ...string) error {
	return g.add(&node{name: name, mode: modeParallel, members: members})
}

func (g *Graph) add(n *node) error {
	if err := model.ValidateName(n.name); err != nil {
		return err
	}
	if _, exists := g.nodes[n.name]; exists {
		return fmt.Errorf("duplicate task name: %q", n.name)
	}
	if n.mode != modeLeaf && len(n.members) == 0 {
		return fmt.Errorf("group %q has no members", n.name)
	}
	g.nodes[n.name] = n
	g.order = append(g.order, n.name)
	return nil
}

// Has reports whether name is a registered task or group.
func (g *Graph) Has(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// Names returns every registered name in registration order.
func (g *Graph) Names() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Describe returns "task", "series" or "parallel" for a registered name,
// and the group members if any.
func (g *Graph) Describe(name string) (kind string, members []string, ok bool) {
	n, ok := g.nodes[name]
	if !ok {
		return "", nil, false
	}
	return n.mode.String(), append([]string(nil), n.members...), true
}

// Leaves expands a target into the leaf tasks it would run, in execution
// order for series groups and member order for parallel groups.
func (g *Graph) Leaves(target string) ([]string, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if !g.Has(target) {
		return nil, fmt.Errorf("%w: %q", ErrTaskNotFound, target)
	}
	var out []string
	var walk func(name string)
	walk = func(name string) {
		n := g.nodes[name]
		if n.mode == modeLeaf {
			out = append(out, name)
			return
		}
		for _, m := range n.members {
			walk(m)
		}
	}
	walk(target)
	return out, nil
}

// Validate reports members that name nothing and cycles between groups.
func (g *Graph) Validate() error {
	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, member := range g.nodes[name].members {
			if !g.Has(member) {
				return fmt.Errorf("%w: %q (member of group %q)", ErrTaskNotFound, member, name)
			}
		}
	}

	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(g.nodes))
	var stack []string

	var visit func(name string) error
	visit = func(name string) error {
		color[name] = gray
		stack = append(stack, name)
		for _, member := range g.nodes[name].members {
			switch color[member] {
			case gray:
				// Report the loop starting at the first occurrence of member.
				start := 0
				for i, s := range stack {
					if s == member {
						start = i
						break
					}
				}
				path := append(append([]string(nil), stack[start:]...), member)
				return fmt.Errorf("%w: %s", ErrCycle, strings.Join(path, " -> "))
			case white:
				if err := visit(member); err != nil {
					return err
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[name] = black
		return nil
	}

	for _, name := range names {
		if color[name] == white {
			if err := visit(name); err != nil {
				return err
			}
		}
	}
	return nil
}

// Run executes target and returns the results of the leaf tasks that
// completed, in execution order (member order for parallel groups).
//
// On failure the results of the tasks that already succeeded are
// returned alongside the first error.
func (g *Graph) Run(ctx context.Context, target string) ([]model.TaskResult, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if !g.Has(target) {
		return nil, fmt.Errorf("%w: %q", ErrTaskNotFound, target)
	}
	return g.run(ctx, target)
}

func (g *Graph) run(ctx context.Context, name string) ([]model.TaskResult, error) {
	n := g.nodes[name]
	switch n.mode {
	case modeSeries:
		return g.runSeries(ctx, n)
	case modeParallel:
		return g.runParallel(ctx, n)
	default:
		return g.runLeaf(ctx, n)
	}
}

func (g *Graph) runLeaf(ctx context.Context, n *node) ([]model.TaskResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slog.Info("Starting task", "task", n.name)
	start := time.Now()

	result, err := n.fn(ctx)
	if err != nil {
		slog.Error("Task failed", "task", n.name, "duration", time.Since(start), "error", err)
		return nil, err
	}
	slog.Info("Finished task", "task", n.name, "duration", time.Since(start))

	if result == nil {
		return nil, nil
	}
	return []model.TaskResult{*result}, nil
}

func (g *Graph) runSeries(ctx context.Context, n *node) ([]model.TaskResult, error) {
	var results []model.TaskResult
	for _, member := range n.members {
		res, err := g.run(ctx, member)
		results = append(results, res...)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

func (g *Graph) runParallel(ctx context.Context, n *node) ([]model.TaskResult, error) {
	// One slot per member keeps the reported order independent of which
	// goroutine finishes first.
	slots := make([][]model.TaskResult, len(n.members))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, member := range n.members {
		i, member := i, member
		eg.Go(func() error {
			res, err := g.run(egCtx, member)
			slots[i] = res
			return err
		})
	}
	err := eg.Wait()

	var results []model.TaskResult
	for _, res := range slots {
		results = append(results, res...)
	}
	return results, err
}
