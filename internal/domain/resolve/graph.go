package resolve

import (
	"fmt"
	"sort"

	"github.com/stagehand-dev/stagehand/internal/domain/requirement"
)

// Graph is the directed acyclic dependency graph over a project's
// requirements. It validates edges and produces the topological plan
// order; the order is deterministic for a given declaration order, so
// two runs over the same project produce the same plan.
type Graph struct {
	reqs       map[string]requirement.Requirement
	order      []string            // declaration order of identities
	dependsOn  map[string][]string // identity -> dependency identities
	dependedBy map[string][]string // identity -> direct dependents
}

// NewGraph creates an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		reqs:       make(map[string]requirement.Requirement),
		dependsOn:  make(map[string][]string),
		dependedBy: make(map[string][]string),
	}
}

// Len returns the number of requirements in the graph.
func (g *Graph) Len() int {
	return len(g.reqs)
}

// Add inserts a requirement. Returns ErrDuplicateRequirement if its
// identity is already present.
func (g *Graph) Add(req requirement.Requirement) error {
	id := req.Identity().String()

	if _, exists := g.reqs[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRequirement, id)
	}

	g.reqs[id] = req
	g.order = append(g.order, id)

	deps := req.DependsOn()
	depIDs := make([]string, len(deps))
	for i, dep := range deps {
		depID := dep.String()
		depIDs[i] = depID
		g.dependedBy[depID] = append(g.dependedBy[depID], id)
	}
	g.dependsOn[id] = depIDs

	return nil
}

// Get retrieves a requirement by identity.
func (g *Graph) Get(id requirement.Identity) (requirement.Requirement, bool) {
	req, ok := g.reqs[id.String()]
	return req, ok
}

// Validate checks that every declared dependency exists.
func (g *Graph) Validate() error {
	for _, id := range g.order {
		for _, depID := range g.dependsOn[id] {
			if _, exists := g.reqs[depID]; !exists {
				return fmt.Errorf("%w: %q depends on %q", ErrMissingDependency, id, depID)
			}
		}
	}
	return nil
}

// Dependents returns the identities directly depending on id.
func (g *Graph) Dependents(id string) []string {
	out := make([]string, len(g.dependedBy[id]))
	copy(out, g.dependedBy[id])
	return out
}

// TopologicalSort returns the requirements in dependency order: every
// requirement appears after all entries in its dependsOn set. Among
// requirements with no ordering constraint, declaration order is kept.
// Returns ErrCyclicDependency if the graph contains a cycle.
func (g *Graph) TopologicalSort() ([]requirement.Requirement, error) {
	// Kahn's algorithm, with the ready queue kept in declaration order
	// for deterministic plans.
	position := make(map[string]int, len(g.order))
	for i, id := range g.order {
		position[id] = i
	}

	inDegree := make(map[string]int, len(g.reqs))
	for id := range g.reqs {
		inDegree[id] = 0
	}
	for id := range g.reqs {
		for _, depID := range g.dependsOn[id] {
			if _, exists := g.reqs[depID]; exists {
				inDegree[id]++
			}
		}
	}

	queue := make([]string, 0, len(g.reqs))
	for _, id := range g.order {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	sorted := make([]requirement.Requirement, 0, len(g.reqs))

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		sorted = append(sorted, g.reqs[id])

		released := make([]string, 0, len(g.dependedBy[id]))
		for _, dependentID := range g.dependedBy[id] {
			if _, exists := g.reqs[dependentID]; !exists {
				continue
			}
			inDegree[dependentID]--
			if inDegree[dependentID] == 0 {
				released = append(released, dependentID)
			}
		}
		sort.Slice(released, func(i, j int) bool {
			return position[released[i]] < position[released[j]]
		})
		queue = append(queue, released...)
	}

	if len(sorted) != len(g.reqs) {
		return nil, fmt.Errorf("%w: involving %s", ErrCyclicDependency, g.cycleMembers())
	}

	return sorted, nil
}

// Depths returns each requirement's dependency depth: 0 for roots,
// 1 + max(depth of deps) otherwise. Requirements at equal depth have no
// path between them, so their checks may run concurrently. Only valid
// on an acyclic, validated graph.
func (g *Graph) Depths() map[string]int {
	depths := make(map[string]int, len(g.reqs))
	var depthOf func(id string, trail map[string]bool) int
	depthOf = func(id string, trail map[string]bool) int {
		if d, ok := depths[id]; ok {
			return d
		}
		if trail[id] {
			return 0 // cycle; TopologicalSort is the authority on cycles
		}
		trail[id] = true
		defer delete(trail, id)

		d := 0
		for _, depID := range g.dependsOn[id] {
			if _, exists := g.reqs[depID]; !exists {
				continue
			}
			if dd := depthOf(depID, trail) + 1; dd > d {
				d = dd
			}
		}
		depths[id] = d
		return d
	}
	for _, id := range g.order {
		depthOf(id, make(map[string]bool))
	}
	return depths
}

// cycleMembers names the identities left unsorted, for the cycle error.
func (g *Graph) cycleMembers() string {
	// A second Kahn pass marks everything reachable from the roots;
	// what remains participates in or depends on a cycle.
	inDegree := make(map[string]int, len(g.reqs))
	for id := range g.reqs {
		for _, depID := range g.dependsOn[id] {
			if _, exists := g.reqs[depID]; exists {
				inDegree[id]++
			}
		}
	}
	queue := make([]string, 0)
	for _, id := range g.order {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}
	removed := make(map[string]bool)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		removed[id] = true
		for _, dep := range g.dependedBy[id] {
			if _, exists := g.reqs[dep]; !exists {
				continue
			}
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	var members []string
	for _, id := range g.order {
		if !removed[id] {
			members = append(members, id)
		}
	}
	sort.Strings(members)

	out := ""
	for i, m := range members {
		if i > 0 {
			out += ", "
		}
		out += m
	}
	return out
}
