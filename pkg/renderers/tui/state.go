package tui

import (
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/validation"
)

// session tracks what one Fill call already asked. Nodes are keyed by their
// serialized path, so a node that moves (an array item after a removal)
// counts as a new one.
type session struct {
	prompted map[string]bool
	attempts map[string]int
	max      int
}

func newSession(maxAttempts int) *session {
	return &session{
		prompted: make(map[string]bool),
		attempts: make(map[string]int),
		max:      maxAttempts,
	}
}

// next returns the first node that was not prompted yet.
func (s *session) next(nodes []render.Props) (render.Props, bool) {
	for _, node := range nodes {
		if !s.prompted[node.Name] {
			return node, true
		}
	}
	return render.Props{}, false
}

func (s *session) mark(name string) {
	s.prompted[name] = true
}

// retry opens name for another prompt. It reports false once the field used
// up its attempts.
func (s *session) retry(name string) bool {
	if s.attempts[name] >= s.max {
		return false
	}
	s.attempts[name]++
	delete(s.prompted, name)
	return true
}

// reopen re-queues every rendered node that has issues and attempts left.
func (s *session) reopen(errs validation.Errors, nodes []render.Props) bool {
	reopened := false
	for _, node := range nodes {
		if len(errs.At(node.Name)) == 0 {
			continue
		}
		if s.retry(node.Name) {
			reopened = true
		}
	}
	return reopened
}

// collector records the promptable nodes of one walk in render order.
type collector struct {
	nodes []render.Props
}

func (c *collector) RenderNode(props render.Props, _ []render.Unit) (render.Unit, error) {
	switch props.Role {
	case render.RoleField, render.RoleDiscriminator, render.RoleMultiChoice, render.RoleList:
		c.nodes = append(c.nodes, props)
	}
	return nil, nil
}
