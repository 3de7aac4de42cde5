package signal

// node is the type-independent part of a signal: its position in the
// dependency graph and its cache state. It is un-exported so the graph can
// only be changed through Plug, SetFunction, Set and Unplug.
type node struct {
	// name is the full path of the signal, "entity.signal".
	name string
	// self is the typed signal embedding this node.
	self Port
	// deps holds the signals this one reads (predecessors), in declaration order.
	deps []*node
	// dependents holds the signals that read this one (successors).
	dependents map[*node]struct{}

	time      Time
	valid     bool
	computing bool
}

func newNode(name string, self Port) node {
	return node{
		name:       name,
		self:       self,
		dependents: make(map[*node]struct{}),
	}
}

// reaches reports whether target is from itself or one of its transitive
// dependencies. Plugging from into target closes a cycle exactly when it does.
func reaches(from, target *node) bool {
	visited := make(map[*node]bool)

	var visit func(n *node) bool
	visit = func(n *node) bool {
		if n == target {
			return true
		}
		if visited[n] {
			return false
		}
		visited[n] = true
		for _, dep := range n.deps {
			if visit(dep) {
				return true
			}
		}
		return false
	}

	return visit(from)
}

// relink replaces the upstream edges of n.
func (n *node) relink(deps []*node) {
	for _, old := range n.deps {
		delete(old.dependents, n)
	}
	n.deps = deps
	for _, dep := range deps {
		dep.dependents[n] = struct{}{}
	}
}

// invalidate drops the cached value of n and of everything downstream of it.
func (n *node) invalidate() {
	visited := make(map[*node]bool)

	var visit func(n *node)
	visit = func(n *node) {
		if visited[n] {
			return
		}
		visited[n] = true
		n.valid = false
		for dependent := range n.dependents {
			visit(dependent)
		}
	}

	visit(n)
}

func portNodes(ports []Port) []*node {
	nodes := make([]*node, 0, len(ports))
	for _, p := range ports {
		if p == nil {
			continue
		}
		nodes = append(nodes, p.graphNode())
	}
	return nodes
}
