package scene

import "github.com/opd-ai/soundsync/pool"

// Node is the opaque scene-graph node type. Handles to it come from the
// graph that owns the sounds.
type Node struct{}

// NodeHandle designates a node of the external scene graph.
type NodeHandle = pool.Handle[Node]

// NodeSet restricts which nodes may keep a backend source.
type NodeSet map[NodeHandle]struct{}

// NewNodeSet returns a set holding handles.
func NewNodeSet(handles ...NodeHandle) NodeSet {
	s := make(NodeSet, len(handles))
	for _, h := range handles {
		s[h] = struct{}{}
	}
	return s
}

// Contains reports whether h is in the set.
func (s NodeSet) Contains(h NodeHandle) bool {
	_, ok := s[h]
	return ok
}

// permits reports whether a node may sync. A nil set permits every node.
func (s NodeSet) permits(h NodeHandle) bool {
	return s == nil || s.Contains(h)
}
