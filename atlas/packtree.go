package atlas

// Node is a binary-tree rectangle packer.
//
// A leaf covers a free rectangle. Inserting into a leaf either claims it
// (exact fit) or splits it in two, along the axis that leaves the larger
// margin, and recurses into the first child. Each node tracks available,
// the largest min(w, h) over the free leaves beneath it, which lets whole
// subtrees be skipped. A node whose available drops to zero drops its
// children: it can never satisfy another request, so the tree only keeps
// nodes for regions that still have room.
//
// A parent exclusively owns its two children.
type Node struct {
	x, y, w, h int
	available  int

	child1, child2 *Node
}

// NewNode creates a free node covering the given rectangle.
func NewNode(x, y, w, h int) *Node {
	return &Node{
		x:         x,
		y:         y,
		w:         w,
		h:         h,
		available: min(w, h),
	}
}

// Insert claims a tw x th rectangle and returns its origin.
// Returns ok=false if no free rectangle beneath this node fits.
func (n *Node) Insert(tw, th int) (x, y int, ok bool) {
	if tw <= 0 || th <= 0 {
		return 0, 0, false
	}
	if (n.available < tw && n.available < th) || n.w < tw || n.h < th {
		return 0, 0, false
	}

	if n.child1 != nil {
		x, y, ok = n.child1.Insert(tw, th)
		if !ok {
			x, y, ok = n.child2.Insert(tw, th)
		}
		n.update()
		return x, y, ok
	}

	if n.w == tw && n.h == th {
		n.available = 0
		return n.x, n.y, true
	}

	if n.w-tw > n.h-th {
		n.child1 = NewNode(n.x, n.y, tw, n.h)
		n.child2 = NewNode(n.x+tw, n.y, n.w-tw, n.h)
	} else {
		n.child1 = NewNode(n.x, n.y, n.w, th)
		n.child2 = NewNode(n.x, n.y+th, n.w, n.h-th)
	}

	x, y, ok = n.child1.Insert(tw, th)
	n.update()
	return x, y, ok
}

// update recomputes available from the children and collapses the node
// once nothing beneath it is free.
func (n *Node) update() {
	n.available = max(n.child1.available, n.child2.available)
	if n.available == 0 {
		n.child1 = nil
		n.child2 = nil
	}
}

// Available returns the largest min(w, h) of any free rectangle beneath n.
func (n *Node) Available() int {
	return n.available
}

// Rect returns the rectangle covered by the node.
func (n *Node) Rect() (x, y, w, h int) {
	return n.x, n.y, n.w, n.h
}

// Leaf reports whether the node has no children.
func (n *Node) Leaf() bool {
	return n.child1 == nil
}

// Children returns the two children, or nil, nil for a leaf.
func (n *Node) Children() (*Node, *Node) {
	return n.child1, n.child2
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *Node) Count() int {
	if n.child1 == nil {
		return 1
	}
	return 1 + n.child1.Count() + n.child2.Count()
}

// clone returns a deep copy of the subtree rooted at n.
func (n *Node) clone() *Node {
	c := *n
	if n.child1 != nil {
		c.child1 = n.child1.clone()
		c.child2 = n.child2.clone()
	}
	return &c
}
