// Package supply stores a room's known messages as a forest and answers the
// navigation queries the tree renderer depends on. Messages are keyed by id;
// siblings are ordered ascending by id. A message whose parent has not
// arrived yet behaves as a root until the parent shows up.
package supply

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Id identifies a message. Ids are opaque, totally ordered strings. The
// empty Id is the absence value throughout this package: it is never a valid
// message id.
type Id string

// None is the absent Id.
const None Id = ""

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("message not found")

// Message is one chat message. Messages are immutable once added; an edit
// re-adds a message under the same id, replacing the old one.
type Message struct {
	ID        Id
	Parent    Id // None for root messages
	Timestamp time.Time
	Nick      string
	Content   string
}

// Supply is an in-memory forest of messages. The zero value is not usable;
// call New.
type Supply struct {
	elements map[Id]Message
	children map[Id][]Id
}

// New returns an empty supply.
func New() *Supply {
	return &Supply{
		elements: make(map[Id]Message),
		children: make(map[Id][]Id),
	}
}

// Len returns the number of messages.
func (s *Supply) Len() int {
	return len(s.elements)
}

// Add inserts a message, replacing any previous message with the same id.
// The parent's child list stays sorted ascending by id.
func (s *Supply) Add(msg Message) {
	if msg.ID == None {
		return
	}
	if _, ok := s.elements[msg.ID]; ok {
		s.Remove(msg.ID)
	}

	s.elements[msg.ID] = msg

	if msg.Parent != None {
		kids := append(s.children[msg.Parent], msg.ID)
		sort.Slice(kids, func(i, j int) bool { return kids[i] < kids[j] })
		s.children[msg.Parent] = kids
	}
}

// Remove deletes a message. Removing an unknown id is a no-op.
func (s *Supply) Remove(id Id) {
	msg, ok := s.elements[id]
	if !ok {
		return
	}
	delete(s.elements, id)

	if msg.Parent != None {
		kids := s.children[msg.Parent]
		for i, kid := range kids {
			if kid == id {
				kids = append(kids[:i], kids[i+1:]...)
				break
			}
		}
		if len(kids) == 0 {
			delete(s.children, msg.Parent)
		} else {
			s.children[msg.Parent] = kids
		}
	}
}

// Get retrieves a message by id.
func (s *Supply) Get(id Id) (Message, error) {
	msg, ok := s.elements[id]
	if !ok {
		return Message{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return msg, nil
}

// Has reports whether the supply contains id.
func (s *Supply) Has(id Id) bool {
	_, ok := s.elements[id]
	return ok
}

// ParentID returns a message's effective parent: None if the message is
// unknown, has no parent, or its parent has not arrived yet. Resolving the
// parent at query time makes a dangling child act as a root until its parent
// shows up, without reshuffling any child lists.
func (s *Supply) ParentID(id Id) Id {
	msg, ok := s.elements[id]
	if !ok || msg.Parent == None {
		return None
	}
	if _, ok := s.elements[msg.Parent]; !ok {
		return None
	}
	return msg.Parent
}

// ChildIDs returns a message's children, ascending by id.
func (s *Supply) ChildIDs(id Id) []Id {
	return append([]Id(nil), s.children[id]...)
}

// SiblingIDs returns the ordered sibling list containing id: the parent's
// children, or all roots if id is a root. The result contains id itself.
func (s *Supply) SiblingIDs(id Id) []Id {
	if p := s.ParentID(id); p != None {
		return s.ChildIDs(p)
	}
	return s.rootIDs()
}

// rootIDs scans for messages whose effective parent is absent.
func (s *Supply) rootIDs() []Id {
	var roots []Id
	for id, msg := range s.elements {
		if msg.Parent == None {
			roots = append(roots, id)
			continue
		}
		if _, ok := s.elements[msg.Parent]; !ok {
			roots = append(roots, id)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })
	return roots
}

// LowestRootID returns the root with the highest id, or None when empty.
func (s *Supply) LowestRootID() Id {
	roots := s.rootIDs()
	if len(roots) == 0 {
		return None
	}
	return roots[len(roots)-1]
}

// OldestID returns the smallest id in the supply, or None when empty.
func (s *Supply) OldestID() Id {
	oldest := None
	for id := range s.elements {
		if oldest == None || id < oldest {
			oldest = id
		}
	}
	return oldest
}

// RootID follows parents up to the root of id's tree.
func (s *Supply) RootID(id Id) Id {
	for {
		p := s.ParentID(id)
		if p == None {
			return id
		}
		id = p
	}
}

// PreviousID returns the sibling immediately above id, or None.
func (s *Supply) PreviousID(id Id) Id {
	siblings := s.SiblingIDs(id)
	for i, sib := range siblings {
		if sib == id {
			if i == 0 {
				return None
			}
			return siblings[i-1]
		}
	}
	return None
}

// NextID returns the sibling immediately below id, or None.
func (s *Supply) NextID(id Id) Id {
	siblings := s.SiblingIDs(id)
	for i, sib := range siblings {
		if sib == id {
			if i == len(siblings)-1 {
				return None
			}
			return siblings[i+1]
		}
	}
	return None
}

// AboveID returns the message rendered directly above id in the visual
// tree: the bottom of the previous sibling's subtree, or the parent.
func (s *Supply) AboveID(id Id) Id {
	above := s.PreviousID(id)
	if above == None {
		return s.ParentID(id)
	}
	for {
		kids := s.ChildIDs(above)
		if len(kids) == 0 {
			return above
		}
		above = kids[len(kids)-1]
	}
}

// BelowID returns the message rendered directly below id in the visual
// tree: the first child, the next sibling, or the closest ancestor's next
// sibling.
func (s *Supply) BelowID(id Id) Id {
	if kids := s.ChildIDs(id); len(kids) > 0 {
		return kids[0]
	}
	for id != None {
		if next := s.NextID(id); next != None {
			return next
		}
		id = s.ParentID(id)
	}
	return None
}

// PositionAboveID returns the id whose reply slot sits directly above the
// reply slot of id. Passing None asks for the slot above the bottom cursor,
// which is the lowest root's slot.
func (s *Supply) PositionAboveID(id Id) Id {
	if id == None {
		return s.LowestRootID()
	}
	if kids := s.ChildIDs(id); len(kids) > 0 {
		return kids[len(kids)-1]
	}
	for {
		if prev := s.PreviousID(id); prev != None {
			return prev
		}
		id = s.ParentID(id)
		if id == None {
			return None
		}
	}
}

// PositionBelowID returns the id whose reply slot sits directly below the
// reply slot of id: the next sibling descended along first children, or the
// parent.
func (s *Supply) PositionBelowID(id Id) Id {
	below := s.NextID(id)
	if below == None {
		return s.ParentID(id)
	}
	for {
		kids := s.ChildIDs(below)
		if len(kids) == 0 {
			return below
		}
		below = kids[0]
	}
}

// BetweenIDs returns the visual path of BelowID steps from start through
// stop, inclusive. The result is empty when start's ancestor path orders
// after stop's.
func (s *Supply) BetweenIDs(start, stop Id) []Id {
	startPath := s.AncestorPath(start)
	stopPath := s.AncestorPath(stop)

	if ComparePaths(startPath, stopPath) > 0 {
		return nil
	}
	if start == stop {
		return []Id{start}
	}

	between := []Id{start}
	current := start
	for current != stop {
		below := s.BelowID(current)
		if below == None {
			break
		}
		current = below
		between = append(between, current)
	}
	return between
}

// AncestorPath returns the root-first list of ancestors of id, including id
// itself. The path of None is empty.
func (s *Supply) AncestorPath(id Id) []Id {
	var path []Id
	for id != None {
		path = append(path, id)
		id = s.ParentID(id)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// ComparePaths orders two ancestor paths lexicographically over the same id
// ordering used for siblings. A shorter path that prefixes the other orders
// first.
func ComparePaths(a, b []Id) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}
