package engine

import "curator-hq/curator/pkg/media"

// itemSet is an insertion-ordered set of items keyed by item ID.
type itemSet struct {
	order []string
	items map[string]media.Item
}

func newItemSet() *itemSet {
	return &itemSet{items: make(map[string]media.Item)}
}

func (s *itemSet) has(id string) bool {
	_, ok := s.items[id]
	return ok
}

func (s *itemSet) add(item media.Item) {
	if s.has(item.ID) {
		return
	}
	s.items[item.ID] = item
	s.order = append(s.order, item.ID)
}

func (s *itemSet) remove(id string) {
	if !s.has(id) {
		return
	}
	delete(s.items, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

func (s *itemSet) len() int {
	return len(s.order)
}

func (s *itemSet) list() []media.Item {
	out := make([]media.Item, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}

func (s *itemSet) union(other *itemSet) {
	for _, id := range other.order {
		s.add(other.items[id])
	}
}

func (s *itemSet) intersect(other *itemSet) {
	kept := s.order[:0]
	for _, id := range s.order {
		if other.has(id) {
			kept = append(kept, id)
			continue
		}
		delete(s.items, id)
	}
	s.order = kept
}
