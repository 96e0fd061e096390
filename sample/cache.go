package sample

import "container/list"

// maskCache memoizes valid-token sets by hypothesis-set key. Entries are
// evicted least-recently-used. A zero capacity disables caching.
type maskCache struct {
	cap     int
	order   *list.List
	entries map[uint64]*list.Element
}

type maskEntry struct {
	key uint64
	ids []int32
}

func newMaskCache(capacity int) *maskCache {
	return &maskCache{
		cap:     capacity,
		order:   list.New(),
		entries: make(map[uint64]*list.Element),
	}
}

func (c *maskCache) get(key uint64) ([]int32, bool) {
	if c.cap <= 0 {
		return nil, false
	}
	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*maskEntry).ids, true
}

func (c *maskCache) put(key uint64, ids []int32) {
	if c.cap <= 0 {
		return
	}
	if el, ok := c.entries[key]; ok {
		el.Value.(*maskEntry).ids = ids
		c.order.MoveToFront(el)
		return
	}
	c.entries[key] = c.order.PushFront(&maskEntry{key: key, ids: ids})
	for c.order.Len() > c.cap {
		last := c.order.Back()
		c.order.Remove(last)
		delete(c.entries, last.Value.(*maskEntry).key)
	}
}
