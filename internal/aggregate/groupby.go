package aggregate

import (
	"strconv"
	"strings"

	xxhash "github.com/cespare/xxhash/v2"
)

// grouper assigns dense group ids to keys in first-seen order, indexing
// keys by their xxhash digest.
type grouper struct {
	buckets map[uint64][]int
	keys    []string
}

func newGrouper(estimatedGroups int) *grouper {
	return &grouper{
		buckets: make(map[uint64][]int, estimatedGroups),
		keys:    make([]string, 0, estimatedGroups),
	}
}

// id returns the group id of key, creating the group on first sight.
func (g *grouper) id(key string) int {
	hash := xxhash.Sum64String(key)
	for _, gid := range g.buckets[hash] {
		if g.keys[gid] == key {
			return gid
		}
	}
	gid := len(g.keys)
	g.buckets[hash] = append(g.buckets[hash], gid)
	g.keys = append(g.keys, key)
	return gid
}

// Len returns the number of groups
func (g *grouper) Len() int {
	return len(g.keys)
}

// compositeKey encodes parts as length-prefixed fields, so distinct tuples
// never share a key whatever bytes the parts contain.
func compositeKey(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(strconv.Itoa(len(p)))
		b.WriteByte(':')
		b.WriteString(p)
	}
	return b.String()
}
