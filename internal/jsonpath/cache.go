package jsonpath

import "github.com/roach88/jsondb/internal/queryir"

// Cache memoises parsed paths by their source text. Each database session
// owns one; like the session it is not safe for concurrent use.
type Cache struct {
	paths map[string]queryir.Path
	limit int
}

// DefaultCacheSize bounds how many distinct paths a Cache keeps.
const DefaultCacheSize = 256

// NewCache returns a cache holding at most limit paths. A limit <= 0 uses
// DefaultCacheSize.
func NewCache(limit int) *Cache {
	if limit <= 0 {
		limit = DefaultCacheSize
	}
	return &Cache{paths: make(map[string]queryir.Path), limit: limit}
}

// Parse returns the cached parse of input, parsing it on a miss. Syntax
// errors are not cached.
func (c *Cache) Parse(input string) (queryir.Path, error) {
	if p, ok := c.paths[input]; ok {
		return p, nil
	}
	p, err := Parse(input)
	if err != nil {
		return queryir.Path{}, err
	}
	if len(c.paths) >= c.limit {
		// Full: start over.
		clear(c.paths)
	}
	c.paths[input] = p
	return p, nil
}

// Len reports how many paths are cached.
func (c *Cache) Len() int {
	return len(c.paths)
}
