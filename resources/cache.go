package resources

// Cache maps keys (normally resource URIs) to built objects in
// insertion order. One cache belongs to one document build and is
// cleared when that document ends.
type Cache[T any] struct {
	keys []string
	m    map[string]T
}

func NewCache[T any]() *Cache[T] {
	return &Cache[T]{m: make(map[string]T)}
}

func (c *Cache[T]) Get(key string) (T, bool) {
	v, ok := c.m[key]
	return v, ok
}

// Put stores v under key. Re-putting an existing key keeps its position.
func (c *Cache[T]) Put(key string, v T) {
	if _, ok := c.m[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.m[key] = v
}

func (c *Cache[T]) Len() int { return len(c.keys) }

// Keys returns the keys in insertion order.
func (c *Cache[T]) Keys() []string {
	return append([]string(nil), c.keys...)
}

// Clear drops every entry.
func (c *Cache[T]) Clear() {
	c.keys = nil
	c.m = make(map[string]T)
}
