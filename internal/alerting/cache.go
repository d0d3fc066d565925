package alerting

import "sync"

// Cache remembers the last value an incident was raised for, per identity.
// It is the only state kept between ticks.
type Cache struct {
	mu     sync.Mutex
	values map[string]float64
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{values: make(map[string]float64)}
}

// Get returns the cached value for key.
func (c *Cache) Get(key string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

// Previous returns the cached value for key, or zero.
func (c *Cache) Previous(key string) float64 {
	v, _ := c.Get(key)
	return v
}

// Set stores value for key.
func (c *Cache) Set(key string, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// Delete forgets key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
}

// Len returns the number of cached identities.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.values)
}

// Reset forgets everything.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.values)
}
