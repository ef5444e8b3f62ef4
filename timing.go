package diskcache

import "time"

func (c *Cache) now() time.Time {
	if c.tracker == nil {
		return time.Time{}
	}
	return time.Now()
}

func (c *Cache) record(operation string, start time.Time) {
	if c.tracker == nil {
		return
	}
	c.tracker.Record(operation, time.Since(start))
}
