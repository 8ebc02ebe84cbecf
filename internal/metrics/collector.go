package metrics

import (
	"time"

	"github.com/cuemby/findex/internal/index"
)

// Collector periodically samples the index database and publishes gauges
// for its queue depths and on-disk size.
type Collector struct {
	db     *index.Database
	stopCh chan struct{}
}

// NewCollector creates a metrics collector over db.
func NewCollector(db *index.Database) *Collector {
	return &Collector{
		db:     db,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics on a 15 second tick.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	rt, err := c.db.BeginRead()
	if err != nil {
		return
	}
	defer rt.Close()

	PhaseOneQueueSize.Set(float64(rt.PhaseOneSize()))
	FailedTotal.Set(float64(rt.FailedSize()))
	DocumentsTotal.Set(float64(rt.DocumentCount()))

	if size, err := c.db.Size(); err == nil {
		DatabaseSizeBytes.Set(float64(size))
	}
}
