package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/TerraMA2/terrama2-sub002/internal/common"
	"github.com/TerraMA2/terrama2-sub002/internal/model"
	"github.com/TerraMA2/terrama2-sub002/internal/observability"
)

// DefaultFanOut bounds concurrent requests of one broadcast.
const DefaultFanOut = 8

// Dispatcher fans requests out to the registered service instances.
type Dispatcher struct {
	mu      sync.RWMutex
	clients map[string]*Client
	fanOut  int
	logger  *logrus.Entry
}

func NewDispatcher(logger *observability.Logger, clients ...*Client) *Dispatcher {
	if logger == nil {
		logger = observability.NopLogger()
	}
	d := &Dispatcher{
		clients: make(map[string]*Client),
		fanOut:  DefaultFanOut,
		logger:  logger.ForComponent("service::dispatcher"),
	}
	for _, c := range clients {
		d.Register(c)
	}
	return d
}

// Register adds or replaces the client for its address.
func (d *Dispatcher) Register(c *Client) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clients[c.cfg.Address] = c
}

// Unregister drops the client for address.
func (d *Dispatcher) Unregister(address string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.clients, address)
}

// Clients returns the registered clients of type t, all of them when t is
// empty, ordered by address.
func (d *Dispatcher) Clients(t Type) []*Client {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*Client, 0, len(d.clients))
	for _, c := range d.clients {
		if t == "" || c.cfg.Type == t {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].cfg.Address < out[j].cfg.Address })
	return out
}

// Configs lists the config of every registered instance, ordered by address.
func (d *Dispatcher) Configs() []Config {
	clients := d.Clients("")
	out := make([]Config, len(clients))
	for i, c := range clients {
		out[i] = c.cfg
	}
	return out
}

// Instance returns the client configured with the given instance id.
func (d *Dispatcher) Instance(id int64) (*Client, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, c := range d.clients {
		if c.cfg.ID == id {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: service instance %d", common.ErrNotFound, id)
}

// AddData sends the batch to every registered instance.
func (d *Dispatcher) AddData(ctx context.Context, batch *Batch) error {
	if batch.Len() == 0 {
		return nil
	}
	return d.each(ctx, "", func(ctx context.Context, c *Client) error {
		return c.AddData(ctx, batch)
	})
}

// RemoveData sends the removal of the batch ids to every registered instance.
func (d *Dispatcher) RemoveData(ctx context.Context, batch *Batch) error {
	if batch.Len() == 0 {
		return nil
	}
	return d.each(ctx, "", func(ctx context.Context, c *Client) error {
		return c.RemoveData(ctx, batch)
	})
}

// StartProcess runs processes on the given instance.
func (d *Dispatcher) StartProcess(ctx context.Context, instanceID int64, ids []int64, executionDate time.Time) error {
	c, err := d.Instance(instanceID)
	if err != nil {
		return err
	}
	return c.StartProcess(ctx, ids, executionDate)
}

// Log asks one instance for the logs of its processes.
func (d *Dispatcher) Log(ctx context.Context, instanceID int64, req LogRequest) ([]*model.Log, error) {
	c, err := d.Instance(instanceID)
	if err != nil {
		return nil, err
	}
	return c.Log(ctx, req)
}

// Status queries every instance and returns the error of each one, nil for
// instances that answered.
func (d *Dispatcher) Status(ctx context.Context) map[string]error {
	var mu sync.Mutex
	out := make(map[string]error)
	_ = d.each(ctx, "", func(ctx context.Context, c *Client) error {
		_, err := c.Status(ctx)
		mu.Lock()
		out[c.cfg.Address] = err
		mu.Unlock()
		return nil
	})
	return out
}

// each runs fn for every client of type t, at most fanOut at a time, and
// joins the failures.
func (d *Dispatcher) each(ctx context.Context, t Type, fn func(context.Context, *Client) error) error {
	clients := d.Clients(t)
	if len(clients) == 0 {
		return nil
	}

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(d.fanOut)
	for _, c := range clients {
		c := c
		g.Go(func() error {
			if err := fn(ctx, c); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", c.cfg.Address, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) > 0 {
		d.logger.WithField("failed", len(errs)).WithField("total", len(clients)).Warn("Broadcast partially failed")
	}
	return errors.Join(errs...)
}
