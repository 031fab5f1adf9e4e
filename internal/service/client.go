package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"github.com/TerraMA2/terrama2-sub002/internal/common"
	"github.com/TerraMA2/terrama2-sub002/internal/model"
	"github.com/TerraMA2/terrama2-sub002/internal/observability"
)

// DefaultTimeout bounds a request when the instance config has none.
const DefaultTimeout = 10 * time.Second

// Config identifies one native service instance.
type Config struct {
	ID           int64
	Name         string
	Type         Type
	Address      string
	Timeout      time.Duration
	MaxFrameSize int
}

// Dialer opens the connection for one request.
type Dialer func(ctx context.Context, network, address string) (net.Conn, error)

// Client talks to one native service instance. Each request uses its own
// connection, closed once the request (and its reply, if any) is done.
type Client struct {
	cfg     Config
	dial    Dialer
	metrics *observability.Metrics
	logger  *logrus.Entry
	tracer  trace.Tracer
}

// NewClient creates a client. Nil logger and metrics are replaced by no-op
// implementations.
func NewClient(cfg Config, logger *observability.Logger, metrics *observability.Metrics) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	if metrics == nil {
		metrics = observability.NopMetrics()
	}
	var d net.Dialer
	return &Client{
		cfg:     cfg,
		dial:    d.DialContext,
		metrics: metrics,
		logger: logger.ForComponent("service").WithFields(logrus.Fields{
			"instance": cfg.Name,
			"type":     string(cfg.Type),
			"address":  cfg.Address,
		}),
		tracer: observability.Tracer("service"),
	}
}

// SetDialer replaces the TCP dialer.
func (c *Client) SetDialer(d Dialer) {
	c.dial = d
}

// Config returns the instance configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// Send writes one frame and does not wait for an answer.
func (c *Client) Send(ctx context.Context, signal Signal, payload interface{}) error {
	_, err := c.roundTrip(ctx, signal, payload, nil)
	return err
}

// Request writes one frame and waits for a reply carrying the expected
// signal. Frames with other signals are skipped.
func (c *Client) Request(ctx context.Context, signal Signal, payload interface{}, expect Signal) (*Frame, error) {
	return c.roundTrip(ctx, signal, payload, &expect)
}

// AddData sends the batch as an ADD_DATA frame.
func (c *Client) AddData(ctx context.Context, batch *Batch) error {
	return c.Send(ctx, SignalAddData, batch.Payload())
}

// RemoveData sends the batch ids as a REMOVE_DATA frame.
func (c *Client) RemoveData(ctx context.Context, batch *Batch) error {
	return c.Send(ctx, SignalRemoveData, batch.RemovalPayload())
}

// StartProcess forces the processes to run. A zero executionDate is omitted.
func (c *Client) StartProcess(ctx context.Context, ids []int64, executionDate time.Time) error {
	payload := model.Object{"ids": ids}
	if !executionDate.IsZero() {
		payload["execution_date"] = executionDate.UTC().Format(time.RFC3339)
	}
	return c.Send(ctx, SignalStartProcess, payload)
}

// UpdateService pushes new instance settings to the service.
func (c *Client) UpdateService(ctx context.Context, settings model.Object) error {
	return c.Send(ctx, SignalUpdateService, settings)
}

// ValidateProcess asks the service to validate a process definition and
// returns its verdict.
func (c *Client) ValidateProcess(ctx context.Context, process model.Object) (model.Object, error) {
	reply, err := c.Request(ctx, SignalValidateProcess, process, SignalValidateProcess)
	if err != nil {
		return nil, err
	}
	out := model.Object{}
	if err := reply.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Status sends an empty STATUS frame and returns the service's answer.
func (c *Client) Status(ctx context.Context) (model.Object, error) {
	reply, err := c.Request(ctx, SignalStatus, nil, SignalStatus)
	if err != nil {
		c.metrics.ServiceInstancesUp.WithLabelValues(string(c.cfg.Type)).Set(0)
		return nil, err
	}
	out := model.Object{}
	if err := reply.Decode(&out); err != nil {
		return nil, err
	}
	c.metrics.ServiceInstancesUp.WithLabelValues(string(c.cfg.Type)).Set(1)
	return out, nil
}

// Terminate asks the service to shut down and waits for the acknowledgement.
func (c *Client) Terminate(ctx context.Context) error {
	_, err := c.Request(ctx, SignalTerminateService, nil, SignalTerminateService)
	return err
}

// LogRequest selects a window of executions per process.
type LogRequest struct {
	ProcessIDs []int64 `json:"process_ids"`
	Begin      int     `json:"begin"`
	End        int     `json:"end"`
}

// Log fetches execution logs of the given processes.
func (c *Client) Log(ctx context.Context, req LogRequest) ([]*model.Log, error) {
	if req.End <= 0 {
		req.End = 2
	}
	reply, err := c.Request(ctx, SignalLog, req, SignalLog)
	if err != nil {
		return nil, err
	}
	var groups []interface{}
	if err := reply.Decode(&groups); err != nil {
		return nil, err
	}
	return model.NewLogs(groups), nil
}

func (c *Client) roundTrip(ctx context.Context, signal Signal, payload interface{}, expect *Signal) (*Frame, error) {
	service := string(c.cfg.Type)
	requestID := uuid.NewString()

	ctx, span := c.tracer.Start(ctx, "service."+signal.String(), trace.WithAttributes(
		observability.ServiceSignalAttr(signal.String()),
		observability.ServiceInstanceAttr(c.cfg.Address),
	))
	defer span.End()

	log := c.logger.WithFields(logrus.Fields{"signal": signal.String(), "request_id": requestID})
	start := time.Now()

	fail := func(err error) (*Frame, error) {
		c.metrics.ServiceErrorsTotal.WithLabelValues(service, signal.String()).Inc()
		observability.FailSpan(span, err)
		log.WithError(err).Warn("Service request failed")
		return nil, err
	}

	frame, err := NewFrame(signal, payload)
	if err != nil {
		return fail(err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	conn, err := c.dial(ctx, "tcp", c.cfg.Address)
	if err != nil {
		return fail(fmt.Errorf("%w: dial %s: %v", common.ErrUnavailable, c.cfg.Address, err))
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	n, err := WriteFrame(conn, frame)
	if err != nil {
		return fail(c.contextError(ctx, err))
	}
	c.metrics.ServiceFramesTotal.WithLabelValues(service, signal.String(), "out").Inc()
	c.metrics.ServiceFrameBytes.WithLabelValues(service, "out").Observe(float64(n))
	log.WithField("bytes", n).Debug("Frame sent")

	if expect == nil {
		c.metrics.ServiceLatency.WithLabelValues(service, signal.String()).Observe(time.Since(start).Seconds())
		return nil, nil
	}

	for {
		reply, err := ReadFrame(conn, c.cfg.MaxFrameSize)
		if errors.Is(err, io.EOF) {
			err = fmt.Errorf("%w: connection closed before %s reply", common.ErrConnection, expect)
		}
		if err != nil {
			return fail(c.contextError(ctx, err))
		}
		c.metrics.ServiceFramesTotal.WithLabelValues(service, reply.Signal.String(), "in").Inc()
		c.metrics.ServiceFrameBytes.WithLabelValues(service, "in").Observe(float64(len(reply.Body) + headerSize))
		if reply.Signal != *expect {
			log.WithField("reply_signal", reply.Signal.String()).Debug("Skipping unrelated frame")
			continue
		}
		c.metrics.ServiceLatency.WithLabelValues(service, signal.String()).Observe(time.Since(start).Seconds())
		return reply, nil
	}
}

func (c *Client) contextError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	var netErr net.Error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s after %s", common.ErrTimeout, c.cfg.Address, c.cfg.Timeout)
	}
	return err
}
