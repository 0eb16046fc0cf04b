package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Connection errors.
var (
	ErrDisabled         = errors.New("history: disabled in configuration")
	ErrConnectionFailed = errors.New("history: connection failed")
)

const (
	connectTimeout = 10 * time.Second

	defaultBatchSize     = 100
	defaultFlushInterval = 10 // seconds
)

// Config configures the InfluxDB connection.
type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string

	// BatchSize is the number of points per write request.
	BatchSize int

	// FlushInterval is the longest time in seconds a point stays buffered.
	FlushInterval int

	// Logger is the optional logger for write errors.
	// If nil, logging is disabled.
	Logger *slog.Logger
}

// Writer accepts points for asynchronous writing. api.WriteAPI satisfies it.
type Writer interface {
	WritePoint(point *write.Point)
}

// Client is a batching InfluxDB writer.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
}

// Connect creates the client, checks that the server is healthy and starts
// the batching write API.
func Connect(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, ErrDisabled
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = defaultFlushInterval
	}

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(uint(batchSize)).
			SetFlushInterval(uint(flushInterval)*1000))

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	healthy, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("%w: server not healthy", ErrConnectionFailed)
	}

	c := &Client{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	go c.logErrors(logger)

	return c, nil
}

func (c *Client) logErrors(logger *slog.Logger) {
	for err := range c.writeAPI.Errors() {
		logger.Warn("history write failed", "error", err)
	}
}

// WritePoint queues a point. It implements Writer.
func (c *Client) WritePoint(point *write.Point) {
	c.writeAPI.WritePoint(point)
}

// Flush writes all buffered points.
func (c *Client) Flush() {
	c.writeAPI.Flush()
}

// Close flushes pending points and closes the connection. The error logger
// exits when the write API closes its error channel.
func (c *Client) Close() {
	c.writeAPI.Flush()
	c.client.Close()
}
