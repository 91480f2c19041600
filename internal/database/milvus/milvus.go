package milvus

import (
	"context"
	"fmt"

	"socratic/internal/config"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
)

// Client wraps the Milvus SDK client with the loaded configuration.
type Client struct {
	Client client.Client
	Config *config.MilvusConfig
}

// NewClient connects to Milvus and loads the configured collection so
// searches can run immediately.
func NewClient(ctx context.Context, cfg *config.MilvusConfig) (*Client, error) {
	c, err := client.NewClient(ctx, client.Config{Address: cfg.Address})
	if err != nil {
		return nil, fmt.Errorf("cannot connect to Milvus: %w", err)
	}
	if cfg.Collection != "" {
		if err := c.LoadCollection(ctx, cfg.Collection, false); err != nil {
			c.Close()
			return nil, fmt.Errorf("cannot load Milvus collection '%s': %w", cfg.Collection, err)
		}
	}
	return &Client{Client: c, Config: cfg}, nil
}

// Close shuts down the underlying client.
func (c *Client) Close() error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Close()
}
