package neo4j

import (
	"context"
	"fmt"

	"socratic/internal/config"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Client wraps the Neo4j driver with the loaded configuration.
type Client struct {
	Driver neo4j.DriverWithContext
	Config *config.Neo4jConfig
}

// NewClient creates a Neo4j driver and verifies connectivity.
func NewClient(ctx context.Context, cfg *config.Neo4jConfig) (*Client, error) {
	auth := neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	driver, err := neo4j.NewDriverWithContext(cfg.Uri, auth)
	if err != nil {
		return nil, fmt.Errorf("cannot create Neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("cannot connect to Neo4j: %w", err)
	}
	return &Client{Driver: driver, Config: cfg}, nil
}

// ReadCypher runs a read-mode query and collects every record.
func (c *Client) ReadCypher(ctx context.Context, query string, params map[string]interface{}) ([]*neo4j.Record, error) {
	session := c.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("cypher read failed: %w", err)
	}
	return result.Collect(ctx)
}

// Close shuts down the underlying driver.
func (c *Client) Close(ctx context.Context) error {
	if c.Driver == nil {
		return nil
	}
	return c.Driver.Close(ctx)
}
