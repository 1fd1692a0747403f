package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	apperrors "film-community/backend/pkg/errors"
	"film-community/backend/pkg/logger"
	"film-community/backend/pkg/metrics"
)

// Repository handles all Neo4j database operations. It is safe for
// concurrent use: every method opens its own session and closes it before
// returning.
type Repository struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger
}

// NewRepository creates a new graph repository. An empty database selects
// the server default.
func NewRepository(driver neo4j.DriverWithContext, database string) *Repository {
	return &Repository{
		driver:   driver,
		database: database,
		logger:   logger.Named("graph"),
	}
}

// Connect builds a driver and verifies connectivity within timeout
func Connect(ctx context.Context, uri, user, password string, maxPoolSize int, timeout time.Duration) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(
		uri,
		neo4j.BasicAuth(user, password, ""),
		func(c *neo4j.Config) {
			c.MaxConnectionPoolSize = maxPoolSize
		},
	)
	if err != nil {
		return nil, apperrors.NewGraphConnectionFailed(uri, err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, apperrors.NewGraphConnectionFailed(uri, err)
	}

	return driver, nil
}

// Close closes the Neo4j driver connection
func (r *Repository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

// Ping verifies the store is reachable
func (r *Repository) Ping(ctx context.Context) error {
	return r.driver.VerifyConnectivity(ctx)
}

// read runs one query in a read transaction on a session scoped to this call
func (r *Repository) read(ctx context.Context, operation, query string, params map[string]any) ([]*neo4j.Record, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: r.database,
	})
	defer session.Close(ctx)

	start := time.Now()
	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	metrics.RecordGraphQuery(operation, time.Since(start), err)
	if err != nil {
		r.logger.Error("Graph query failed", zap.String("operation", operation), zap.Error(err))
		return nil, apperrors.NewGraphQueryFailed(operation, err)
	}

	records, _ := out.([]*neo4j.Record)
	return records, nil
}

// write runs one statement in a write transaction. Only the importer writes.
func (r *Repository) write(ctx context.Context, operation, query string, params map[string]any) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: r.database,
	})
	defer session.Close(ctx)

	start := time.Now()
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	metrics.RecordGraphQuery(operation, time.Since(start), err)
	if err != nil {
		return apperrors.NewGraphQueryFailed(operation, err)
	}
	return nil
}

// FindNode looks up a single node. It returns nil when no node matches.
func (r *Repository) FindNode(ctx context.Context, ref NodeRef) (*neo4j.Node, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		MATCH (n:%s {%s: $value})
		RETURN n
		LIMIT 1
	`, ref.Label, ref.Key)

	records, err := r.read(ctx, "find_node", query, map[string]any{"value": ref.Value})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	node, ok := getNodeFromRecord(records[0], "n")
	if !ok {
		return nil, nil
	}
	return &node, nil
}

// FindMovie looks up a movie by id. It returns nil when absent.
func (r *Repository) FindMovie(ctx context.Context, movieID int64) (*neo4j.Node, error) {
	return r.FindNode(ctx, NodeRef{Label: LabelMovie, Key: "id", Value: movieID})
}

// Labels and keys are interpolated into Cypher, so only known ones pass
func validateRef(ref NodeRef) error {
	switch ref.Label {
	case LabelMovie, LabelUser:
		if ref.Key != "id" {
			return apperrors.NewInvalidNodeType(ref.Label + "." + ref.Key)
		}
	case LabelGenre:
		if ref.Key != "name" {
			return apperrors.NewInvalidNodeType(ref.Label + "." + ref.Key)
		}
	default:
		return apperrors.NewInvalidNodeType(ref.Label)
	}
	return nil
}
