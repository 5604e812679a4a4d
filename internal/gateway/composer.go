package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/spec-kit/community-hub/internal/persistence"
)

// Subgraph identifies one federated service.
type Subgraph struct {
	Name string
	URL  string
}

// RoutingTable maps top-level field names to the URL of the owning subgraph,
// per operation type. This is the whole of the gateway's schema knowledge:
// it routes, it never resolves.
type RoutingTable struct {
	Query    map[string]string `json:"query"`
	Mutation map[string]string `json:"mutation"`
}

// Owner returns the subgraph URL owning a top-level field.
func (t *RoutingTable) Owner(operation, field string) (string, bool) {
	switch operation {
	case "query":
		url, ok := t.Query[field]
		return url, ok
	case "mutation":
		url, ok := t.Mutation[field]
		return url, ok
	default:
		return "", false
	}
}

const routingCacheKey = "gateway:routing_table"

// Composer discovers each subgraph's top-level schema at startup and builds
// the routing table. The last composed table is cached in redis so the
// gateway can still boot, degraded, while a subgraph is down.
type Composer struct {
	subgraphs []Subgraph
	client    *http.Client
	cache     *persistence.Redis
	logger    *zap.Logger
}

// NewComposer builds a composer over the configured subgraphs.
func NewComposer(subgraphs []Subgraph, client *http.Client, cache *persistence.Redis, logger *zap.Logger) *Composer {
	return &Composer{subgraphs: subgraphs, client: client, cache: cache, logger: logger}
}

// Compose introspects every subgraph and merges the field maps. If any
// subgraph is unreachable it falls back to the cached table; with no cache
// available composition fails.
func (c *Composer) Compose(ctx context.Context) (*RoutingTable, error) {
	table := &RoutingTable{Query: map[string]string{}, Mutation: map[string]string{}}

	for _, sg := range c.subgraphs {
		queryFields, mutationFields, err := c.introspect(ctx, sg)
		if err != nil {
			c.logger.Warn("subgraph introspection failed",
				zap.String("subgraph", sg.Name),
				zap.Error(err))
			if cached := c.cachedTable(ctx); cached != nil {
				c.logger.Warn("using cached routing table")
				return cached, nil
			}
			return nil, fmt.Errorf("introspect subgraph %s: %w", sg.Name, err)
		}

		for _, field := range queryFields {
			if prev, ok := table.Query[field]; ok {
				c.logger.Warn("duplicate query field across subgraphs",
					zap.String("field", field), zap.String("kept", prev))
				continue
			}
			table.Query[field] = sg.URL
		}
		for _, field := range mutationFields {
			if prev, ok := table.Mutation[field]; ok {
				c.logger.Warn("duplicate mutation field across subgraphs",
					zap.String("field", field), zap.String("kept", prev))
				continue
			}
			table.Mutation[field] = sg.URL
		}
	}

	c.storeTable(ctx, table)
	return table, nil
}

const introspectionQuery = `{
  __schema {
    queryType { fields { name } }
    mutationType { fields { name } }
  }
}`

func (c *Composer) introspect(ctx context.Context, sg Subgraph) ([]string, []string, error) {
	body, err := json.Marshal(map[string]string{"query": introspectionQuery})
	if err != nil {
		return nil, nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, sg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var decoded struct {
		Data struct {
			Schema struct {
				QueryType    *fieldContainer `json:"queryType"`
				MutationType *fieldContainer `json:"mutationType"`
			} `json:"__schema"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, nil, err
	}

	return fieldNames(decoded.Data.Schema.QueryType), fieldNames(decoded.Data.Schema.MutationType), nil
}

type fieldContainer struct {
	Fields []struct {
		Name string `json:"name"`
	} `json:"fields"`
}

func fieldNames(container *fieldContainer) []string {
	if container == nil {
		return nil
	}
	names := make([]string, 0, len(container.Fields))
	for _, f := range container.Fields {
		names = append(names, f.Name)
	}
	return names
}

func (c *Composer) cachedTable(ctx context.Context) *RoutingTable {
	if c.cache == nil || c.cache.Client == nil {
		return nil
	}
	raw, err := c.cache.Client.Get(ctx, routingCacheKey).Bytes()
	if err != nil {
		return nil
	}
	var table RoutingTable
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil
	}
	return &table
}

func (c *Composer) storeTable(ctx context.Context, table *RoutingTable) {
	if c.cache == nil || c.cache.Client == nil {
		return
	}
	raw, err := json.Marshal(table)
	if err != nil {
		return
	}
	if err := c.cache.Client.Set(ctx, routingCacheKey, raw, 0).Err(); err != nil {
		c.logger.Warn("failed to cache routing table", zap.Error(err))
	}
}
