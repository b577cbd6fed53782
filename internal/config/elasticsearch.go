package config

import (
	"context"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
)

// NewElasticsearchClient builds the process-wide search client and checks the cluster answers.
func NewElasticsearchClient(ctx context.Context, cfg *Config) (*elasticsearch.Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ElasticsearchURL},
		APIKey:    cfg.ElasticsearchAPIKey,
		// Failures surface to the caller; nothing in this service retries.
		DisableRetry: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := PingElasticsearch(ctx, es); err != nil {
		return nil, err
	}

	return es, nil
}

// PingElasticsearch reports whether the cluster answers a HEAD / request.
func PingElasticsearch(ctx context.Context, es *elasticsearch.Client) error {
	res, err := es.Ping(es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to ping Elasticsearch: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("failed to ping Elasticsearch: %s", res.Status())
	}
	return nil
}
