// Package dynamostore implements the primary document store over a single
// DynamoDB table. Each document is one item: a "pk" partition key holding
// the document id and a "doc" map attribute holding the field snapshot,
// with datetimes encoded as tagged structures (see package internal/codec).
package dynamostore

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/espalier/document"
	"github.com/jacentio/espalier/internal/codec"
)

// Config holds configuration for the Store.
type Config struct {
	// Table is the DynamoDB table holding document items.
	// Default: "espalier_documents"
	Table string
}

func (c *Config) validate() {
	if c.Table == "" {
		c.Table = "espalier_documents"
	}
}

// Store is a document.PrimaryStore backed by one DynamoDB table.
type Store struct {
	client *dynamodb.Client
	config Config
}

// New creates a Store over an existing DynamoDB client.
func New(client *dynamodb.Client, cfg Config) *Store {
	cfg.validate()
	return &Store{client: client, config: cfg}
}

// NewFromConfig creates a Store with a client built from the default AWS
// configuration chain.
func NewFromConfig(ctx context.Context, cfg Config) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return New(dynamodb.NewFromConfig(awsCfg), cfg), nil
}

// Exists reports whether an item is stored under id.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(s.config.Table),
		Key:                  key(id),
		ProjectionExpression: aws.String("pk"),
	})
	if err != nil {
		return false, fmt.Errorf("dynamodb get %q: %w", id, err)
	}
	return result.Item != nil, nil
}

// Read returns the decoded snapshot stored under id, or
// document.ErrNotFound when the id is absent.
func (s *Store) Read(ctx context.Context, id string) (map[string]any, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.config.Table),
		Key:       key(id),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb get %q: %w", id, err)
	}
	if result.Item == nil {
		return nil, fmt.Errorf("%w: %q", document.ErrNotFound, id)
	}

	docAttr, ok := result.Item["doc"]
	if !ok {
		return nil, fmt.Errorf("dynamodb item %q has no doc attribute", id)
	}
	var raw map[string]any
	if err := attributevalue.Unmarshal(docAttr, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal item %q: %w", id, err)
	}
	snapshot, ok := codec.Revive(raw).(map[string]any)
	if !ok {
		return raw, nil
	}
	return snapshot, nil
}

// Upsert stores the full snapshot under id, replacing any previous item.
func (s *Store) Upsert(ctx context.Context, id string, snapshot map[string]any) error {
	tagged, _ := codec.Tag(snapshot).(map[string]any)
	docAttr, err := attributevalue.Marshal(tagged)
	if err != nil {
		return fmt.Errorf("marshal snapshot %q: %w", id, err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.config.Table),
		Item: map[string]types.AttributeValue{
			"pk":  &types.AttributeValueMemberS{Value: id},
			"doc": docAttr,
		},
	})
	if err != nil {
		return fmt.Errorf("dynamodb put %q: %w", id, err)
	}
	return nil
}

// Delete removes the item stored under id.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.config.Table),
		Key:       key(id),
	})
	if err != nil {
		return fmt.Errorf("dynamodb delete %q: %w", id, err)
	}
	return nil
}

// ScanKeys returns the stored ids matching a glob pattern. DynamoDB has no
// native glob matching, so the scan is narrowed server-side to the
// pattern's literal prefix and the full pattern is applied client-side.
func (s *Store) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	input := &dynamodb.ScanInput{
		TableName:            aws.String(s.config.Table),
		ProjectionExpression: aws.String("pk"),
	}
	if prefix := literalPrefix(pattern); prefix != "" {
		input.FilterExpression = aws.String("begins_with(pk, :prefix)")
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":prefix": &types.AttributeValueMemberS{Value: prefix},
		}
	}

	var keys []string
	paginator := dynamodb.NewScanPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("dynamodb scan: %w", err)
		}
		for _, item := range page.Items {
			pk, ok := item["pk"].(*types.AttributeValueMemberS)
			if !ok {
				continue
			}
			matched, err := path.Match(pattern, pk.Value)
			if err != nil {
				return nil, err
			}
			if matched {
				keys = append(keys, pk.Value)
			}
		}
	}
	return keys, nil
}

func key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: id},
	}
}

// literalPrefix returns the pattern's leading literal run, up to the first
// glob metacharacter.
func literalPrefix(pattern string) string {
	if i := strings.IndexAny(pattern, "*?["); i >= 0 {
		return pattern[:i]
	}
	return pattern
}
