package instrument

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"transit-backend/internal/config"
)

// DynamoDB accepts at most 25 items per BatchWriteItem call.
const dynamoBatchSize = 25

type batchWriter interface {
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// DynamoDBSink stores each event as an item keyed by span_id.
type DynamoDBSink struct {
	client batchWriter
	table  string
}

func NewDynamoDBSink(ctx context.Context, cfg config.DynamoDBConfig) (*DynamoDBSink, error) {
	if cfg.Region == "" {
		return nil, errors.New("dynamodb sink: region is required")
	}
	if cfg.Table == "" {
		return nil, errors.New("dynamodb sink: table is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("dynamodb sink: load aws config: %w", err)
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}

	var opts []func(*dynamodb.Options)
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	return &DynamoDBSink{client: dynamodb.NewFromConfig(awsCfg, opts...), table: cfg.Table}, nil
}

func (s *DynamoDBSink) Name() string { return "dynamodb" }

func (s *DynamoDBSink) Write(ctx context.Context, events []Event) error {
	for start := 0; start < len(events); start += dynamoBatchSize {
		end := min(start+dynamoBatchSize, len(events))

		requests := make([]types.WriteRequest, 0, end-start)
		for _, e := range events[start:end] {
			item, err := eventItem(e)
			if err != nil {
				return err
			}
			requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
		}

		out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{s.table: requests},
		})
		if err != nil {
			return fmt.Errorf("batch write %s: %w", s.table, err)
		}
		if out != nil {
			if n := len(out.UnprocessedItems[s.table]); n > 0 {
				slog.Warn("dynamodb sink: unprocessed items dropped", "table", s.table, "count", n)
			}
		}
	}
	return nil
}

func (s *DynamoDBSink) Close() error { return nil }

func eventItem(e Event) (map[string]types.AttributeValue, error) {
	attrs, err := json.Marshal(e.Attrs)
	if err != nil {
		return nil, fmt.Errorf("marshal event attrs: %w", err)
	}
	item := map[string]types.AttributeValue{
		"span_id":     &types.AttributeValueMemberS{Value: e.SpanID},
		"trace_id":    &types.AttributeValueMemberS{Value: e.TraceID},
		"kind":        &types.AttributeValueMemberS{Value: e.Kind},
		"component":   &types.AttributeValueMemberS{Value: e.Component},
		"action":      &types.AttributeValueMemberS{Value: e.Action},
		"at":          &types.AttributeValueMemberS{Value: e.At.Format(time.RFC3339Nano)},
		"duration_ms": &types.AttributeValueMemberN{Value: strconv.FormatFloat(e.DurationMs, 'f', -1, 64)},
		"attrs":       &types.AttributeValueMemberS{Value: string(attrs)},
	}
	optional := map[string]string{
		"parent_span_id": e.ParentSpanID,
		"table":          e.Table,
		"record_id":      e.RecordID,
		"status":         e.Status,
	}
	for k, v := range optional {
		if v != "" {
			item[k] = &types.AttributeValueMemberS{Value: v}
		}
	}
	return item, nil
}
