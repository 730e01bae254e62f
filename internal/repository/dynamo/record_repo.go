package dynamo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"sessionwatch/internal/domain"
)

// Item attribute names. Session documents are stored as top-level attributes
// next to the key.
const (
	attrPartition = "PK"
	attrSortKey   = "SK"
	attrUpdatedAt = "updatedAt"
)

// API is the subset of the DynamoDB client used by the record store.
type API interface {
	dynamodb.QueryAPIClient
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

type recordRepository struct {
	client API
	table  string
}

// NewRecordRepository returns a RecordStore backed by a single DynamoDB table
// keyed by PK (hash) and SK (range).
func NewRecordRepository(client API, table string) domain.RecordStore {
	return &recordRepository{client: client, table: table}
}

// CreateTable creates the record table with on-demand billing. An existing
// table is left as is.
func CreateTable(ctx context.Context, client API, table string) error {
	_, err := client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(attrPartition), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(attrSortKey), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(attrPartition), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(attrSortKey), KeyType: types.KeyTypeRange},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	var inUse *types.ResourceInUseException
	if errors.As(err, &inUse) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

func (r *recordRepository) ListByPartition(ctx context.Context, partition string) ([]*domain.Record, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                aws.String(r.table),
		KeyConditionExpression:   aws.String("#pk = :pk"),
		ExpressionAttributeNames: map[string]string{"#pk": attrPartition},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: partition},
		},
	})
	records := make([]*domain.Record, 0)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query partition %s: %w", partition, err)
		}
		for _, item := range page.Items {
			rec, err := decodeItem(item)
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

func (r *recordRepository) Insert(ctx context.Context, rec *domain.Record) error {
	item, err := encodeItem(rec)
	if err != nil {
		return err
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(#pk) AND attribute_not_exists(#sk)"),
		ExpressionAttributeNames: map[string]string{
			"#pk": attrPartition,
			"#sk": attrSortKey,
		},
	})
	var failed *types.ConditionalCheckFailedException
	if errors.As(err, &failed) {
		return fmt.Errorf("%s/%s: %w", rec.Key.Partition, rec.Key.SortKey, domain.ErrConflict)
	}
	return err
}

func (r *recordRepository) Put(ctx context.Context, rec *domain.Record) error {
	item, err := encodeItem(rec)
	if err != nil {
		return err
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	})
	return err
}

func (r *recordRepository) Delete(ctx context.Context, key domain.RecordKey) error {
	out, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			attrPartition: &types.AttributeValueMemberS{Value: key.Partition},
			attrSortKey:   &types.AttributeValueMemberS{Value: key.SortKey},
		},
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return err
	}
	if len(out.Attributes) == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func encodeItem(rec *domain.Record) (map[string]types.AttributeValue, error) {
	doc := map[string]any{}
	if err := json.Unmarshal(rec.Data, &doc); err != nil {
		return nil, fmt.Errorf("record %s/%s is not a JSON object: %w", rec.Key.Partition, rec.Key.SortKey, err)
	}
	doc[attrPartition] = rec.Key.Partition
	doc[attrSortKey] = rec.Key.SortKey
	doc[attrUpdatedAt] = rec.UpdatedAt.UTC().Format(time.RFC3339Nano)
	item, err := attributevalue.MarshalMap(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal record %s/%s: %w", rec.Key.Partition, rec.Key.SortKey, err)
	}
	return item, nil
}

func decodeItem(item map[string]types.AttributeValue) (*domain.Record, error) {
	doc := map[string]any{}
	if err := attributevalue.UnmarshalMap(item, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	rec := &domain.Record{}
	rec.Key.Partition, _ = doc[attrPartition].(string)
	rec.Key.SortKey, _ = doc[attrSortKey].(string)
	if s, ok := doc[attrUpdatedAt].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			rec.UpdatedAt = t
		}
	}
	delete(doc, attrPartition)
	delete(doc, attrSortKey)
	delete(doc, attrUpdatedAt)
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode item %s/%s: %w", rec.Key.Partition, rec.Key.SortKey, err)
	}
	rec.Data = data
	return rec, nil
}
