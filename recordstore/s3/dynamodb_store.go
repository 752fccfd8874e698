package s3

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/seengo/recordstore"
)

// DDBClient is the interface for the DynamoDB operations DynamoDBStore
// uses. *dynamodb.Client satisfies it; tests can substitute a fake.
type DDBClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoDBStore implements recordstore.Store with one DynamoDB item
// per record. PutItem is atomic per key, so the index commit write has
// the single-write semantics the store layer depends on.
//
// Table schema:
//   - Partition key: name (string) - the record name, prefixed with baseURI
//   - Attribute: data (binary) - the record payload
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name seengo-records \
//	  --attribute-definitions AttributeName=name,AttributeType=S \
//	  --key-schema AttributeName=name,KeyType=HASH \
//	  --billing-mode PAY_PER_REQUEST
type DynamoDBStore struct {
	client    DDBClient
	tableName string
	baseURI   string
}

// NewDynamoDBStore creates a new DynamoDB record store. baseURI
// namespaces all record names within the table (e.g. "prod/seen/").
func NewDynamoDBStore(client DDBClient, tableName, baseURI string) *DynamoDBStore {
	return &DynamoDBStore{
		client:    client,
		tableName: tableName,
		baseURI:   baseURI,
	}
}

func (s *DynamoDBStore) itemName(name string) string {
	return s.baseURI + name
}

// Get returns the payload of the named record.
func (s *DynamoDBStore) Get(ctx context.Context, name string) ([]byte, error) {
	resp, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"name": &types.AttributeValueMemberS{Value: s.itemName(name)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if resp.Item == nil {
		return nil, recordstore.ErrNotFound
	}
	data, ok := resp.Item["data"].(*types.AttributeValueMemberB)
	if !ok {
		return nil, errors.New("invalid data attribute in DynamoDB item")
	}
	return data.Value, nil
}

// Put writes a record atomically.
func (s *DynamoDBStore) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"name": &types.AttributeValueMemberS{Value: s.itemName(name)},
			"data": &types.AttributeValueMemberB{Value: data},
		},
	})
	return err
}

// Delete removes a record.
func (s *DynamoDBStore) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"name": &types.AttributeValueMemberS{Value: s.itemName(name)},
		},
	})
	return err
}

// List returns all record names matching the prefix.
func (s *DynamoDBStore) List(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := s.itemName(prefix)
	var names []string

	input := &dynamodb.ScanInput{
		TableName:        aws.String(s.tableName),
		FilterExpression: aws.String("begins_with(#n, :prefix)"),
		ExpressionAttributeNames: map[string]string{
			"#n": "name",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":prefix": &types.AttributeValueMemberS{Value: fullPrefix},
		},
		ProjectionExpression: aws.String("#n"),
	}

	for {
		resp, err := s.client.Scan(ctx, input)
		if err != nil {
			return nil, err
		}
		for _, item := range resp.Items {
			nameAttr, ok := item["name"].(*types.AttributeValueMemberS)
			if !ok {
				continue
			}
			names = append(names, strings.TrimPrefix(nameAttr.Value, s.baseURI))
		}
		if resp.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = resp.LastEvaluatedKey
	}
	return names, nil
}
