package s3

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/seengo/recordstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDDBClient is an in-memory DynamoDB mock for testing.
type mockDDBClient struct {
	mu    sync.RWMutex
	items map[string]map[string]types.AttributeValue
}

func newMockDDBClient() *mockDDBClient {
	return &mockDDBClient{
		items: make(map[string]map[string]types.AttributeValue),
	}
}

func (m *mockDDBClient) GetItem(_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name := params.Key["name"].(*types.AttributeValueMemberS).Value
	item, ok := m.items[name]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (m *mockDDBClient) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := params.Item["name"].(*types.AttributeValueMemberS).Value
	m.items[name] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDDBClient) DeleteItem(_ context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := params.Key["name"].(*types.AttributeValueMemberS).Value
	delete(m.items, name)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (m *mockDDBClient) Scan(_ context.Context, params *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefix := params.ExpressionAttributeValues[":prefix"].(*types.AttributeValueMemberS).Value
	var items []map[string]types.AttributeValue
	for name, item := range m.items {
		if strings.HasPrefix(name, prefix) {
			items = append(items, map[string]types.AttributeValue{
				"name": item["name"],
			})
		}
	}
	return &dynamodb.ScanOutput{Items: items}, nil
}

func TestDynamoDBStore(t *testing.T) {
	ctx := context.Background()

	t.Run("PutGet", func(t *testing.T) {
		store := NewDynamoDBStore(newMockDDBClient(), "seengo-records", "test/")

		require.NoError(t, store.Put(ctx, "index", []byte(`{"total":0}`)))

		data, err := store.Get(ctx, "index")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"total":0}`), data)
	})

	t.Run("GetMissing", func(t *testing.T) {
		store := NewDynamoDBStore(newMockDDBClient(), "seengo-records", "test/")

		_, err := store.Get(ctx, "missing")
		require.ErrorIs(t, err, recordstore.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		store := NewDynamoDBStore(newMockDDBClient(), "seengo-records", "test/")

		require.NoError(t, store.Put(ctx, "chunk_0000", []byte("{}")))
		require.NoError(t, store.Delete(ctx, "chunk_0000"))

		_, err := store.Get(ctx, "chunk_0000")
		require.ErrorIs(t, err, recordstore.ErrNotFound)
	})

	t.Run("ListStripsNamespace", func(t *testing.T) {
		client := newMockDDBClient()
		store := NewDynamoDBStore(client, "seengo-records", "test/")

		require.NoError(t, store.Put(ctx, "chunk_0000", []byte("{}")))
		require.NoError(t, store.Put(ctx, "chunk_0001", []byte("{}")))
		require.NoError(t, store.Put(ctx, "index", []byte("{}")))

		names, err := store.List(ctx, "chunk_")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"chunk_0000", "chunk_0001"}, names)
	})

	t.Run("IsolatedNamespaces", func(t *testing.T) {
		client := newMockDDBClient()
		a := NewDynamoDBStore(client, "seengo-records", "a/")
		b := NewDynamoDBStore(client, "seengo-records", "b/")

		require.NoError(t, a.Put(ctx, "index", []byte("a-data")))
		require.NoError(t, b.Put(ctx, "index", []byte("b-data")))

		data, err := a.Get(ctx, "index")
		require.NoError(t, err)
		assert.Equal(t, []byte("a-data"), data)

		names, err := b.List(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"index"}, names)
	})
}
