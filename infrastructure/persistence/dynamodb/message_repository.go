package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"mentorconnect-backend/application/ports"
	"mentorconnect-backend/domain/core/entities"
	apperrors "mentorconnect-backend/pkg/errors"
)

const entityMessage = "MESSAGE"

// MessageRepository implements ports.MessageRepository on DynamoDB. Messages
// live under the thread's partition with a timestamp-prefixed sort key, so
// querying the partition returns them in creation order.
type MessageRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewMessageRepository creates a DynamoDB-backed message repository.
func NewMessageRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.MessageRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageRepository{client: client, tableName: tableName, logger: logger}
}

type messageItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI2PK     string `dynamodbav:"GSI2PK"`
	EntityType string `dynamodbav:"EntityType"`
	MessageID  string `dynamodbav:"MessageID"`
	ThreadID   string `dynamodbav:"ThreadID"`
	SenderID   string `dynamodbav:"SenderID"`
	Body       string `dynamodbav:"Body"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
}

// messageSK orders messages by creation time; the id suffix breaks ties
// between messages sent in the same nanosecond.
func messageSK(createdAt time.Time, id string) string {
	return "MSG#" + createdAt.UTC().Format(time.RFC3339Nano) + "#" + id
}

// Save persists a single message.
func (r *MessageRepository) Save(ctx context.Context, message *entities.Message) error {
	item := messageItem{
		PK:         threadPK(message.ThreadID),
		SK:         messageSK(message.CreatedAt, message.ID),
		GSI2PK:     "MSG#" + message.ID,
		EntityType: entityMessage,
		MessageID:  message.ID,
		ThreadID:   message.ThreadID,
		SenderID:   message.SenderID,
		Body:       message.Body,
		CreatedAt:  message.CreatedAt.UTC().Format(time.RFC3339Nano),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return apperrors.NewStoreError("failed to marshal message", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		return apperrors.NewStoreError("failed to save message", err)
	}
	return nil
}

// GetByThread queries the thread's partition for its messages in sort-key
// order.
func (r *MessageRepository) GetByThread(ctx context.Context, threadID string) ([]*entities.Message, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(threadPK(threadID))).
		And(expression.Key("SK").BeginsWith("MSG#"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, apperrors.NewStoreError("failed to build message query", err)
	}

	var messages []*entities.Message
	var lastKey map[string]types.AttributeValue
	for {
		result, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         lastKey,
		})
		if err != nil {
			return nil, apperrors.NewStoreError("failed to query messages", err)
		}
		for _, raw := range result.Items {
			var item messageItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				r.logger.Warn("skipping unreadable message item", zap.Error(err))
				continue
			}
			messages = append(messages, item.toEntity())
		}
		if result.LastEvaluatedKey == nil {
			break
		}
		lastKey = result.LastEvaluatedKey
	}
	return messages, nil
}

// Delete removes a single message item. Used to back out a message whose
// thread reference could not be written.
func (r *MessageRepository) Delete(ctx context.Context, message *entities.Message) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: threadPK(message.ThreadID)},
			"SK": &types.AttributeValueMemberS{Value: messageSK(message.CreatedAt, message.ID)},
		},
	})
	if err != nil {
		return apperrors.NewStoreError("failed to delete message", err)
	}
	return nil
}

// DeleteByThread removes every message in the thread's partition in batches
// of 25, the BatchWriteItem limit.
func (r *MessageRepository) DeleteByThread(ctx context.Context, threadID string) error {
	messages, err := r.GetByThread(ctx, threadID)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}

	for start := 0; start < len(messages); start += 25 {
		end := start + 25
		if end > len(messages) {
			end = len(messages)
		}

		writes := make([]types.WriteRequest, 0, end-start)
		for _, m := range messages[start:end] {
			writes = append(writes, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{
					Key: map[string]types.AttributeValue{
						"PK": &types.AttributeValueMemberS{Value: threadPK(threadID)},
						"SK": &types.AttributeValueMemberS{Value: messageSK(m.CreatedAt, m.ID)},
					},
				},
			})
		}

		request := map[string][]types.WriteRequest{r.tableName: writes}
		for len(request) > 0 {
			result, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: request,
			})
			if err != nil {
				return apperrors.NewStoreError("failed to delete messages", err)
			}
			request = result.UnprocessedItems
			if len(request[r.tableName]) == 0 {
				break
			}
		}
	}

	r.logger.Debug("thread messages deleted",
		zap.String("thread_id", threadID),
		zap.Int("count", len(messages)),
	)
	return nil
}

func (item messageItem) toEntity() *entities.Message {
	createdAt, _ := time.Parse(time.RFC3339Nano, item.CreatedAt)
	return &entities.Message{
		ID:        item.MessageID,
		ThreadID:  item.ThreadID,
		SenderID:  item.SenderID,
		Body:      item.Body,
		CreatedAt: createdAt,
	}
}
