// Package dynamodb implements the persistence ports against a single
// DynamoDB table. Every entity carries a composite PK/SK pair; threads
// additionally write one membership item per participant so the
// threads-for-user query never scans.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
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
	"mentorconnect-backend/pkg/utils"
)

const (
	skMetadata     = "METADATA"
	entityThread   = "THREAD"
	entityMember   = "THREAD_MEMBER"
	gsiEntityIndex = "GSI1"
)

// ThreadRepository implements ports.ThreadRepository on DynamoDB.
type ThreadRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewThreadRepository creates a DynamoDB-backed thread repository.
func NewThreadRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.ThreadRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ThreadRepository{client: client, tableName: tableName, logger: logger}
}

// threadItem is the metadata record for a thread. GSI1PK is the constant
// entity type so ListAll is a query, not a table scan.
type threadItem struct {
	PK             string   `dynamodbav:"PK"`
	SK             string   `dynamodbav:"SK"`
	GSI1PK         string   `dynamodbav:"GSI1PK"`
	GSI1SK         string   `dynamodbav:"GSI1SK"`
	EntityType     string   `dynamodbav:"EntityType"`
	ThreadID       string   `dynamodbav:"ThreadID"`
	AuthorID       string   `dynamodbav:"AuthorID"`
	ParticipantIDs []string `dynamodbav:"ParticipantIDs"`
	Title          string   `dynamodbav:"Title"`
	Topic          string   `dynamodbav:"Topic"`
	Status         string   `dynamodbav:"Status"`
	MessageIDs     []string `dynamodbav:"MessageIDs"`
	CreatedAt      string   `dynamodbav:"CreatedAt"`
	UpdatedAt      string   `dynamodbav:"UpdatedAt"`
}

// memberItem links a user to a thread under the user's partition.
type memberItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	ThreadID   string `dynamodbav:"ThreadID"`
	UserID     string `dynamodbav:"UserID"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
}

func threadPK(id string) string { return "THREAD#" + id }
func userPK(id string) string   { return "USER#" + id }
func memberSK(id string) string { return "THREAD#" + id }

// Save writes the thread metadata and one membership item per participant
// in a single transaction, so a thread never appears without its membership
// rows.
func (r *ThreadRepository) Save(ctx context.Context, thread *entities.Thread) error {
	item := threadItemFrom(thread)

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return apperrors.NewStoreError("failed to marshal thread", err)
	}

	writes := []types.TransactWriteItem{
		{Put: &types.Put{TableName: aws.String(r.tableName), Item: av}},
	}
	for _, pid := range thread.ParticipantIDs {
		member := memberItem{
			PK:         userPK(pid),
			SK:         memberSK(thread.ID),
			EntityType: entityMember,
			ThreadID:   thread.ID,
			UserID:     pid,
			CreatedAt:  thread.CreatedAt.Format(time.RFC3339),
		}
		mav, err := attributevalue.MarshalMap(member)
		if err != nil {
			return apperrors.NewStoreError("failed to marshal thread membership", err)
		}
		writes = append(writes, types.TransactWriteItem{
			Put: &types.Put{TableName: aws.String(r.tableName), Item: mav},
		})
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: writes,
	})
	if err != nil {
		return apperrors.NewStoreError("failed to save thread", err)
	}

	r.logger.Debug("thread saved",
		zap.String("thread_id", thread.ID),
		zap.Int("participants", len(thread.ParticipantIDs)),
	)
	return nil
}

// GetByID retrieves a thread's metadata item.
func (r *ThreadRepository) GetByID(ctx context.Context, id string) (*entities.Thread, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: threadPK(id)},
			"SK": &types.AttributeValueMemberS{Value: skMetadata},
		},
	})
	if err != nil {
		return nil, apperrors.NewStoreError("failed to get thread", err)
	}
	if result.Item == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("thread %s not found", id))
	}

	var item threadItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, apperrors.NewStoreError("failed to unmarshal thread", err)
	}
	return item.toEntity(), nil
}

// GetByParticipant queries the user's partition for membership items, then
// batch-loads the referenced thread metadata.
func (r *ThreadRepository) GetByParticipant(ctx context.Context, userID string) ([]*entities.Thread, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(userPK(userID))).
		And(expression.Key("SK").BeginsWith("THREAD#"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, apperrors.NewStoreError("failed to build membership query", err)
	}

	var threadIDs []string
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
			return nil, apperrors.NewStoreError("failed to query thread memberships", err)
		}
		for _, raw := range result.Items {
			var member memberItem
			if err := attributevalue.UnmarshalMap(raw, &member); err != nil {
				r.logger.Warn("skipping unreadable membership item", zap.Error(err))
				continue
			}
			threadIDs = append(threadIDs, member.ThreadID)
		}
		if result.LastEvaluatedKey == nil {
			break
		}
		lastKey = result.LastEvaluatedKey
	}

	return r.batchGetThreads(ctx, threadIDs)
}

// ListAll queries the entity-type index for every thread metadata item.
func (r *ThreadRepository) ListAll(ctx context.Context) ([]*entities.Thread, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(entityThread))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, apperrors.NewStoreError("failed to build thread listing query", err)
	}

	var threads []*entities.Thread
	var lastKey map[string]types.AttributeValue
	for {
		result, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			IndexName:                 aws.String(gsiEntityIndex),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         lastKey,
		})
		if err != nil {
			return nil, apperrors.NewStoreError("failed to list threads", err)
		}
		for _, raw := range result.Items {
			var item threadItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				r.logger.Warn("skipping unreadable thread item", zap.Error(err))
				continue
			}
			threads = append(threads, item.toEntity())
		}
		if result.LastEvaluatedKey == nil {
			break
		}
		lastKey = result.LastEvaluatedKey
	}
	return threads, nil
}

// AppendMessage pushes a message id onto the thread's list in a single
// store-level update. The condition fails for absent threads, which maps to
// not-found instead of silently creating a stub item.
func (r *ThreadRepository) AppendMessage(ctx context.Context, threadID, messageID string) error {
	update := expression.Set(
		expression.Name("MessageIDs"),
		expression.ListAppend(
			expression.IfNotExists(expression.Name("MessageIDs"), expression.Value([]string{})),
			expression.Value([]string{messageID}),
		),
	).Set(
		expression.Name("UpdatedAt"),
		expression.Value(utils.NowRFC3339()),
	)
	cond := expression.AttributeExists(expression.Name("PK"))

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return apperrors.NewStoreError("failed to build message append", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: threadPK(threadID)},
			"SK": &types.AttributeValueMemberS{Value: skMetadata},
		},
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionFailure(err) {
			return apperrors.NewNotFoundError(fmt.Sprintf("thread %s not found", threadID))
		}
		return apperrors.NewStoreError("failed to append message to thread", err)
	}
	return nil
}

// SetStatus updates the thread status, failing with not-found for absent
// threads.
func (r *ThreadRepository) SetStatus(ctx context.Context, threadID string, status entities.ThreadStatus) error {
	update := expression.Set(
		expression.Name("Status"),
		expression.Value(string(status)),
	).Set(
		expression.Name("UpdatedAt"),
		expression.Value(utils.NowRFC3339()),
	)
	cond := expression.AttributeExists(expression.Name("PK"))

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return apperrors.NewStoreError("failed to build status update", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: threadPK(threadID)},
			"SK": &types.AttributeValueMemberS{Value: skMetadata},
		},
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionFailure(err) {
			return apperrors.NewNotFoundError(fmt.Sprintf("thread %s not found", threadID))
		}
		return apperrors.NewStoreError("failed to update thread status", err)
	}
	return nil
}

// Delete removes the metadata item and every membership item. The thread is
// read first so the membership keys are known.
func (r *ThreadRepository) Delete(ctx context.Context, threadID string) error {
	thread, err := r.GetByID(ctx, threadID)
	if err != nil {
		return err
	}

	writes := []types.TransactWriteItem{
		{Delete: &types.Delete{
			TableName: aws.String(r.tableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: threadPK(threadID)},
				"SK": &types.AttributeValueMemberS{Value: skMetadata},
			},
		}},
	}
	for _, pid := range thread.ParticipantIDs {
		writes = append(writes, types.TransactWriteItem{
			Delete: &types.Delete{
				TableName: aws.String(r.tableName),
				Key: map[string]types.AttributeValue{
					"PK": &types.AttributeValueMemberS{Value: userPK(pid)},
					"SK": &types.AttributeValueMemberS{Value: memberSK(threadID)},
				},
			},
		})
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: writes,
	})
	if err != nil {
		return apperrors.NewStoreError("failed to delete thread", err)
	}

	r.logger.Debug("thread deleted", zap.String("thread_id", threadID))
	return nil
}

// batchGetThreads loads thread metadata items in BatchGetItem chunks of 100,
// preserving the order of ids. Missing threads are skipped; a membership row
// can briefly outlive its thread.
func (r *ThreadRepository) batchGetThreads(ctx context.Context, ids []string) ([]*entities.Thread, error) {
	if len(ids) == 0 {
		return []*entities.Thread{}, nil
	}

	byID := make(map[string]*entities.Thread, len(ids))
	for start := 0; start < len(ids); start += 100 {
		end := start + 100
		if end > len(ids) {
			end = len(ids)
		}

		keys := make([]map[string]types.AttributeValue, 0, end-start)
		for _, id := range ids[start:end] {
			keys = append(keys, map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: threadPK(id)},
				"SK": &types.AttributeValueMemberS{Value: skMetadata},
			})
		}

		request := map[string]types.KeysAndAttributes{
			r.tableName: {Keys: keys},
		}
		for len(request) > 0 {
			result, err := r.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
				RequestItems: request,
			})
			if err != nil {
				return nil, apperrors.NewStoreError("failed to batch get threads", err)
			}
			for _, raw := range result.Responses[r.tableName] {
				var item threadItem
				if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
					r.logger.Warn("skipping unreadable thread item", zap.Error(err))
					continue
				}
				byID[item.ThreadID] = item.toEntity()
			}
			request = result.UnprocessedKeys
			if len(request) == 0 || len(request[r.tableName].Keys) == 0 {
				break
			}
		}
	}

	threads := make([]*entities.Thread, 0, len(byID))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			threads = append(threads, t)
		}
	}
	return threads, nil
}

func threadItemFrom(thread *entities.Thread) threadItem {
	messageIDs := thread.MessageIDs
	if messageIDs == nil {
		messageIDs = []string{}
	}
	return threadItem{
		PK:             threadPK(thread.ID),
		SK:             skMetadata,
		GSI1PK:         entityThread,
		GSI1SK:         thread.CreatedAt.Format(time.RFC3339) + "#" + thread.ID,
		EntityType:     entityThread,
		ThreadID:       thread.ID,
		AuthorID:       thread.AuthorID,
		ParticipantIDs: thread.ParticipantIDs,
		Title:          thread.Title,
		Topic:          thread.Topic,
		Status:         string(thread.Status),
		MessageIDs:     messageIDs,
		CreatedAt:      thread.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      thread.UpdatedAt.Format(time.RFC3339),
	}
}

func (item threadItem) toEntity() *entities.Thread {
	createdAt, _ := utils.ParseRFC3339(item.CreatedAt)
	updatedAt, _ := utils.ParseRFC3339(item.UpdatedAt)
	messageIDs := item.MessageIDs
	if messageIDs == nil {
		messageIDs = []string{}
	}
	return &entities.Thread{
		ID:             item.ThreadID,
		AuthorID:       item.AuthorID,
		ParticipantIDs: item.ParticipantIDs,
		Title:          item.Title,
		Topic:          item.Topic,
		Status:         entities.ThreadStatus(item.Status),
		MessageIDs:     messageIDs,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}
}

func isConditionFailure(err error) bool {
	var condErr *types.ConditionalCheckFailedException
	return errors.As(err, &condErr)
}
