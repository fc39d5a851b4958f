package dynamodb

import (
	"context"
	"fmt"

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

const entityUser = "USER"

// UserRepository implements ports.UserRepository on DynamoDB. Accounts are
// written by the identity surface; this backend only ever reads and deletes
// them, so there is no Save.
type UserRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewUserRepository creates a DynamoDB-backed user repository.
func NewUserRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.UserRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserRepository{client: client, tableName: tableName, logger: logger}
}

type userItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK"`
	GSI1SK     string `dynamodbav:"GSI1SK"`
	EntityType string `dynamodbav:"EntityType"`
	UserID     string `dynamodbav:"UserID"`
	Name       string `dynamodbav:"Name"`
	Email      string `dynamodbav:"Email"`
	Phone      string `dynamodbav:"Phone"`
	Avatar     string `dynamodbav:"Avatar"`
	Role       string `dynamodbav:"Role"`
}

// GetByID retrieves a single account.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(id)},
			"SK": &types.AttributeValueMemberS{Value: skMetadata},
		},
	})
	if err != nil {
		return nil, apperrors.NewStoreError("failed to get user", err)
	}
	if result.Item == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("user %s not found", id))
	}

	var item userItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, apperrors.NewStoreError("failed to unmarshal user", err)
	}
	return item.toEntity(), nil
}

// GetByIDs batch-loads accounts, preserving input order. Unknown ids are
// skipped so callers can resolve participant lists that reference deleted
// users.
func (r *UserRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.User, error) {
	if len(ids) == 0 {
		return []*entities.User{}, nil
	}

	byID := make(map[string]*entities.User, len(ids))
	seen := make(map[string]struct{}, len(ids))

	for start := 0; start < len(ids); start += 100 {
		end := start + 100
		if end > len(ids) {
			end = len(ids)
		}

		keys := make([]map[string]types.AttributeValue, 0, end-start)
		for _, id := range ids[start:end] {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			keys = append(keys, map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: userPK(id)},
				"SK": &types.AttributeValueMemberS{Value: skMetadata},
			})
		}
		if len(keys) == 0 {
			continue
		}

		request := map[string]types.KeysAndAttributes{
			r.tableName: {Keys: keys},
		}
		for len(request) > 0 {
			result, err := r.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
				RequestItems: request,
			})
			if err != nil {
				return nil, apperrors.NewStoreError("failed to batch get users", err)
			}
			for _, raw := range result.Responses[r.tableName] {
				var item userItem
				if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
					r.logger.Warn("skipping unreadable user item", zap.Error(err))
					continue
				}
				byID[item.UserID] = item.toEntity()
			}
			request = result.UnprocessedKeys
			if len(request) == 0 || len(request[r.tableName].Keys) == 0 {
				break
			}
		}
	}

	users := make([]*entities.User, 0, len(byID))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			users = append(users, u)
			delete(byID, id)
		}
	}
	return users, nil
}

// ListByRole queries the role index for every account holding the role.
func (r *UserRepository) ListByRole(ctx context.Context, role string) ([]*entities.User, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value("ROLE#" + role))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, apperrors.NewStoreError("failed to build role query", err)
	}

	var users []*entities.User
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
			return nil, apperrors.NewStoreError("failed to list users by role", err)
		}
		for _, raw := range result.Items {
			var item userItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				r.logger.Warn("skipping unreadable user item", zap.Error(err))
				continue
			}
			users = append(users, item.toEntity())
		}
		if result.LastEvaluatedKey == nil {
			break
		}
		lastKey = result.LastEvaluatedKey
	}
	return users, nil
}

// Delete removes the account item. The caller decides what happens to the
// user's profile and thread memberships.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(id)},
			"SK": &types.AttributeValueMemberS{Value: skMetadata},
		},
	})
	if err != nil {
		return apperrors.NewStoreError("failed to delete user", err)
	}
	r.logger.Debug("user deleted", zap.String("user_id", id))
	return nil
}

func (item userItem) toEntity() *entities.User {
	return &entities.User{
		ID:     item.UserID,
		Name:   item.Name,
		Email:  item.Email,
		Phone:  item.Phone,
		Avatar: item.Avatar,
		Role:   item.Role,
	}
}
