package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"mentorconnect-backend/application/ports"
	"mentorconnect-backend/domain/core/entities"
	apperrors "mentorconnect-backend/pkg/errors"
	"mentorconnect-backend/pkg/utils"
)

const (
	skProfile     = "PROFILE"
	entityProfile = "STUDENT_PROFILE"
)

// StudentProfileRepository implements ports.StudentProfileRepository on
// DynamoDB. The profile lives next to the account under the user's
// partition.
type StudentProfileRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewStudentProfileRepository creates a DynamoDB-backed profile repository.
func NewStudentProfileRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.StudentProfileRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentProfileRepository{client: client, tableName: tableName, logger: logger}
}

type profileItem struct {
	PK                    string `dynamodbav:"PK"`
	SK                    string `dynamodbav:"SK"`
	EntityType            string `dynamodbav:"EntityType"`
	UserID                string `dynamodbav:"UserID"`
	FirstName             string `dynamodbav:"FirstName"`
	MiddleName            string `dynamodbav:"MiddleName"`
	LastName              string `dynamodbav:"LastName"`
	Department            string `dynamodbav:"Department"`
	Sem                   string `dynamodbav:"Sem"`
	PersonalEmail         string `dynamodbav:"PersonalEmail"`
	Email                 string `dynamodbav:"Email"`
	USN                   string `dynamodbav:"USN"`
	DateOfBirth           string `dynamodbav:"DateOfBirth"`
	BloodGroup            string `dynamodbav:"BloodGroup"`
	MobileNumber          string `dynamodbav:"MobileNumber"`
	AlternatePhoneNumber  string `dynamodbav:"AlternatePhoneNumber"`
	Nationality           string `dynamodbav:"Nationality"`
	Domicile              string `dynamodbav:"Domicile"`
	Religion              string `dynamodbav:"Religion"`
	Category              string `dynamodbav:"Category"`
	Caste                 string `dynamodbav:"Caste"`
	SubCaste              string `dynamodbav:"SubCaste"`
	AadharCardNumber      string `dynamodbav:"AadharCardNumber"`
	Hostelite             bool   `dynamodbav:"Hostelite"`
	PhysicallyChallenged  bool   `dynamodbav:"PhysicallyChallenged"`
	AdmissionDate         string `dynamodbav:"AdmissionDate"`
	SportsLevel           string `dynamodbav:"SportsLevel"`
	DefenceOrExServiceman bool   `dynamodbav:"DefenceOrExServiceman"`
	PhotoURL              string `dynamodbav:"PhotoURL"`
	CreatedAt             string `dynamodbav:"CreatedAt"`
	UpdatedAt             string `dynamodbav:"UpdatedAt"`
}

// GetByUserID retrieves the profile for the given user.
func (r *StudentProfileRepository) GetByUserID(ctx context.Context, userID string) (*entities.StudentProfile, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(userID)},
			"SK": &types.AttributeValueMemberS{Value: skProfile},
		},
	})
	if err != nil {
		return nil, apperrors.NewStoreError("failed to get student profile", err)
	}
	if result.Item == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("profile for user %s not found", userID))
	}

	var item profileItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, apperrors.NewStoreError("failed to unmarshal student profile", err)
	}
	return item.toEntity(), nil
}

// Save creates or replaces the profile.
func (r *StudentProfileRepository) Save(ctx context.Context, profile *entities.StudentProfile) error {
	item := profileItem{
		PK:                    userPK(profile.UserID),
		SK:                    skProfile,
		EntityType:            entityProfile,
		UserID:                profile.UserID,
		FirstName:             profile.FullName.First,
		MiddleName:            profile.FullName.Middle,
		LastName:              profile.FullName.Last,
		Department:            profile.Department,
		Sem:                   profile.Sem,
		PersonalEmail:         profile.PersonalEmail,
		Email:                 profile.Email,
		USN:                   profile.USN,
		DateOfBirth:           profile.DateOfBirth,
		BloodGroup:            profile.BloodGroup,
		MobileNumber:          profile.MobileNumber,
		AlternatePhoneNumber:  profile.AlternatePhoneNumber,
		Nationality:           profile.Nationality,
		Domicile:              profile.Domicile,
		Religion:              profile.Religion,
		Category:              profile.Category,
		Caste:                 profile.Caste,
		SubCaste:              profile.SubCaste,
		AadharCardNumber:      profile.AadharCardNumber,
		Hostelite:             profile.Hostelite,
		PhysicallyChallenged:  profile.PhysicallyChallenged,
		AdmissionDate:         profile.AdmissionDate,
		SportsLevel:           profile.SportsLevel,
		DefenceOrExServiceman: profile.DefenceOrExServiceman,
		PhotoURL:              profile.PhotoURL,
		CreatedAt:             profile.CreatedAt.Format(time.RFC3339),
		UpdatedAt:             profile.UpdatedAt.Format(time.RFC3339),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return apperrors.NewStoreError("failed to marshal student profile", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		return apperrors.NewStoreError("failed to save student profile", err)
	}

	r.logger.Debug("student profile saved", zap.String("user_id", profile.UserID))
	return nil
}

// DeleteByUserID removes the profile item. Deleting an absent profile
// succeeds.
func (r *StudentProfileRepository) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(userID)},
			"SK": &types.AttributeValueMemberS{Value: skProfile},
		},
	})
	if err != nil {
		return apperrors.NewStoreError("failed to delete student profile", err)
	}
	return nil
}

func (item profileItem) toEntity() *entities.StudentProfile {
	createdAt, _ := utils.ParseRFC3339(item.CreatedAt)
	updatedAt, _ := utils.ParseRFC3339(item.UpdatedAt)
	return &entities.StudentProfile{
		UserID: item.UserID,
		FullName: entities.FullName{
			First:  item.FirstName,
			Middle: item.MiddleName,
			Last:   item.LastName,
		},
		Department:            item.Department,
		Sem:                   item.Sem,
		PersonalEmail:         item.PersonalEmail,
		Email:                 item.Email,
		USN:                   item.USN,
		DateOfBirth:           item.DateOfBirth,
		BloodGroup:            item.BloodGroup,
		MobileNumber:          item.MobileNumber,
		AlternatePhoneNumber:  item.AlternatePhoneNumber,
		Nationality:           item.Nationality,
		Domicile:              item.Domicile,
		Religion:              item.Religion,
		Category:              item.Category,
		Caste:                 item.Caste,
		SubCaste:              item.SubCaste,
		AadharCardNumber:      item.AadharCardNumber,
		Hostelite:             item.Hostelite,
		PhysicallyChallenged:  item.PhysicallyChallenged,
		AdmissionDate:         item.AdmissionDate,
		SportsLevel:           item.SportsLevel,
		DefenceOrExServiceman: item.DefenceOrExServiceman,
		PhotoURL:              item.PhotoURL,
		CreatedAt:             createdAt,
		UpdatedAt:             updatedAt,
	}
}
