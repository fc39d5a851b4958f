package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"mentorconnect-backend/application/ports"
	"mentorconnect-backend/domain/core/entities"
	apperrors "mentorconnect-backend/pkg/errors"
)

const studentPhotoFolder = "mentor-connect/students"

// StudentService handles student profile CRUD and the student directory
// listing. Plain pass-throughs to the store; nothing here is cached.
type StudentService struct {
	profiles ports.StudentProfileRepository
	users    ports.UserRepository
	assets   ports.AssetStorage
	logger   *zap.Logger
}

// NewStudentService creates a student service.
func NewStudentService(
	profiles ports.StudentProfileRepository,
	users ports.UserRepository,
	assets ports.AssetStorage,
	logger *zap.Logger,
) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		profiles: profiles,
		users:    users,
		assets:   assets,
		logger:   logger,
	}
}

// ProfileInput carries the fields of a profile upsert. Photo may be a hosted
// URL (passed through) or inline image data (uploaded first).
type ProfileInput struct {
	UserID                string
	FullName              entities.FullName
	Department            string
	Sem                   string
	PersonalEmail         string
	Email                 string
	USN                   string
	DateOfBirth           string
	BloodGroup            string
	MobileNumber          string
	AlternatePhoneNumber  string
	Nationality           string
	Domicile              string
	Religion              string
	Category              string
	Caste                 string
	SubCaste              string
	AadharCardNumber      string
	Hostelite             bool
	PhysicallyChallenged  bool
	AdmissionDate         string
	SportsLevel           string
	DefenceOrExServiceman bool
	Photo                 string
}

// UpsertProfile creates or replaces the profile for input.UserID.
func (s *StudentService) UpsertProfile(ctx context.Context, input ProfileInput) (*entities.StudentProfile, error) {
	photoURL, err := s.resolvePhoto(ctx, input.Photo)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	profile := &entities.StudentProfile{
		UserID:                input.UserID,
		FullName:              input.FullName,
		Department:            input.Department,
		Sem:                   input.Sem,
		PersonalEmail:         input.PersonalEmail,
		Email:                 input.Email,
		USN:                   input.USN,
		DateOfBirth:           input.DateOfBirth,
		BloodGroup:            input.BloodGroup,
		MobileNumber:          input.MobileNumber,
		AlternatePhoneNumber:  input.AlternatePhoneNumber,
		Nationality:           input.Nationality,
		Domicile:              input.Domicile,
		Religion:              input.Religion,
		Category:              input.Category,
		Caste:                 input.Caste,
		SubCaste:              input.SubCaste,
		AadharCardNumber:      input.AadharCardNumber,
		Hostelite:             input.Hostelite,
		PhysicallyChallenged:  input.PhysicallyChallenged,
		AdmissionDate:         input.AdmissionDate,
		SportsLevel:           input.SportsLevel,
		DefenceOrExServiceman: input.DefenceOrExServiceman,
		PhotoURL:              photoURL,
		UpdatedAt:             now,
	}

	if existing, err := s.profiles.GetByUserID(ctx, input.UserID); err == nil {
		profile.CreatedAt = existing.CreatedAt
	} else if !apperrors.IsNotFound(err) {
		return nil, err
	} else {
		profile.CreatedAt = now
	}

	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// GetProfile returns the profile for the given user.
func (s *StudentService) GetProfile(ctx context.Context, userID string) (*entities.StudentProfile, error) {
	return s.profiles.GetByUserID(ctx, userID)
}

// DeleteProfile removes the profile for the given user.
func (s *StudentService) DeleteProfile(ctx context.Context, userID string) error {
	if _, err := s.profiles.GetByUserID(ctx, userID); err != nil {
		return err
	}
	return s.profiles.DeleteByUserID(ctx, userID)
}

// DeleteStudent removes the student's account record.
func (s *StudentService) DeleteStudent(ctx context.Context, userID string) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return err
	}
	return s.users.Delete(ctx, userID)
}

// ListStudents returns every student account joined with its profile fields.
func (s *StudentService) ListStudents(ctx context.Context) ([]StudentRow, error) {
	students, err := s.users.ListByRole(ctx, entities.RoleStudent)
	if err != nil {
		return nil, err
	}

	rows := make([]StudentRow, 0, len(students))
	for _, u := range students {
		row := StudentRow{
			ID:    u.ID,
			Name:  u.Name,
			Email: u.Email,
			Phone: u.Phone,
		}
		profile, err := s.profiles.GetByUserID(ctx, u.ID)
		switch {
		case err == nil:
			row.Department = profile.Department
			row.Sem = profile.Sem
			row.USN = profile.USN
			if row.Phone == "" {
				row.Phone = profile.MobileNumber
			}
			if row.Phone == "" {
				row.Phone = profile.AlternatePhoneNumber
			}
		case apperrors.IsNotFound(err):
			// Account without a filled-in profile still lists.
		default:
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// resolvePhoto uploads inline image data and passes hosted URLs through.
func (s *StudentService) resolvePhoto(ctx context.Context, photo string) (string, error) {
	if photo == "" || !strings.HasPrefix(photo, "data:image") {
		return photo, nil
	}
	url, err := s.assets.Upload(ctx, photo, studentPhotoFolder)
	if err != nil {
		return "", apperrors.NewExternalError("failed to upload image", err)
	}
	return url, nil
}
