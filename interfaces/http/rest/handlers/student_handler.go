package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"mentorconnect-backend/application/services"
	"mentorconnect-backend/domain/core/entities"
	"mentorconnect-backend/pkg/common"
	apperrors "mentorconnect-backend/pkg/errors"
	"mentorconnect-backend/pkg/utils"
)

// StudentHandler serves the student directory and profile endpoints.
type StudentHandler struct {
	students *services.StudentService
	errors   *apperrors.ErrorHandler
	logger   *zap.Logger
}

// NewStudentHandler creates a student handler.
func NewStudentHandler(students *services.StudentService, errHandler *apperrors.ErrorHandler, logger *zap.Logger) *StudentHandler {
	return &StudentHandler{students: students, errors: errHandler, logger: logger}
}

// FullNameRequest mirrors the nested name object of the profile body.
type FullNameRequest struct {
	First  string `json:"first" validate:"required,max=100"`
	Middle string `json:"middle" validate:"omitempty,max=100"`
	Last   string `json:"last" validate:"omitempty,max=100"`
}

// UpsertProfileRequest is the body of PUT /students/{userID}/profile.
type UpsertProfileRequest struct {
	FullName              FullNameRequest `json:"fullName" validate:"required"`
	Department            string          `json:"department" validate:"omitempty,max=100"`
	Sem                   string          `json:"sem" validate:"omitempty,max=20"`
	PersonalEmail         string          `json:"personalEmail" validate:"omitempty,email"`
	Email                 string          `json:"email" validate:"omitempty,email"`
	USN                   string          `json:"usn" validate:"omitempty,max=50"`
	DateOfBirth           string          `json:"dateOfBirth" validate:"omitempty,max=30"`
	BloodGroup            string          `json:"bloodGroup" validate:"omitempty,max=10"`
	MobileNumber          string          `json:"mobileNumber" validate:"omitempty,max=20"`
	AlternatePhoneNumber  string          `json:"alternatePhoneNumber" validate:"omitempty,max=20"`
	Nationality           string          `json:"nationality" validate:"omitempty,max=60"`
	Domicile              string          `json:"domicile" validate:"omitempty,max=60"`
	Religion              string          `json:"religion" validate:"omitempty,max=60"`
	Category              string          `json:"category" validate:"omitempty,max=60"`
	Caste                 string          `json:"caste" validate:"omitempty,max=60"`
	SubCaste              string          `json:"subCaste" validate:"omitempty,max=60"`
	AadharCardNumber      string          `json:"aadharCardNumber" validate:"omitempty,max=20"`
	Hostelite             bool            `json:"hostelite"`
	PhysicallyChallenged  bool            `json:"physicallyChallenged"`
	AdmissionDate         string          `json:"admissionDate" validate:"omitempty,max=30"`
	SportsLevel           string          `json:"sportsLevel" validate:"omitempty,max=60"`
	DefenceOrExServiceman bool            `json:"defenceOrExServiceman"`
	Photo                 string          `json:"photo" validate:"omitempty"`
}

// UpsertProfile handles PUT /students/{userID}/profile.
func (h *StudentHandler) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		common.RespondError(w, http.StatusBadRequest, "user id is required")
		return
	}

	var req UpsertProfileRequest
	if err := common.ParseJSONBody(r, &req, 8<<20); err != nil {
		common.RespondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.students.UpsertProfile(r.Context(), services.ProfileInput{
		UserID: userID,
		FullName: entities.FullName{
			First:  req.FullName.First,
			Middle: req.FullName.Middle,
			Last:   req.FullName.Last,
		},
		Department:            req.Department,
		Sem:                   req.Sem,
		PersonalEmail:         req.PersonalEmail,
		Email:                 req.Email,
		USN:                   req.USN,
		DateOfBirth:           req.DateOfBirth,
		BloodGroup:            req.BloodGroup,
		MobileNumber:          req.MobileNumber,
		AlternatePhoneNumber:  req.AlternatePhoneNumber,
		Nationality:           req.Nationality,
		Domicile:              req.Domicile,
		Religion:              req.Religion,
		Category:              req.Category,
		Caste:                 req.Caste,
		SubCaste:              req.SubCaste,
		AadharCardNumber:      req.AadharCardNumber,
		Hostelite:             req.Hostelite,
		PhysicallyChallenged:  req.PhysicallyChallenged,
		AdmissionDate:         req.AdmissionDate,
		SportsLevel:           req.SportsLevel,
		DefenceOrExServiceman: req.DefenceOrExServiceman,
		Photo:                 req.Photo,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, profile)
}

// GetProfile handles GET /students/{userID}/profile.
func (h *StudentHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		common.RespondError(w, http.StatusBadRequest, "user id is required")
		return
	}

	profile, err := h.students.GetProfile(r.Context(), userID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, profile)
}

// DeleteProfile handles DELETE /students/{userID}/profile.
func (h *StudentHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		common.RespondError(w, http.StatusBadRequest, "user id is required")
		return
	}

	if err := h.students.DeleteProfile(r.Context(), userID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListStudents handles GET /students.
func (h *StudentHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	rows, err := h.students.ListStudents(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, rows)
}

// DeleteStudent handles DELETE /students/{userID}.
func (h *StudentHandler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		common.RespondError(w, http.StatusBadRequest, "user id is required")
		return
	}

	if err := h.students.DeleteStudent(r.Context(), userID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
