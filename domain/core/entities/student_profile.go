package entities

import "time"

// FullName splits a student's legal name into its parts.
type FullName struct {
	First  string `json:"first"`
	Middle string `json:"middle,omitempty"`
	Last   string `json:"last,omitempty"`
}

// StudentProfile carries the extended registration record a student fills in
// once their account exists. Keyed by the owning user id, not its own id.
type StudentProfile struct {
	UserID                string    `json:"userId"`
	FullName              FullName  `json:"fullName"`
	Department            string    `json:"department,omitempty"`
	Sem                   string    `json:"sem,omitempty"`
	PersonalEmail         string    `json:"personalEmail,omitempty"`
	Email                 string    `json:"email,omitempty"`
	USN                   string    `json:"usn,omitempty"`
	DateOfBirth           string    `json:"dateOfBirth,omitempty"`
	BloodGroup            string    `json:"bloodGroup,omitempty"`
	MobileNumber          string    `json:"mobileNumber,omitempty"`
	AlternatePhoneNumber  string    `json:"alternatePhoneNumber,omitempty"`
	Nationality           string    `json:"nationality,omitempty"`
	Domicile              string    `json:"domicile,omitempty"`
	Religion              string    `json:"religion,omitempty"`
	Category              string    `json:"category,omitempty"`
	Caste                 string    `json:"caste,omitempty"`
	SubCaste              string    `json:"subCaste,omitempty"`
	AadharCardNumber      string    `json:"aadharCardNumber,omitempty"`
	Hostelite             bool      `json:"hostelite"`
	PhysicallyChallenged  bool      `json:"physicallyChallenged"`
	AdmissionDate         string    `json:"admissionDate,omitempty"`
	SportsLevel           string    `json:"sportsLevel,omitempty"`
	DefenceOrExServiceman bool      `json:"defenceOrExServiceman"`
	PhotoURL              string    `json:"photoUrl,omitempty"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}
