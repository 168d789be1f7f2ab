package dto

// UpdateProfileRequest carries writable profile fields. Nil means "not sent".
// For nullable fields an empty string clears the value. Verification status is
// deliberately absent: it cannot be changed through the API.
type UpdateProfileRequest struct {
	FirstName          *string `json:"first_name" validate:"omitempty,max=30"`
	LastName           *string `json:"last_name" validate:"omitempty,max=30"`
	UniID              *string `json:"uni_id" validate:"omitempty,max=20"`
	Email              *string `json:"email" validate:"omitempty,email"`
	Phone              *string `json:"phone" validate:"omitempty,max=15"`
	Bio                *string `json:"bio"`
	ProfilePic         *string `json:"profile_pic" validate:"omitempty,url"`
	Batch              *string `json:"batch" validate:"omitempty,max=100"`
	Program            *string `json:"program" validate:"omitempty,max=100"`
	Country            *string `json:"country" validate:"omitempty,max=100"`
	CurrentJobPosition *string `json:"current_job_position" validate:"omitempty,max=200"`
	CurrentCompany     *string `json:"current_company" validate:"omitempty,max=200"`
	LinkedIn           *string `json:"linkedin" validate:"omitempty,url"`
	Facebook           *string `json:"facebook" validate:"omitempty,url"`
	Instagram          *string `json:"instagram" validate:"omitempty,url"`
	IsCR               *bool   `json:"is_cr"`
}

// ExportFormat selects the directory export encoding.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportFile is a rendered directory export.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}
