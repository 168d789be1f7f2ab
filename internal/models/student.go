package models

import (
	"fmt"
	"time"
)

// Batch identifies an intake cohort.
type Batch struct {
	ID      string `db:"id" json:"id"`
	Title   string `db:"title" json:"title"`
	Session string `db:"session" json:"session"`
}

// Label renders the batch the way it is shown to students, e.g. "BBA 5 (2013-14)".
func (b Batch) Label() string {
	return fmt.Sprintf("%s (%s)", b.Title, b.Session)
}

// Program is an academic program a student may belong to.
type Program struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// StudentProfile is a directory entry. Batch is always loaded; Program is nil
// when the student has none.
type StudentProfile struct {
	ID                 string    `db:"id"`
	FirstName          string    `db:"first_name"`
	LastName           string    `db:"last_name"`
	UniID              string    `db:"uni_id"`
	Email              string    `db:"email"`
	Phone              *string   `db:"phone"`
	Bio                *string   `db:"bio"`
	ProfilePic         *string   `db:"profile_pic"`
	Country            *string   `db:"country"`
	CurrentJobPosition *string   `db:"current_job_position"`
	CurrentCompany     *string   `db:"current_company"`
	LinkedIn           *string   `db:"linkedin"`
	Facebook           *string   `db:"facebook"`
	Instagram          *string   `db:"instagram"`
	IsCR               bool      `db:"is_cr"`
	IsVerified         bool      `db:"is_verified"`
	BatchID            string    `db:"batch_id"`
	ProgramID          *string   `db:"program_id"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`

	Batch   Batch    `db:"batch"`
	Program *Program `db:"-"`
}

// ProfileView is the public representation of a StudentProfile.
type ProfileView struct {
	ID                 string  `json:"id"`
	FirstName          string  `json:"first_name"`
	LastName           string  `json:"last_name"`
	UniID              string  `json:"uni_id"`
	Bio                *string `json:"bio"`
	ProfilePic         *string `json:"profile_pic"`
	Batch              string  `json:"batch"`
	Program            *string `json:"program"`
	Country            *string `json:"country"`
	CurrentJobPosition *string `json:"current_job_position"`
	CurrentCompany     *string `json:"current_company"`
	Email              string  `json:"email"`
	Phone              *string `json:"phone"`
	LinkedIn           *string `json:"linkedin"`
	Facebook           *string `json:"facebook"`
	Instagram          *string `json:"instagram"`
	IsCR               bool    `json:"is_cr"`
	IsVerified         bool    `json:"is_verified"`
}

// View converts the profile into its public representation.
func (p StudentProfile) View() ProfileView {
	v := ProfileView{
		ID:                 p.ID,
		FirstName:          p.FirstName,
		LastName:           p.LastName,
		UniID:              p.UniID,
		Bio:                p.Bio,
		ProfilePic:         p.ProfilePic,
		Batch:              p.Batch.Title,
		Country:            p.Country,
		CurrentJobPosition: p.CurrentJobPosition,
		CurrentCompany:     p.CurrentCompany,
		Email:              p.Email,
		Phone:              p.Phone,
		LinkedIn:           p.LinkedIn,
		Facebook:           p.Facebook,
		Instagram:          p.Instagram,
		IsCR:               p.IsCR,
		IsVerified:         p.IsVerified,
	}
	if p.Program != nil {
		name := p.Program.Name
		v.Program = &name
	}
	return v
}

// ProfileFilter holds the structured filters of the profile listing. Empty
// strings and a nil IsCR impose no constraint.
type ProfileFilter struct {
	Batch    string
	Program  string
	IsCR     *bool
	Company  string
	Position string
}

// ProfileFilterEcho reports the raw filter parameters back to the client.
type ProfileFilterEcho struct {
	Batch    *string `json:"batch"`
	Program  *string `json:"program"`
	IsCR     *string `json:"is_cr"`
	Company  *string `json:"company"`
	Position *string `json:"position"`
}

// ProfileListResponse is the body of the filtered listing.
type ProfileListResponse struct {
	Count   int               `json:"count"`
	Filters ProfileFilterEcho `json:"filters"`
	Results []ProfileView     `json:"results"`
}
