package service

import (
	"fmt"

	"github.com/noah-isme/student-directory-api/internal/models"
)

func strPtr(s string) *string { return &s }

var defaultBatch = models.Batch{ID: "b-bba5", Title: "BBA 5", Session: "2013-14"}

type profileOpt func(*models.StudentProfile)

func withCompany(v string) profileOpt {
	return func(p *models.StudentProfile) { p.CurrentCompany = strPtr(v) }
}

func withPosition(v string) profileOpt {
	return func(p *models.StudentProfile) { p.CurrentJobPosition = strPtr(v) }
}

func withPhone(v string) profileOpt {
	return func(p *models.StudentProfile) { p.Phone = strPtr(v) }
}

func withBio(v string) profileOpt {
	return func(p *models.StudentProfile) { p.Bio = strPtr(v) }
}

func withEmail(v string) profileOpt {
	return func(p *models.StudentProfile) { p.Email = v }
}

func withProgram(name string) profileOpt {
	return func(p *models.StudentProfile) {
		id := "pr-" + name
		p.ProgramID = &id
		p.Program = &models.Program{ID: id, Name: name}
	}
}

func withBatch(b models.Batch) profileOpt {
	return func(p *models.StudentProfile) {
		p.Batch = b
		p.BatchID = b.ID
	}
}

func asCR() profileOpt {
	return func(p *models.StudentProfile) { p.IsCR = true }
}

func newProfile(id, first, last, uniID string, opts ...profileOpt) models.StudentProfile {
	p := models.StudentProfile{
		ID:        id,
		FirstName: first,
		LastName:  last,
		UniID:     uniID,
		Email:     fmt.Sprintf("%s@students.example.com", uniID),
		BatchID:   defaultBatch.ID,
		Batch:     defaultBatch,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}
