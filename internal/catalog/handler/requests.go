package handler

import (
	"strings"

	"biblio/internal/catalog/service"
	dErrors "biblio/pkg/domain-errors"
)

type BookRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
}

// Normalize trims whitespace and strips hyphens some scanners leave in ISBNs.
func (r *BookRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Author = strings.TrimSpace(r.Author)
	r.ISBN = strings.ReplaceAll(strings.TrimSpace(r.ISBN), "-", "")
}

// Validate checks required fields; format rules are enforced by the service.
func (r *BookRequest) Validate() error {
	if r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if r.Author == "" {
		return dErrors.New(dErrors.CodeValidation, "author is required")
	}
	if r.ISBN == "" {
		return dErrors.New(dErrors.CodeValidation, "isbn is required")
	}
	return nil
}

func (r *BookRequest) toInput() service.BookInput {
	return service.BookInput{Title: r.Title, Author: r.Author, ISBN: r.ISBN}
}

type MemberRequest struct {
	Name       string `json:"name"`
	NationalID string `json:"national_id"`
	Email      string `json:"email"`
}

func (r *MemberRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.NationalID = strings.ReplaceAll(strings.TrimSpace(r.NationalID), ".", "")
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *MemberRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if r.NationalID == "" {
		return dErrors.New(dErrors.CodeValidation, "national_id is required")
	}
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	return nil
}

func (r *MemberRequest) toInput() service.MemberInput {
	return service.MemberInput{Name: r.Name, NationalID: r.NationalID, Email: r.Email}
}
