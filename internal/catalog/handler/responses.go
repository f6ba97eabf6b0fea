package handler

import (
	"time"

	"biblio/internal/catalog/models"
)

type BookResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	ISBN      string    `json:"isbn"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toBookResponse(b *models.Book) BookResponse {
	return BookResponse{
		ID:        b.ID.String(),
		Title:     b.Title,
		Author:    b.Author,
		ISBN:      b.ISBN,
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

type MemberResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	NationalID   string    `json:"national_id"`
	MemberNumber string    `json:"member_number"`
	Email        string    `json:"email"`
	PendingFines int64     `json:"pending_fines"`
	CreatedAt    time.Time `json:"created_at"`
}

// ToMemberResponse is shared with the loan handler for fine listings.
func ToMemberResponse(m *models.Member) MemberResponse {
	return MemberResponse{
		ID:           m.ID.String(),
		Name:         m.Name,
		NationalID:   m.NationalID,
		MemberNumber: m.MemberNumber,
		Email:        m.Email,
		PendingFines: m.PendingFines,
		CreatedAt:    m.CreatedAt,
	}
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func toList[S any, T any](items []S, convert func(S) T) listResponse[T] {
	out := make([]T, 0, len(items))
	for _, item := range items {
		out = append(out, convert(item))
	}
	return listResponse[T]{Items: out, Count: len(out)}
}
