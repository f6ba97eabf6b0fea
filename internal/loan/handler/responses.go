package handler

import (
	"time"

	cataloghandler "biblio/internal/catalog/handler"
	"biblio/internal/loan/models"
)

type LoanResponse struct {
	ID           string     `json:"id"`
	BookID       string     `json:"book_id"`
	MemberID     string     `json:"member_id"`
	BookTitle    string     `json:"book_title"`
	BookISBN     string     `json:"book_isbn"`
	BookAuthor   string     `json:"book_author,omitempty"`
	MemberName   string     `json:"member_name,omitempty"`
	MemberNumber string     `json:"member_number,omitempty"`
	StartDate    time.Time  `json:"start_date"`
	DueDate      time.Time  `json:"due_date"`
	ReturnDate   *time.Time `json:"return_date,omitempty"`
	Status       string     `json:"status"`
	FineAmount   int64      `json:"fine_amount"`
}

func toLoanResponse(l *models.Loan) LoanResponse {
	return LoanResponse{
		ID:         l.ID.String(),
		BookID:     l.BookID.String(),
		MemberID:   l.MemberID.String(),
		BookTitle:  l.BookTitle,
		BookISBN:   l.BookISBN,
		StartDate:  l.StartDate,
		DueDate:    l.DueDate,
		ReturnDate: l.ReturnDate,
		Status:     string(l.Status),
		FineAmount: l.FineAmount,
	}
}

func toLoanDetailsResponse(d models.LoanDetails) LoanResponse {
	resp := toLoanResponse(d.Loan)
	if d.Book != nil {
		resp.BookAuthor = d.Book.Author
	}
	if d.Member != nil {
		resp.MemberName = d.Member.Name
		resp.MemberNumber = d.Member.MemberNumber
	}
	return resp
}

type SweepResponse struct {
	Marked int `json:"marked"`
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

var toMemberResponse = cataloghandler.ToMemberResponse
