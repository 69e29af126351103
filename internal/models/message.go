package models

import "time"

// ContactMessage represents an entry in the contact inbox.
type ContactMessage struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Subject   string    `db:"subject" json:"subject"`
	Body      string    `db:"body" json:"body"`
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ContactRequest is the public payload for submitting a message.
type ContactRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,min=3,max=200"`
	Body    string `json:"body" validate:"required,min=10,max=5000"`
}

// MessageFilter captures query criteria for the admin inbox view.
type MessageFilter struct {
	Unread   *bool
	Page     int
	PageSize int
}
