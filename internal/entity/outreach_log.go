package entity

import (
	"time"

	"github.com/google/uuid"
)

type Channel string

const (
	ChannelEmail   Channel = "email"
	ChannelTwitter Channel = "twitter"
)

// SentEmail is an append-only record of a delivered email.
type SentEmail struct {
	ID             string    `json:"id"`
	CoachEmail     string    `json:"coach_email"`
	CoachName      string    `json:"coach_name"`
	School         string    `json:"school"`
	Division       string    `json:"division"`
	Role           Role      `json:"role"`
	TemplateID     string    `json:"template_id"`
	FollowupNumber int       `json:"followup_number"`
	SentAt         time.Time `json:"sent_at"`
}

func NewSentEmail(entry CoachEntry, templateID string, followupNumber int, at time.Time) SentEmail {
	return SentEmail{
		ID:             uuid.New().String(),
		CoachEmail:     entry.Email,
		CoachName:      entry.Name,
		School:         entry.School,
		Division:       entry.Division,
		Role:           entry.Role,
		TemplateID:     templateID,
		FollowupNumber: followupNumber,
		SentAt:         at,
	}
}

// DMRecord is an append-only record of a sent Twitter DM.
type DMRecord struct {
	ID        string    `json:"id"`
	Handle    string    `json:"handle"`
	CoachName string    `json:"coach_name"`
	School    string    `json:"school"`
	Role      Role      `json:"role"`
	SentAt    time.Time `json:"sent_at"`
}

func NewDMRecord(entry TwitterEntry, at time.Time) DMRecord {
	return DMRecord{
		ID:        uuid.New().String(),
		Handle:    entry.Handle,
		CoachName: entry.Name,
		School:    entry.School,
		Role:      entry.Role,
		SentAt:    at,
	}
}

// Response is an append-only record of a coach reply.
type Response struct {
	ID         string    `json:"id"`
	CoachEmail string    `json:"coach_email"`
	CoachName  string    `json:"coach_name"`
	School     string    `json:"school"`
	Subject    string    `json:"subject"`
	Snippet    string    `json:"snippet"`
	ReceivedAt time.Time `json:"received_at"`
}

func NewResponse(email, name, school, subject, snippet string, at time.Time) Response {
	return Response{
		ID:         uuid.New().String(),
		CoachEmail: email,
		CoachName:  name,
		School:     school,
		Subject:    subject,
		Snippet:    snippet,
		ReceivedAt: at,
	}
}

// Key identifies a reply for duplicate detection during inbox scans.
func (r Response) Key() string {
	return r.CoachEmail + "|" + r.Subject
}
