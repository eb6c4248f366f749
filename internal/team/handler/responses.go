package handler

import (
	"time"

	"binoqule/internal/audit"
	"binoqule/internal/team/models"
)

// MemberResponse is the HTTP representation of a team member.
type MemberResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	FocusArea     string    `json:"focus_area,omitempty"`
	Bio           string    `json:"bio,omitempty"`
	PhotoURL      string    `json:"photo_url,omitempty"`
	OrderPosition int       `json:"order_position"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RosterResponse is the ordered team.
type RosterResponse struct {
	Members    []MemberResponse `json:"members"`
	Count      int              `json:"count"`
	Consistent bool             `json:"consistent"`
}

// ActivityResponse lists recent team changes, newest first.
type ActivityResponse struct {
	Events []audit.Event `json:"events"`
	Count  int           `json:"count"`
}

func toMemberResponse(m *models.Member) *MemberResponse {
	return &MemberResponse{
		ID:            m.ID,
		Name:          m.Name,
		Email:         m.Email,
		Role:          m.Role,
		FocusArea:     m.FocusArea,
		Bio:           m.Bio,
		PhotoURL:      m.PhotoURL,
		OrderPosition: m.Position,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func toRosterResponse(r *models.Roster) *RosterResponse {
	members := make([]MemberResponse, len(r.Members))
	for i := range r.Members {
		members[i] = *toMemberResponse(&r.Members[i])
	}
	return &RosterResponse{Members: members, Count: len(members), Consistent: r.Consistent}
}
