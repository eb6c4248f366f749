package handler

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"binoqule/internal/team/models"
	dErrors "binoqule/pkg/domain-errors"
)

const maxReorderIDs = 1000

// MemberRequest is the HTTP body for creating or updating a team member.
// order_position is not accepted; the ordering endpoints own it.
type MemberRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	FocusArea string `json:"focus_area"`
	Bio       string `json:"bio"`
	PhotoURL  string `json:"photo_url"`
}

// Validate implements httputil.Validatable.
func (r *MemberRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	// Size validation (fail fast)
	switch {
	case utf8.RuneCountInString(r.Name) > models.MaxNameLength:
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("name must be at most %d characters", models.MaxNameLength))
	case utf8.RuneCountInString(r.Role) > models.MaxRoleLength:
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("role must be at most %d characters", models.MaxRoleLength))
	case utf8.RuneCountInString(r.FocusArea) > models.MaxFocusAreaLength:
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("focus_area must be at most %d characters", models.MaxFocusAreaLength))
	case utf8.RuneCountInString(r.Bio) > models.MaxBioLength:
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("bio must be at most %d characters", models.MaxBioLength))
	case utf8.RuneCountInString(r.PhotoURL) > models.MaxPhotoURLLength:
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("photo_url must be at most %d characters", models.MaxPhotoURLLength))
	}

	p := r.ToProfile()
	p.Normalize()
	if err := p.Validate(); err != nil {
		return dErrors.New(dErrors.CodeValidation, err.Error())
	}
	return nil
}

// ToProfile converts the request to the editable member fields.
func (r *MemberRequest) ToProfile() models.Profile {
	return models.Profile{
		Name:      r.Name,
		Email:     r.Email,
		Role:      r.Role,
		FocusArea: r.FocusArea,
		Bio:       r.Bio,
		PhotoURL:  r.PhotoURL,
	}
}

// MoveRequest is the HTTP body for POST /admin/team/move.
type MoveRequest struct {
	Index     *int   `json:"index"`
	Direction string `json:"direction"`
	// ID optionally names the member the client believes is at Index.
	ID string `json:"id,omitempty"`

	parsedDirection models.Direction
}

// Validate implements httputil.Validatable.
func (r *MoveRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Index == nil {
		return dErrors.New(dErrors.CodeValidation, "index is required")
	}
	if *r.Index < 0 {
		return dErrors.New(dErrors.CodeValidation, "index must not be negative")
	}
	d, err := models.ParseDirection(r.Direction)
	if err != nil {
		return err
	}
	r.parsedDirection = d
	r.ID = strings.TrimSpace(r.ID)
	return nil
}

// ToCommand builds the service command. Call after Validate.
func (r *MoveRequest) ToCommand() models.MoveCommand {
	return models.MoveCommand{
		Index:      *r.Index,
		Direction:  r.parsedDirection,
		ExpectedID: r.ID,
	}
}

// ReorderRequest is the HTTP body for PUT /admin/team/order.
type ReorderRequest struct {
	IDs []string `json:"ids"`
}

// Validate implements httputil.Validatable.
func (r *ReorderRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.IDs == nil {
		return dErrors.New(dErrors.CodeValidation, "ids is required")
	}
	if len(r.IDs) > maxReorderIDs {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("ids must have at most %d entries", maxReorderIDs))
	}
	for i, id := range r.IDs {
		id = strings.TrimSpace(id)
		if id == "" {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("ids[%d] is empty", i))
		}
		r.IDs[i] = id
	}
	return nil
}
