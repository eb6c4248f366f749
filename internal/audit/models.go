package audit

import "time"

// Action names a recorded team change.
type Action string

const (
	ActionMemberCreated  Action = "team_member_created"
	ActionMemberUpdated  Action = "team_member_updated"
	ActionMemberDeleted  Action = "team_member_deleted"
	ActionMemberMoved    Action = "team_member_moved"
	ActionOrderReplaced  Action = "team_order_reconciled"
	ActionOrderRepaired  Action = "team_order_repaired"
	ActionPartialReorder Action = "team_order_partial_failure"
)

// Event is emitted from the team service to capture admin changes. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	MemberID  string    `json:"member_id,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}
