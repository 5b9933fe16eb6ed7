package common

// ChangeAction describes what happened to an entity in a committed write.
type ChangeAction string

const (
	ActionCreated ChangeAction = "created"
	ActionUpdated ChangeAction = "updated"
	ActionDeleted ChangeAction = "deleted"
)

// ChangeEvent is published after a write commits.
type ChangeEvent struct {
	Kind   Kind         `json:"kind"`
	ID     string       `json:"id"`
	Action ChangeAction `json:"action"`
}
