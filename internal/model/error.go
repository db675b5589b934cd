package model

// ValidationError reports a rejected operation precondition (unknown
// entity, rank too low, full storage, ...). The command layer turns it
// into a player-facing rejection message.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Param   string `json:"param"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *NotFoundError) Error() string {
	return e.Message
}
