package states

type StateManager interface {
	GetState(userID int64) State
	SetState(userID int64, state State, data any)
	Clear(userID int64)
}
