package states

type State string

const (
	StateNone State = ""

	// Админ вызвал /setrate без аргумента и бот ждет новое значение курса
	AdminSetRateWaitValue State = "rate_wait_value"
)
