package flows

// SetRateFlowData - данные флоу смены курса: какое сообщение с подсказкой
// редактировать после ввода значения.
type SetRateFlowData struct {
	PromptMessageID int
}
