package orders

import "fmt"

// transitions - объединение переходов всех вариантов бота. Какие из них
// реально доступны оператору, решает Variant.
var transitions = map[Status]map[Action]Status{
	StatusNew: {
		ActionAccept:   StatusAccepted,
		ActionProcess:  StatusProcessing,
		ActionComplete: StatusCompleted,
		ActionReject:   StatusRejected,
	},
	StatusAccepted: {
		ActionMarkPaid: StatusPaid,
	},
	StatusProcessing: {
		ActionComplete: StatusCompleted,
		ActionReject:   StatusRejected,
	},
}

// Next возвращает статус после действия action из статуса from.
func Next(from Status, action Action) (Status, bool) {
	next, ok := transitions[from][action]
	return next, ok
}

// StatusAfter возвращает статус, в который ведет действие, независимо от
// исходного статуса: в объединенной таблице каждое действие имеет
// единственную цель, поэтому токену не нужно возить исходный статус.
func StatusAfter(action Action) (Status, bool) {
	switch action {
	case ActionAccept:
		return StatusAccepted, true
	case ActionProcess:
		return StatusProcessing, true
	case ActionComplete:
		return StatusCompleted, true
	case ActionReject:
		return StatusRejected, true
	case ActionMarkPaid:
		return StatusPaid, true
	}
	return "", false
}

// Variant - конфигурация развертывания: какие кнопки видит оператор.
type Variant struct {
	Name    string
	actions map[Status][]Action
}

var variants = map[string]Variant{
	// Выполнено/Отклонить сразу из новой заявки
	"simple": {
		Name: "simple",
		actions: map[Status][]Action{
			StatusNew: {ActionComplete, ActionReject},
		},
	},
	// Через промежуточный статус "в обработке"
	"processing": {
		Name: "processing",
		actions: map[Status][]Action{
			StatusNew:        {ActionProcess, ActionComplete, ActionReject},
			StatusProcessing: {ActionComplete, ActionReject},
		},
	},
	// Принять -> Оплачено
	"escrow": {
		Name: "escrow",
		actions: map[Status][]Action{
			StatusNew:      {ActionAccept, ActionReject},
			StatusAccepted: {ActionMarkPaid},
		},
	},
}

// VariantByName возвращает именованный вариант или ошибку конфигурации.
func VariantByName(name string) (Variant, error) {
	v, ok := variants[name]
	if !ok {
		return Variant{}, fmt.Errorf("unknown topup variant %q", name)
	}
	return v, nil
}

// ActionsFor возвращает кнопки, доступные оператору в данном статусе.
// Для терминальных статусов список пуст.
func (v Variant) ActionsFor(status Status) []Action {
	return v.actions[status]
}

// Allows проверяет, что действие вообще доступно в этом варианте.
func (v Variant) Allows(action Action) bool {
	for _, actions := range v.actions {
		for _, a := range actions {
			if a == action {
				return true
			}
		}
	}
	return false
}
