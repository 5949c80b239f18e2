package orders

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrMalformedToken - callback payload не разобрался: не тот формат,
// нечисловые id или неизвестное действие.
var ErrMalformedToken = errors.New("malformed action token")

type Action string

const (
	ActionAccept   Action = "accept"
	ActionProcess  Action = "process"
	ActionComplete Action = "complete"
	ActionReject   Action = "reject"
	ActionMarkPaid Action = "markpaid"
)

var knownActions = map[Action]bool{
	ActionAccept:   true,
	ActionProcess:  true,
	ActionComplete: true,
	ActionReject:   true,
	ActionMarkPaid: true,
}

// Token - типизированная граница для callback data кнопок оператора.
// Сериализуется в строку вида action_<userID>_<chatID>_<amount>[_<login b64>].
// Логин кодируется base64url, чтобы подчеркивания и не-ASCII символы
// переживали транспорт без потерь.
type Token struct {
	Action Action
	UserID int64
	ChatID int64
	Amount decimal.Decimal
	Login  string
}

func (t Token) Encode() string {
	parts := []string{
		string(t.Action),
		strconv.FormatInt(t.UserID, 10),
		strconv.FormatInt(t.ChatID, 10),
		t.Amount.StringFixed(2),
	}
	if t.Login != "" {
		parts = append(parts, base64.RawURLEncoding.EncodeToString([]byte(t.Login)))
	}
	return strings.Join(parts, "_")
}

func DecodeToken(data string) (*Token, error) {
	parts := strings.SplitN(data, "_", 5)
	if len(parts) < 4 {
		return nil, fmt.Errorf("%w: ожидается 4-5 полей, получено %d", ErrMalformedToken, len(parts))
	}

	action := Action(parts[0])
	if !knownActions[action] {
		return nil, fmt.Errorf("%w: неизвестное действие %q", ErrMalformedToken, parts[0])
	}

	userID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: user id %q", ErrMalformedToken, parts[1])
	}

	chatID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: chat id %q", ErrMalformedToken, parts[2])
	}

	amount, err := decimal.NewFromString(parts[3])
	if err != nil {
		return nil, fmt.Errorf("%w: сумма %q", ErrMalformedToken, parts[3])
	}

	token := &Token{
		Action: action,
		UserID: userID,
		ChatID: chatID,
		Amount: amount,
	}

	if len(parts) == 5 {
		login, err := base64.RawURLEncoding.DecodeString(parts[4])
		if err != nil {
			return nil, fmt.Errorf("%w: логин не декодируется: %v", ErrMalformedToken, err)
		}
		token.Login = string(login)
	}

	return token, nil
}

// HasActionPrefix сообщает, похож ли callback data на токен заявки.
// Роутер по нему решает, отдавать ли update обработчику диспозиций.
func HasActionPrefix(data string) bool {
	head, _, ok := strings.Cut(data, "_")
	if !ok {
		return false
	}
	return knownActions[Action(head)]
}
