package localization

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed translations/*.yaml
var translationsFS embed.FS

// Service отдаёт тексты сообщений бота по ключам вида "section.key".
// Плейсхолдеры в текстах - {{name}}, {{amount}} и т.д.
type Service struct {
	translations map[string]interface{}
}

func NewService() (*Service, error) {
	data, err := translationsFS.ReadFile("translations/ru.yaml")
	if err != nil {
		return nil, fmt.Errorf("read ru translations: %w", err)
	}

	var translations map[string]interface{}
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("parse ru translations: %w", err)
	}

	return &Service{translations: translations}, nil
}

// Get возвращает текст по ключу. Если ключ не найден, возвращается сам ключ,
// чтобы пропавший перевод было видно в чате, а не в панике.
func (s *Service) Get(key string, params map[string]interface{}) string {
	parts := strings.Split(key, ".")
	var current interface{} = s.translations

	for _, part := range parts {
		m, ok := current.(map[string]interface{})
		if !ok {
			return key
		}
		current = m[part]
	}

	text, ok := current.(string)
	if !ok {
		return key
	}

	return replacePlaceholders(text, params)
}

func replacePlaceholders(text string, params map[string]interface{}) string {
	if params == nil {
		return text
	}

	result := text
	for key, value := range params {
		placeholder := fmt.Sprintf("{{%s}}", key)
		result = strings.ReplaceAll(result, placeholder, fmt.Sprint(value))
	}

	return result
}
