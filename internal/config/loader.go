package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load загружает банк вопросов. Файлы .json читаются JSON декодером,
// остальные считаются YAML.
func Load(filename string) (*QuestionBank, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла %s: %w", filename, err)
	}

	if strings.EqualFold(filepath.Ext(filename), ".json") {
		return ParseJSON(data)
	}
	return Parse(data)
}

// Parse разбирает YAML документ банка вопросов
func Parse(data []byte) (*QuestionBank, error) {
	// сообщения, не указанные в документе, остаются стандартными
	bank := QuestionBank{Messages: DefaultMessages()}
	err := yaml.Unmarshal(data, &bank)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга банка вопросов: %w", err)
	}

	return finish(&bank)
}

// ParseJSON разбирает questions.json. Повторяющиеся ключи допускаются,
// побеждает последнее значение.
func ParseJSON(data []byte) (*QuestionBank, error) {
	bank := QuestionBank{Messages: DefaultMessages()}
	err := json.Unmarshal(data, &bank)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга банка вопросов: %w", err)
	}

	return finish(&bank)
}

func finish(bank *QuestionBank) (*QuestionBank, error) {
	if err := validateBank(bank); err != nil {
		return nil, fmt.Errorf("ошибка валидации банка вопросов: %w", err)
	}
	return bank, nil
}

// validateBank проверяет корректность банка вопросов и заполняет тип по умолчанию
func validateBank(bank *QuestionBank) error {
	for i := range bank.Personal {
		q := &bank.Personal[i]
		if q.Text == "" {
			return fmt.Errorf("personal[%d] должен иметь текст вопроса", i)
		}
		if q.Kind == "" {
			q.Kind = KindText
		}
		if q.Kind != KindText && q.Kind != KindNumber {
			return fmt.Errorf("personal[%d] имеет неверный тип %q", i, q.Kind)
		}
	}

	for i := range bank.Rules {
		q := &bank.Rules[i]
		if q.Text == "" {
			return fmt.Errorf("rules[%d] должен иметь текст вопроса", i)
		}
		if q.Kind == "" {
			q.Kind = KindBoolean
		}
		if q.Kind != KindBoolean {
			return fmt.Errorf("rules[%d] должен иметь тип boolean, получен %q", i, q.Kind)
		}
		if q.Expected == nil {
			return fmt.Errorf("rules[%d] должен иметь правильный ответ", i)
		}
	}

	return nil
}
