package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-reflect"

	"github.com/x-research-team/dtx-mediator/bus/mediator"
)

var (
	// ErrUnknownResponseType возвращается, если сериализатор не знает тип сохраненного ответа.
	ErrUnknownResponseType = errors.New("cache: неизвестный тип ответа")

	// ErrAmbiguousResponseType возвращается, если под одним именем оказались
	// два разных типа (например, локальные типы с одинаковым именем).
	ErrAmbiguousResponseType = errors.New("cache: неоднозначный тип ответа")
)

// Serializer преобразует ответ в байты для провайдера кеша и обратно.
type Serializer interface {
	Marshal(resp mediator.Response) ([]byte, error)
	Unmarshal(data []byte) (mediator.Response, error)
}

// envelope хранит имя типа рядом с телом ответа, чтобы Unmarshal мог
// восстановить конкретный тип.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// JSONSerializer сериализует ответы в JSON с помощью sonic.
// Типы ответов запоминаются при Marshal и могут быть заранее объявлены через
// Register, что нужно, если кеш переживает перезапуск процесса.
type JSONSerializer struct {
	api   sonic.API
	types map[string]reflect.Type
	mu    sync.RWMutex
}

// NewJSONSerializer создает сериализатор и регистрирует типы samples.
func NewJSONSerializer(samples ...mediator.Response) (*JSONSerializer, error) {
	s := &JSONSerializer{
		api:   sonic.ConfigStd,
		types: make(map[string]reflect.Type),
	}
	if err := s.Register(samples...); err != nil {
		return nil, err
	}
	return s, nil
}

// Register запоминает типы ответов. Передавать нужно значение того же вида
// (значение или указатель), который возвращает обработчик.
func (s *JSONSerializer) Register(samples ...mediator.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sample := range samples {
		if sample == nil {
			continue
		}
		if _, err := s.register(reflect.TypeOf(sample)); err != nil {
			return err
		}
	}
	return nil
}

// register вызывается под s.mu и возвращает ключ типа t.
func (s *JSONSerializer) register(t reflect.Type) (string, error) {
	key := typeKey(t)
	if known, ok := s.types[key]; ok && known != t {
		return "", fmt.Errorf("%w: '%s'", ErrAmbiguousResponseType, key)
	}
	s.types[key] = t
	return key, nil
}

// typeKey возвращает имя типа с полным путем пакета, например
// "*github.com/acme/billing/dto.User".
func typeKey(t reflect.Type) string {
	if t.Kind() == reflect.Ptr {
		return "*" + typeKey(t.Elem())
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// Marshal сериализует ответ вместе с именем его типа.
func (s *JSONSerializer) Marshal(resp mediator.Response) ([]byte, error) {
	if resp == nil {
		return s.api.Marshal(envelope{Data: json.RawMessage("null")})
	}

	s.mu.Lock()
	key, err := s.register(reflect.TypeOf(resp))
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	data, err := s.api.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("не удалось сериализовать ответ '%s': %w", key, err)
	}

	return s.api.Marshal(envelope{Type: key, Data: data})
}

// Unmarshal восстанавливает ответ зарегистрированного типа.
func (s *JSONSerializer) Unmarshal(data []byte) (mediator.Response, error) {
	var env envelope
	if err := s.api.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("не удалось разобрать запись кеша: %w", err)
	}
	if env.Type == "" {
		return nil, nil
	}

	s.mu.RLock()
	t, ok := s.types[env.Type]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownResponseType, env.Type)
	}

	isPtr := t.Kind() == reflect.Ptr
	target := t
	if isPtr {
		target = t.Elem()
	}

	v := reflect.New(target)
	if err := s.api.Unmarshal(env.Data, v.Interface()); err != nil {
		return nil, fmt.Errorf("не удалось десериализовать ответ '%s': %w", env.Type, err)
	}

	if isPtr {
		return v.Interface(), nil
	}
	return v.Elem().Interface(), nil
}
