package mediator

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration - общая категория ошибок неправильно собранной цепочки.
	ErrConfiguration = errors.New("mediator: ошибка конфигурации")

	// ErrNoNextPipeline возвращается промежуточным пайплайном без следующего звена.
	ErrNoNextPipeline = fmt.Errorf("%w: у пайплайна нет следующего пайплайна", ErrConfiguration)

	// ErrInvalidNextPipeline возвращается, если следующее звено не может обработать запрос.
	ErrInvalidNextPipeline = fmt.Errorf("%w: функция обработки следующего пайплайна недействительна", ErrConfiguration)

	// ErrInvalidPipeline возвращается при регистрации пустого пайплайна.
	ErrInvalidPipeline = fmt.Errorf("%w: пайплайн не может быть nil", ErrConfiguration)

	// ErrHandlerNotFound - цель для errors.Is у HandlerNotFoundError.
	ErrHandlerNotFound = errors.New("mediator: обработчик не найден")

	// ErrInvalidHandler означает, что у обработчика нет пригодной функции обработки.
	ErrInvalidHandler = errors.New("mediator: функция обработки не найдена в обработчике")

	// ErrInvalidRequest возвращается для nil-запроса, nil-уведомления или запроса чужого типа.
	ErrInvalidRequest = errors.New("mediator: недопустимый запрос")

	// ErrAlreadyRegistered возвращается при повторной регистрации типа запроса.
	ErrAlreadyRegistered = errors.New("mediator: обработчик уже зарегистрирован")

	// ErrContainerFrozen возвращается при регистрации после подготовки цепочки.
	ErrContainerFrozen = errors.New("mediator: контейнер заморожен")

	// ErrUnexpectedResponse возвращается Send[R], если тип ответа не совпадает с R.
	ErrUnexpectedResponse = errors.New("mediator: неожиданный тип ответа")
)

// HandlerNotFoundError сообщает, для какого типа запроса не найден обработчик.
type HandlerNotFoundError struct {
	RequestType string
}

// Error реализует интерфейс error.
func (e *HandlerNotFoundError) Error() string {
	return fmt.Sprintf("обработчик для запроса '%s' не найден", e.RequestType)
}

// Is позволяет сравнивать ошибку с ErrHandlerNotFound.
func (e *HandlerNotFoundError) Is(target error) bool {
	return target == ErrHandlerNotFound
}
