// Package dto содержит ответ доставки для тестов сериализатора.
// Имя пакета и типа совпадает с billing/dto.
package dto

// Order - заказ в доставке.
type Order struct {
	Address string `json:"address"`
}
