// Package dto содержит ответ биллинга для тестов сериализатора.
package dto

// Order - заказ в биллинге.
type Order struct {
	Amount int `json:"amount"`
}
