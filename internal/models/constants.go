package models

import "time"

const (
	// DefaultStorageKey ключ, под которым хранится сериализованный список броней
	DefaultStorageKey = "velora:bookings"

	// DefaultBookingHorizonDays горизонт генерации доступных дат
	DefaultBookingHorizonDays = 14

	// DefaultNotificationTTL время показа уведомления
	DefaultNotificationTTL = 5 * time.Second

	// DefaultExportQueueSize размер очереди задач экспорта
	DefaultExportQueueSize = 100

	// RateLimitRPS и RateLimitBurst значения по умолчанию для HTTP API
	RateLimitRPS   = 10
	RateLimitBurst = 20
)
