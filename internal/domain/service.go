package domain

// Service услуга маркетплейса (внешняя сущность, читаем но не владеем)
// Бронирование может быть создано только против верифицированной активной услуги
type Service struct {
	ID         int64
	UserID     int64 // Владелец услуги (продавец)
	Title      string
	Price      float64
	IsVerified bool
	IsActive   bool
}

// IsBookable returns true if bookings may be created against the service
func (s *Service) IsBookable() bool {
	return s.IsVerified && s.IsActive
}
