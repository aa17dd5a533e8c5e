package calculations

import "errors"

var (
	// ErrInvalidTerm нецелое число периодов, неположительный срок,
	// несовместимые частота и срок или недопустимые суммы договора
	ErrInvalidTerm = errors.New("invalid lease term")

	// ErrInvalidSchedule недопустимые входные данные построителя графика
	ErrInvalidSchedule = errors.New("invalid amortization schedule")
)
