package domain

import "fmt"

// TransitionError возвращается, когда переход статуса невозможен
// независимо от роли инициатора
type TransitionError struct {
	From BookingStatus
	To   BookingStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %q to %q", e.From, e.To)
}

// ActorError возвращается, когда переход в принципе существует,
// но запрещен для роли инициатора
type ActorError struct {
	From BookingStatus
	To   BookingStatus
	Role Role
}

func (e *ActorError) Error() string {
	role := string(e.Role)
	if e.Role == RoleNone {
		role = "none"
	}
	return fmt.Sprintf("role %q is not allowed to move booking from %q to %q", role, e.From, e.To)
}

// transitionActors таблица переходов: для каждой пары (from, to)
// перечислены роли, которым переход разрешен
var transitionActors = map[BookingStatus]map[BookingStatus][]Role{
	StatusPending: {
		StatusAccepted:  {RoleSeller},
		StatusCancelled: {RoleBuyer, RoleSeller},
	},
	StatusAccepted: {
		StatusInProgress: {RoleSeller},
		StatusCancelled:  {RoleBuyer, RoleSeller},
	},
	StatusInProgress: {
		StatusDelivered: {RoleSeller},
		// Покупатель не может отменить уже начатую работу
		StatusCancelled: {RoleSeller},
	},
	StatusDelivered: {
		StatusCompleted: {RoleBuyer},
		// После доставки покупатель обязан подтвердить или открыть спор,
		// отменить может только продавец
		StatusCancelled: {RoleSeller},
	},
}

// ValidateTransition проверяет переход current -> target для роли role
//
// Возвращает:
//   - *TransitionError, если переход отсутствует в таблице
//     (включая любые переходы из терминальных статусов и обратно в pending)
//   - *ActorError, если переход существует, но роль не входит в список разрешенных
//   - nil, если переход разрешен
func ValidateTransition(current, target BookingStatus, role Role) error {
	targets, ok := transitionActors[current]
	if !ok {
		// Терминальный статус - переходы запрещены всем
		return &TransitionError{From: current, To: target}
	}

	actors, ok := targets[target]
	if !ok {
		return &TransitionError{From: current, To: target}
	}

	for _, allowed := range actors {
		if role == allowed {
			return nil
		}
	}

	return &ActorError{From: current, To: target, Role: role}
}

// ToBookingStatus конвертирует строку в BookingStatus с валидацией
func ToBookingStatus(s string) (BookingStatus, bool) {
	status := BookingStatus(s)
	switch status {
	case StatusPending, StatusAccepted, StatusInProgress,
		StatusDelivered, StatusCompleted, StatusCancelled:
		return status, true
	default:
		return "", false
	}
}
