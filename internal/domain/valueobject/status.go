package valueobject

import "github.com/ignatzorin/household-backend/internal/pkg/apperror"

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusAccepted RequestStatus = "accepted"
	RequestStatusRejected RequestStatus = "rejected"
	RequestStatusClosed   RequestStatus = "closed"
)

// requestTransitions описывает разрешённые переходы заявки.
// Удаление строки переходом не считается и проверяется отдельно.
var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusPending:  {RequestStatusAccepted, RequestStatusRejected},
	RequestStatusAccepted: {RequestStatusClosed},
	RequestStatusRejected: {},
	RequestStatusClosed:   {},
}

func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestStatusPending, RequestStatusAccepted, RequestStatusRejected, RequestStatusClosed:
		return true
	}
	return false
}

func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusRejected || s == RequestStatusClosed
}

func (s RequestStatus) CanTransitionTo(newStatus RequestStatus) bool {
	allowed, ok := requestTransitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == newStatus {
			return true
		}
	}
	return false
}

func NewRequestStatus(status string) (RequestStatus, error) {
	s := RequestStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус заявки")
	}
	return s, nil
}

type RequestType string

const (
	RequestTypePrivate RequestType = "private"
	RequestTypePublic  RequestType = "public"
)

func (t RequestType) IsValid() bool {
	return t == RequestTypePrivate || t == RequestTypePublic
}

func NewRequestType(value string) (RequestType, error) {
	t := RequestType(value)
	if !t.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный тип заявки")
	}
	return t, nil
}
