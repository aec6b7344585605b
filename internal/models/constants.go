package models

// Поля, по которым разрешён поиск.
const (
	SearchFieldUsername    = "username"
	SearchFieldAddress     = "address"
	SearchFieldPincode     = "pincode"
	SearchFieldServiceName = "service_name"
)

// Сущности, по которым выполняется поиск.
const (
	SearchEntityUsers    = "users"
	SearchEntityServices = "services"
	SearchEntityRequests = "requests"
)

// Lifecycle события, рассылаемые через WebSocket.
const (
	EventRequestCreated  = "request.created"
	EventRequestAccepted = "request.accepted"
	EventRequestRejected = "request.rejected"
	EventRequestClosed   = "request.closed"
	EventRequestDeleted  = "request.deleted"
	EventRequestEdited   = "request.edited"
	EventBidSubmitted    = "bid.submitted"
	EventBidAccepted     = "bid.accepted"
	EventBidRejected     = "bid.rejected"
)

// ValidSearchFields - допустимые поля поиска для каждой сущности.
var ValidSearchFields = map[string]map[string]struct{}{
	SearchEntityUsers: {
		SearchFieldUsername: {},
		SearchFieldAddress:  {},
		SearchFieldPincode:  {},
	},
	SearchEntityServices: {
		SearchFieldServiceName: {},
		SearchFieldAddress:     {},
		SearchFieldPincode:     {},
	},
	SearchEntityRequests: {
		SearchFieldAddress: {},
		SearchFieldPincode: {},
	},
}

// IsValidSearchField проверяет поле поиска для сущности.
func IsValidSearchField(entity, field string) bool {
	fields, ok := ValidSearchFields[entity]
	if !ok {
		return false
	}
	_, ok = fields[field]
	return ok
}
