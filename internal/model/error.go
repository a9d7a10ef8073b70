package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error    string `json:"error"`
	Code     string `json:"code,omitempty"`
	Redirect string `json:"redirect,omitempty"`

	// Fields holds per-field validation messages reported by the backend.
	Fields map[string][]string `json:"fields,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON          = "INVALID_JSON"
	ErrCodeMissingField         = "MISSING_FIELD"
	ErrCodeInvalidQuantity      = "INVALID_QUANTITY"
	ErrCodeRetailerNotSelected  = "RETAILER_NOT_SELECTED"
	ErrCodeAddressRequired      = "ADDRESS_REQUIRED"
	ErrCodeOrderNotCancellable  = "ORDER_NOT_CANCELLABLE"
	ErrCodeOrderNotAwaiting     = "ORDER_NOT_AWAITING_APPROVAL"
	ErrCodeOrderNotRateable     = "ORDER_NOT_RATEABLE"
	ErrCodeInvalidRating        = "INVALID_RATING"
	ErrCodeInvalidAction        = "INVALID_ACTION"
	ErrCodeEmptyMessage         = "EMPTY_MESSAGE"
	ErrCodeInvalidCoordinates   = "INVALID_COORDINATES"
	ErrCodeInvalidReferralCode  = "INVALID_REFERRAL_CODE"
	ErrCodeNotAuthenticated     = "NOT_AUTHENTICATED"
	ErrCodeUnauthorised         = "UNAUTHORIZED"
	ErrCodeSessionExpired       = "SESSION_EXPIRED"
	ErrCodeBackendUnavailable   = "BACKEND_UNAVAILABLE"
	ErrCodeInternalError        = "INTERNAL_ERROR"
	ErrCodeInvalidPhoneOrSecret = "INVALID_CREDENTIALS"
	ErrCodeInvalidID            = "INVALID_ID"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeLocationNotFound     = "LOCATION_NOT_FOUND"
	ErrCodeRateLimited          = "RATE_LIMITED"
	ErrCodeSessionUnavailable   = "SESSION_UNAVAILABLE"
	ErrCodeBackendError         = "BACKEND_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrInvalidQuantity     = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be at least one")
	ErrRetailerNotSelected = NewDomainError(ErrCodeRetailerNotSelected, "No retailer selected. Please go back to the cart")
	ErrAddressRequired     = NewDomainError(ErrCodeAddressRequired, "Please select a delivery address")
	ErrOrderNotCancellable = NewDomainError(ErrCodeOrderNotCancellable, "Order can no longer be cancelled")
	ErrOrderNotAwaiting    = NewDomainError(ErrCodeOrderNotAwaiting, "Order is not waiting for your approval")
	ErrOrderNotRateable    = NewDomainError(ErrCodeOrderNotRateable, "Only delivered orders can be rated")
	ErrInvalidRating       = NewDomainError(ErrCodeInvalidRating, "Rating must be between 1 and 5")
	ErrInvalidAction       = NewDomainError(ErrCodeInvalidAction, "Action must be accept or reject")
	ErrEmptyMessage        = NewDomainError(ErrCodeEmptyMessage, "Message cannot be empty")
	ErrInvalidCoordinates  = NewDomainError(ErrCodeInvalidCoordinates, "Latitude must be between -90 and 90 and longitude between -180 and 180")
	ErrInvalidReferralCode = NewDomainError(ErrCodeInvalidReferralCode, "Referral code is required")
	ErrNotAuthenticated    = NewDomainError(ErrCodeNotAuthenticated, "Please log in to continue")
	ErrMissingCredentials  = NewDomainError(ErrCodeInvalidPhoneOrSecret, "Phone number and password are required")
)
