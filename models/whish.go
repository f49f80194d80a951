package models

// Whish collect statuses
const (
	WhishStatusSuccess = "success"
	WhishStatusFailed  = "failed"
	WhishStatusPending = "pending"
)

// WhishRequest is the request body shared by the Whish payment endpoints.
type WhishRequest struct {
	Amount             *float64 `json:"amount,omitempty"`
	Currency           string   `json:"currency,omitempty"`
	Invoice            string   `json:"invoice,omitempty"`
	ExternalID         *int64   `json:"externalId,omitempty"`
	SuccessCallbackURL string   `json:"successCallbackUrl,omitempty"`
	FailureCallbackURL string   `json:"failureCallbackUrl,omitempty"`
	SuccessRedirectURL string   `json:"successRedirectUrl,omitempty"`
	FailureRedirectURL string   `json:"failureRedirectUrl,omitempty"`
}

// WhishResponse is the envelope every Whish endpoint answers with.
type WhishResponse struct {
	Status bool                   `json:"status"`
	Code   interface{}            `json:"code"`   // string or null
	Dialog interface{}            `json:"dialog"` // string, object or null
	Extra  interface{}            `json:"extra"`
	Data   map[string]interface{} `json:"data"`
}

// WhishCollectStatus is the result of a collect status lookup.
type WhishCollectStatus struct {
	Status     string `json:"collectStatus"`
	PayerPhone string `json:"payerPhoneNumber"`
}
