package model

// ErrorResponse is the error envelope returned by every endpoint. The message
// is human readable and never carries internal detail.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ListResponse wraps list results with pagination metadata.
type ListResponse struct {
	Resource interface{}   `json:"resource"`
	Meta     *ResponseMeta `json:"meta,omitempty"`
}

// ResponseMeta carries counts and paging for list responses.
type ResponseMeta struct {
	Count  int `json:"count"`
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}
