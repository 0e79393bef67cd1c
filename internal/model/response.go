package model

// APIResponse - uniform envelope for every endpoint
type APIResponse struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
}

func NewAPIResponse(statusCode int, data any, message string) APIResponse {
	return APIResponse{
		Success:    statusCode < 400,
		StatusCode: statusCode,
		Data:       data,
		Message:    message,
	}
}

type PingResponse struct {
	Message string `json:"message"`
}

type RootResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
