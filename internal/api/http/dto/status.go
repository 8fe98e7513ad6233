package dto

type HealthResponse struct {
	Status string `json:"status"`
}

type StatusResponse struct {
	Running bool `json:"running"`
	Report  any  `json:"report"`
}

type RunTriggerResponse struct {
	Message string `json:"message"`
}
