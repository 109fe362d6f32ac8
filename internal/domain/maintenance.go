package domain

import "time"

// MaintenanceStatus descreve a janela diária de manutenção no instante da
// chamada. Recomputado a cada request, nunca cacheado.
// ResumesAt e RemainingMinutes são nil fora da janela.
type MaintenanceStatus struct {
	IsInMaintenance  bool       `json:"isInMaintenance"`
	Message          string     `json:"message"`
	WindowStart      string     `json:"windowStart"` // "HH:MM"
	WindowEnd        string     `json:"windowEnd"`   // "HH:MM"
	ResumesAt        *time.Time `json:"resumesAt"`
	RemainingMinutes *int       `json:"remainingMinutes"`
}

// MaintenanceDetails é o bloco "details" do body 503 devolvido pelo gate.
type MaintenanceDetails struct {
	WindowStart      string     `json:"windowStart"`
	WindowEnd        string     `json:"windowEnd"`
	ResumesAt        *time.Time `json:"resumesAt"`
	RemainingMinutes *int       `json:"remainingMinutes"`
}

// MaintenanceBlockedResponse é o contrato do HTTP 503 consumido pelo
// fetch wrapper global do frontend.
type MaintenanceBlockedResponse struct {
	Error   string             `json:"error"` // sempre "maintenance"
	Message string             `json:"message"`
	Details MaintenanceDetails `json:"details"`
}
