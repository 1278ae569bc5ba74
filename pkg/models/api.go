package models

// PredictRequest is the body of POST /predict.
type PredictRequest struct {
	TargetDate string `json:"target_date" binding:"required"`
}

// PredictResponse is returned by a completed prediction run.
type PredictResponse struct {
	RequestID               string            `json:"request_id"`
	Mode                    string            `json:"mode"`
	TargetDate              string            `json:"target_date"`
	DistrictPredictions     []Forecast        `json:"district_predictions"`
	SuggestedTPs            []SuggestedSite   `json:"suggested_tps"`
	TotalTransformersNeeded int               `json:"total_transformers_needed"`
	Failures                []DistrictFailure `json:"failures,omitempty"`
	FutureState             *FutureState      `json:"future_state"`
}

// ChatQuery is the body of POST /ask. Question and Context are accepted as aliases.
type ChatQuery struct {
	Query           string                 `json:"query"`
	Question        string                 `json:"question"`
	ContextSnapshot map[string]interface{} `json:"context_snapshot"`
	Context         map[string]interface{} `json:"context"`
}

// ChatAnswer is the assistant's reply.
type ChatAnswer struct {
	Answer      string       `json:"answer"`
	RequestID   string       `json:"request_id"`
	Mode        string       `json:"mode"`
	Language    string       `json:"language"`
	Sources     []string     `json:"sources,omitempty"`
	FutureState *FutureState `json:"future_state"`
}

// StationList is returned by the station endpoints.
type StationList struct {
	RequestID string         `json:"request_id"`
	District  string         `json:"district,omitempty"`
	Count     int            `json:"count"`
	Stations  []AssetStation `json:"stations"`
}

// OverloadAlert is published for every High risk district after a run.
type OverloadAlert struct {
	District           string  `json:"district"`
	TargetDate         string  `json:"target_date"`
	RiskScore          int     `json:"risk_score"`
	LoadPercentage     float64 `json:"load_percentage"`
	LoadGapKVA         float64 `json:"load_gap_kva"`
	TransformersNeeded int     `json:"transformers_needed"`
	GeneratedAt        string  `json:"generated_at"`
}
