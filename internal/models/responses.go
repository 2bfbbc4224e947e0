package models

// DataRequest is the body accepted by /generate-graphs and /generate-report
type DataRequest struct {
	Data  []map[string]interface{} `json:"data"`
	Notes string                   `json:"notes"`
}

// ErrorResponse is returned for whole-request failures
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// HealthResponse for /health
type HealthResponse struct {
	Status   string `json:"status"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Breaker  string `json:"breaker"`
}

// DataAnalysisResult describes the columns of a dataset for prompting
type DataAnalysisResult struct {
	NumRows          int               `json:"rows"`
	NumColumns       int               `json:"columns"`
	ColumnNames      []string          `json:"column_names"`
	ColumnTypes      map[string]string `json:"column_types"`
	HasDates         bool              `json:"has_dates"`
	HasNumeric       bool              `json:"has_numeric"`
	HasText          bool              `json:"has_text"`
	PotentialIDs     []string          `json:"potential_ids"`
	PotentialDates   []string          `json:"potential_dates"`
	PotentialAmounts []string          `json:"potential_amounts"`
}
