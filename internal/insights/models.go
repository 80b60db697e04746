package insights

const (
	KindWarning = "warning"
	KindInfo    = "info"
	KindTip     = "tip"
)

// Insight - одно наблюдение по питанию за последние 7 дней
type Insight struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// InsightsResponse - ответ GET /v1/dashboard/insights
type InsightsResponse struct {
	Insights     []Insight `json:"insights"`
	Period       string    `json:"period"`
	TotalEntries int       `json:"total_entries"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
