package model

// ChartType values the UI knows how to render. Anything else is discarded at
// extraction time.
type ChartType string

const (
	ChartLine     ChartType = "line"
	ChartBar      ChartType = "bar"
	ChartPie      ChartType = "pie"
	ChartDoughnut ChartType = "doughnut"
)

func (t ChartType) Valid() bool {
	switch t {
	case ChartLine, ChartBar, ChartPie, ChartDoughnut:
		return true
	}
	return false
}

type ChartDataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BackgroundColor []string  `json:"backgroundColor,omitempty"`
	BorderColor     string    `json:"borderColor,omitempty"`
}

type ChartData struct {
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}

// ChartPayload is the structured visualization object embedded inside LLM
// output. It is either fully present or entirely absent on a response, never
// partial.
type ChartPayload struct {
	Type        string    `json:"type"`
	ChartType   ChartType `json:"chartType"`
	Title       string    `json:"title"`
	Explanation string    `json:"explanation"`
	Data        ChartData `json:"data"`
}
