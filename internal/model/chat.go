package model

// AgentType selects which persona/dataset a chat request is scoped to.
type AgentType string

const (
	AgentCustomer AgentType = "customer"
	AgentEnergy   AgentType = "energy"
)

func (a AgentType) Valid() bool {
	return a == AgentCustomer || a == AgentEnergy
}

type Agent struct {
	Type        AgentType `json:"type"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

// Query is the request-scoped unit of work. It is built once per HTTP request
// and never mutated.
type Query struct {
	Message   string
	AgentType AgentType
}

// RetrievalMatch is one snippet returned by the vector index, score-descending.
type RetrievalMatch struct {
	Text   string
	Source string
	Score  float64
}

type Source struct {
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

type ChatResponse struct {
	Response  string        `json:"response"`
	ChartData *ChartPayload `json:"chartData"`
	Sources   []Source      `json:"sources"`
}
