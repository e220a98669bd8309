package model

// KnowledgeChunk is one embedded snippet of the municipal knowledge base.
type KnowledgeChunk struct {
	ID        int64     `db:"id"`
	Content   string    `db:"content"`
	Source    string    `db:"source"`
	AgentType AgentType `db:"agent_type"`
	Embedding []float32 `db:"-"`
	Ctime     int64     `db:"ctime"`
}

type EmbeddingCache struct {
	ModelName   string
	TaskType    string
	ContentHash string
	Embedding   []float32
	Ctime       int64
}
