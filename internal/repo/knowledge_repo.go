package repo

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/model"
)

type KnowledgeRepo struct {
	db *sqlx.DB
}

func NewKnowledgeRepo(db *sqlx.DB) *KnowledgeRepo {
	return &KnowledgeRepo{db: db}
}

// Search runs a cosine similarity query over the knowledge base with an
// equality filter on agent type. Results come back score-descending; score is
// 1 - cosine distance, clamped to [0,1].
func (r *KnowledgeRepo) Search(ctx context.Context, embedding []float32, agentType model.AgentType, topK int) ([]model.RetrievalMatch, error) {
	const query = `
		SELECT content, source, 1 - (embedding <=> $1) AS score
		FROM knowledge_chunks
		WHERE agent_type = $2
		ORDER BY embedding <=> $1
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, pgvector.NewVector(embedding), string(agentType), topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var matches []model.RetrievalMatch
	for rows.Next() {
		var m model.RetrievalMatch
		if err := rows.Scan(&m.Text, &m.Source, &m.Score); err != nil {
			return nil, err
		}
		if m.Score < 0 {
			m.Score = 0
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// Insert is used by the ingestion path and by tests to seed the index.
func (r *KnowledgeRepo) Insert(ctx context.Context, chunk *model.KnowledgeChunk) error {
	const query = `
		INSERT INTO knowledge_chunks (content, source, agent_type, embedding, ctime)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		chunk.Content,
		chunk.Source,
		string(chunk.AgentType),
		pgvector.NewVector(chunk.Embedding),
		chunk.Ctime,
	)
	return err
}
