package model

type Ticket struct {
	ID          string `db:"id" json:"id"`
	Category    string `db:"category" json:"category"`
	Description string `db:"description" json:"description"`
	Status      string `db:"status" json:"status"`
	CreatedAt   string `db:"created_at" json:"created_at"`
	ResolvedAt  string `db:"resolved_at" json:"resolved_at"`
}
