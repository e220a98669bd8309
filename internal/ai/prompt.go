package ai

import (
	"fmt"
	"strings"
)

// Instruction names one reusable block of prompt text. Keeping the variants as
// named constants avoids the same literal block being duplicated across call
// sites with small drifts.
type Instruction int

const (
	// InstructGrounded: answer from the supplied context only.
	InstructGrounded Instruction = iota
	// InstructChart: additionally emit a chart JSON object when the data
	// supports a visualization.
	InstructChart
	// InstructSQL: translate the question into exactly one SQL statement.
	InstructSQL
	// InstructSummarizeRows: turn tabular query results into a short answer.
	InstructSummarizeRows
)

var instructionText = map[Instruction]string{
	InstructGrounded: `You are the City of Rancho Cordova's assistant.
Answer using ONLY the provided context. If the context does not contain the
answer, say you do not have that information.
- Be concise and factual.
- Do not invent phone numbers, dates or fees.`,

	InstructChart: `If the answer is naturally a data series, append a single JSON object:
{"type":"chart","chartType":"line|bar|pie|doughnut","title":"...","explanation":"...","data":{"labels":[...],"datasets":[{"label":"...","data":[...]}]}}
The "explanation" field must contain the plain-language answer. Output the JSON
after the text, with no markdown fences.`,

	InstructSQL: `Translate the user's question into exactly ONE SQL SELECT statement.
- Output ONLY the SQL, no explanations, no markdown fences.
- Never modify data; SELECT only.`,

	InstructSummarizeRows: `Summarize the query results below for a resident in one short paragraph.
Do not mention SQL or table names.`,
}

// SchemaHints is the fixed analytics schema handed to the SQL instruction.
const SchemaHints = `Tables:
  tickets(id TEXT, category TEXT, description TEXT, status TEXT, created_at DATE, resolved_at DATE)
  energy_usage(id BIGINT, account_type TEXT, month DATE, kwh NUMERIC, cost NUMERIC)
  meter_readings(id BIGINT, meter_id TEXT, read_at TIMESTAMP, reading NUMERIC)`

// PromptBuilder composes named instruction blocks, retrieved context and
// optional schema hints into the final prompt string.
type PromptBuilder struct {
	instructions []Instruction
	context      string
	schemaHints  string
	question     string
}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

func (b *PromptBuilder) WithInstructions(ins ...Instruction) *PromptBuilder {
	b.instructions = append(b.instructions, ins...)
	return b
}

func (b *PromptBuilder) WithContext(context string) *PromptBuilder {
	b.context = context
	return b
}

func (b *PromptBuilder) WithSchemaHints(hints string) *PromptBuilder {
	b.schemaHints = hints
	return b
}

func (b *PromptBuilder) WithQuestion(question string) *PromptBuilder {
	b.question = question
	return b
}

func (b *PromptBuilder) Build() string {
	var parts []string
	for _, ins := range b.instructions {
		if text, ok := instructionText[ins]; ok {
			parts = append(parts, text)
		}
	}
	if b.schemaHints != "" {
		parts = append(parts, fmt.Sprintf("SCHEMA:\n%s", b.schemaHints))
	}
	if b.context != "" {
		parts = append(parts, fmt.Sprintf("CONTEXT:\n%s", b.context))
	}
	if b.question != "" {
		parts = append(parts, fmt.Sprintf("QUESTION:\n%s", b.question))
	}
	return strings.Join(parts, "\n\n")
}
