package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/model"
)

func TestExtractPlainText(t *testing.T) {
	res := Extract("The transfer station is open Monday through Saturday.")
	require.Nil(t, res.Chart)
	require.Equal(t, "The transfer station is open Monday through Saturday.", res.Text)
}

func TestExtractValidChart(t *testing.T) {
	raw := `Here is the usage trend. {"type":"chart","chartType":"line","title":"Monthly kWh","explanation":"Usage peaked in July.","data":{"labels":["Jun","Jul"],"datasets":[{"label":"kWh","data":[820,910]}]}} Let me know if you need more.`
	res := Extract(raw)
	require.NotNil(t, res.Chart)
	require.Equal(t, model.ChartLine, res.Chart.ChartType)
	require.Equal(t, "Monthly kWh", res.Chart.Title)
	require.Equal(t, "Usage peaked in July.", res.Text)
	require.Equal(t, []string{"Jun", "Jul"}, res.Chart.Data.Labels)
}

func TestExtractToleratesWhitespaceAroundColon(t *testing.T) {
	raw := `{"type" : "chart","chartType":"bar","title":"t","explanation":"e","data":{"labels":["a"],"datasets":[{"label":"x","data":[1]}]}}`
	res := Extract(raw)
	require.NotNil(t, res.Chart)
	require.Equal(t, model.ChartBar, res.Chart.ChartType)
}

func TestExtractNestedBracesInStrings(t *testing.T) {
	// The data object nests two levels of braces; brace counting must still
	// find the matching closing brace of the outer payload.
	raw := `Answer text {"type":"chart","chartType":"pie","title":"Breakdown","explanation":"By category.","data":{"labels":["water","trash"],"datasets":[{"label":"requests","data":[12,30]}]}}`
	res := Extract(raw)
	require.NotNil(t, res.Chart)
	require.Equal(t, "By category.", res.Text)
	require.Len(t, res.Chart.Data.Datasets, 1)
	require.Equal(t, []float64{12, 30}, res.Chart.Data.Datasets[0].Data)
}

func TestExtractUnknownChartTypeDiscarded(t *testing.T) {
	raw := `Here you go. {"type":"chart","chartType":"scatter","title":"t","explanation":"e","data":{"labels":[],"datasets":[]}} Done.`
	res := Extract(raw)
	require.Nil(t, res.Chart)
	require.Equal(t, "Here you go.  Done.", res.Text)
}

func TestExtractMalformedJSONDiscarded(t *testing.T) {
	raw := `Intro {"type":"chart","chartType":"bar", broken} outro`
	res := Extract(raw)
	require.Nil(t, res.Chart)
	require.NotContains(t, res.Text, `"type"`)
	require.Contains(t, res.Text, "Intro")
	require.Contains(t, res.Text, "outro")
}

func TestExtractRoundTrip(t *testing.T) {
	original := &model.ChartPayload{
		Type:        "chart",
		ChartType:   model.ChartDoughnut,
		Title:       "Service requests",
		Explanation: "Trash pickup dominates.",
		Data: model.ChartData{
			Labels: []string{"trash", "water", "streets"},
			Datasets: []model.ChartDataset{
				{Label: "requests", Data: []float64{40, 25, 10}},
			},
		},
	}
	encoded, err := json.Marshal(original)
	require.NoError(t, err)

	raw := "Some leading prose. " + string(encoded) + " And trailing prose."
	res := Extract(raw)
	require.NotNil(t, res.Chart)
	require.Equal(t, original, res.Chart)
	require.Equal(t, "Trash pickup dominates.", res.Text)
}

func TestRedactTicketIDs(t *testing.T) {
	redacted := RedactTicketIDs("Your ticket TK10234 and case EN99 are open.")
	require.Equal(t, "Your ticket [ticket-id] and case [ticket-id] are open.", redacted)
}

func TestRedactTicketIDsIdempotent(t *testing.T) {
	once := RedactTicketIDs("Status of TK10234")
	twice := RedactTicketIDs(once)
	require.Equal(t, once, twice)
}

func TestExtractRedactsTicketIDs(t *testing.T) {
	res := Extract("Ticket TK555 was closed last week.")
	require.Equal(t, "Ticket [ticket-id] was closed last week.", res.Text)
}
