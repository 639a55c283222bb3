package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

func TestDecideCmd_Use(t *testing.T) {
	assert.Equal(t, "decide [query]", decideCmd.Use)
}

func TestDecideCmd_Text(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := runCommand("decide", "46M,", "knee surgery,", "Pune")

	require.NoError(t, err)
	assert.Equal(t, "46M, knee surgery, Pune", mocks.decision.lastQuery)
	assert.Contains(t, out, "Decision:   APPROVED")
	assert.Contains(t, out, "Amount:     50000.00")
	assert.Contains(t, out, "Confidence: 87.0%")
	assert.Contains(t, out, "Reason:     Knee surgery is covered after the waiting period.")
	assert.Contains(t, out, "[policy.pdf_chunk_2] policy.pdf, page 3 (0.87)")
}

func TestDecideCmd_Explain(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := runCommand("decide", "--explain", "knee surgery")

	require.NoError(t, err)
	assert.Equal(t, "Decision: APPROVED\n\n", out)
}

func TestDecideCmd_JSON(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := runCommand("decide", "--json", "knee surgery")
	require.NoError(t, err)

	var got decisionJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "approved", got.Decision)
	require.NotNil(t, got.Amount)
	assert.InDelta(t, 50000.0, *got.Amount, 1e-9)
	require.Len(t, got.ReferencedClauses, 1)
	assert.Equal(t, "policy.pdf_chunk_2", got.ReferencedClauses[0].ClauseID)
	assert.Equal(t, int64(12), got.ProcessingTimeMs)
	assert.Empty(t, got.Explanation)
}

func TestDecideCmd_JSONWithExplain(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := runCommand("decide", "--json", "--explain", "knee surgery")
	require.NoError(t, err)

	var got decisionJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Contains(t, got.Explanation, "Decision: APPROVED")
}

func TestDecideCmd_BlankQuery(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := runCommand("decide", "   ")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, mocks.decision.lastQuery)
}

func TestDecideCmd_ServiceNotConfigured(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	decisionService = nil

	_, err := runCommand("decide", "q")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "decision service not configured")
}
