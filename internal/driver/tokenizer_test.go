package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLineForms(t *testing.T) {
	op, err := ParseLine("b 1", 1)
	require.NoError(t, err)
	assert.Equal(t, Operation{Kind: OpBegin, TxnID: 1, Line: 1}, op)

	op, err = ParseLine("r 2 X", 2)
	require.NoError(t, err)
	assert.Equal(t, Operation{Kind: OpRead, TxnID: 2, Item: "X", Line: 2}, op)

	op, err = ParseLine("w 3   Y", 3)
	require.NoError(t, err)
	assert.Equal(t, Operation{Kind: OpWrite, TxnID: 3, Item: "Y", Line: 3}, op)

	op, err = ParseLine("e 1", 4)
	require.NoError(t, err)
	assert.Equal(t, Operation{Kind: OpEnd, TxnID: 1, Line: 4}, op)
}

func TestParseLineBlankIsEmptyLineError(t *testing.T) {
	_, err := ParseLine("   ", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, errEmptyLine)
}

func TestParseLineRejectsUnknownKind(t *testing.T) {
	_, err := ParseLine("x 1", 1)
	assert.ErrorIs(t, err, errUnknownKind)
}

func TestParseLineRejectsMissingItem(t *testing.T) {
	_, err := ParseLine("r 1", 1)
	assert.ErrorIs(t, err, errMissingItem)
}

func TestParseLineRejectsBadID(t *testing.T) {
	_, err := ParseLine("b abc", 1)
	assert.ErrorIs(t, err, errMissingID)
}

func TestParseLineRejectsTrailingTokens(t *testing.T) {
	_, err := ParseLine("b 1 2", 1)
	assert.ErrorIs(t, err, errTrailingText)

	_, err = ParseLine("r 1 X Y", 1)
	assert.ErrorIs(t, err, errTrailingText)
}
