package contract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult(t *testing.T) {
	ok := OK("letter")
	assert.False(t, ok.Failed())
	v, err := ok.Unpack()
	require.NoError(t, err)
	assert.Equal(t, "letter", v)

	cause := errors.New("boom")
	failed := Fail[string](KindRendering, "rendering failed", cause)
	assert.True(t, failed.Failed())
	v, err = failed.Unpack()
	assert.Empty(t, v)
	assert.ErrorIs(t, err, cause)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, KindRendering, se.Kind)
	assert.Equal(t, "rendering: rendering failed: boom", se.Error())
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("pdf")
	require.NoError(t, err)
	assert.Equal(t, ModePDF, m)

	_, err = ParseMode("docx")
	assert.ErrorIs(t, err, ErrUnsupportedMode)

	assert.Equal(t, DepthAdvanced, ParseDepth("advanced"))
	assert.Equal(t, DepthBasic, ParseDepth("whatever"))
}
