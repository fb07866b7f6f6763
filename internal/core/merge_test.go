package core

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUnifiedDiff(t *testing.T) {
	sealed := []byte("{\n  \"Password\": \"old\",\n  \"Title\": \"mail\"\n}\n")
	source := []byte("{\n  \"Password\": \"new\",\n  \"Title\": \"mail\"\n}\n")

	diff, err := GenerateUnifiedDiff("mail", sealed, source)
	require.NoError(t, err)

	want := "--- sealed/mail\n" +
		"+++ source/mail\n" +
		"@@ -1,4 +1,4 @@\n" +
		" {\n" +
		"-  \"Password\": \"old\",\n" +
		"+  \"Password\": \"new\",\n" +
		"   \"Title\": \"mail\"\n" +
		" }\n"
	assert.Equal(t, want, diff)
}

func TestGenerateUnifiedDiffIdentical(t *testing.T) {
	data := []byte("{\n  \"Title\": \"mail\"\n}\n")

	diff, err := GenerateUnifiedDiff("mail", data, data)
	require.NoError(t, err)
	assert.Empty(t, diff)
}

func TestGenerateUnifiedDiffMissingNewline(t *testing.T) {
	diff, err := GenerateUnifiedDiff("k", []byte("a"), []byte("b"))
	require.NoError(t, err)
	assert.Contains(t, diff, "@@ -1,1 +1,1 @@\n-a\n+b\n")
}

func TestHandleConflictStrategies(t *testing.T) {
	tests := []struct {
		strategy MergeStrategy
		want     ConflictResolution
	}{
		{StrategyKeepExisting, ResolutionKeepExisting},
		{StrategyReplace, ResolutionReplace},
		{StrategyKeepBoth, ResolutionKeepBoth},
	}

	for _, tt := range tests {
		got, err := HandleConflict("mail", "", nil, nil, tt.strategy, nil)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestHandleConflictAsk(t *testing.T) {
	tests := []struct {
		input string
		want  ConflictResolution
	}{
		{"k\n", ResolutionKeepExisting},
		{"R\n", ResolutionReplace},
		{" b \n", ResolutionKeepBoth},
		{"?\nb", ResolutionKeepBoth},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		p := NewPrompter(strings.NewReader(tt.input), &out)

		got, err := HandleConflict("mail", "mail (2)", []byte("a\n"), []byte("b\n"), StrategyAsk, p)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
		assert.Contains(t, out.String(), "conflict detected: mail")
		assert.Contains(t, out.String(), `"mail (2)"`)
	}
}

func TestHandleConflictAskEOF(t *testing.T) {
	p := NewPrompter(strings.NewReader(""), &bytes.Buffer{})

	_, err := HandleConflict("mail", "", nil, nil, StrategyAsk, p)
	assert.Error(t, err)
}

func TestHandleConflictNoPrompter(t *testing.T) {
	_, err := HandleConflict("mail", "", nil, nil, StrategyAsk, nil)
	assert.True(t, errors.Is(err, ErrNoPrompter))
	assert.Contains(t, err.Error(), "mail")
}

func TestNextFreeKey(t *testing.T) {
	taken := map[string]bool{"mail": true}
	assert.Equal(t, "mail (2)", nextFreeKey("mail", taken))

	taken["mail (2)"] = true
	taken["mail (3)"] = true
	assert.Equal(t, "mail (4)", nextFreeKey("mail", taken))
}

func TestCompareRecords(t *testing.T) {
	assert.True(t, CompareRecords([]byte(`{"a":"1"}`), []byte(`{"a":"1"}`)))
	assert.False(t, CompareRecords([]byte(`{"a":"1"}`), []byte(`{"a":"2"}`)))
}

func TestCountLines(t *testing.T) {
	assert.Equal(t, 0, countLines(""))
	assert.Equal(t, 1, countLines("a"))
	assert.Equal(t, 1, countLines("a\n"))
	assert.Equal(t, 2, countLines("a\nb"))
}

func TestHandleConflictAskShowsKeepBothKey(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("b\n"), &out)

	got, err := HandleConflict("mail", "mail (4)", []byte("a\n"), []byte("b\n"), StrategyAsk, p)
	require.NoError(t, err)
	assert.Equal(t, ResolutionKeepBoth, got)
	assert.Contains(t, out.String(), `"mail (4)"`)
	assert.NotContains(t, out.String(), `"mail (2)"`)
}
