package taskpool

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriorityString(t *testing.T) {
	assert.Equal(t, "HIGH", HIGH.String())
	assert.Equal(t, "NORMAL", NORMAL.String())
	assert.Equal(t, "LOW", LOW.String())
	assert.Equal(t, "BACKGROUND", BACKGROUND.String())
	assert.Equal(t, "Priority(7)", Priority(7).String())
}

func TestPriorityOrdering(t *testing.T) {
	assert.Less(t, int(HIGH), int(NORMAL))
	assert.Less(t, int(NORMAL), int(LOW))
	assert.Less(t, int(LOW), int(BACKGROUND))
}

func TestTruncateName_ShortNameUnchanged(t *testing.T) {
	assert.Equal(t, "short", truncateName("short"))
	assert.Equal(t, "", truncateName(""))
}

func TestTruncateName_LongNameTruncatedAt63Bytes(t *testing.T) {
	long := strings.Repeat("a", 100)
	got := truncateName(long)
	assert.Len(t, got, maxNameBytes)
	assert.Equal(t, strings.Repeat("a", maxNameBytes), got)
}

func TestTruncateName_PreservesUTF8Boundary(t *testing.T) {
	// Each "é" is 2 bytes in UTF-8; 32 of them is 64 bytes, one over budget.
	long := strings.Repeat("é", 32)
	got := truncateName(long)
	assert.LessOrEqual(t, len(got), maxNameBytes)
	assert.True(t, strings.HasSuffix(long, got[len(got)-2:]) || len(got) == 0)

	// The result must itself be valid UTF-8: decoding it should produce only
	// whole runes, no replacement characters introduced by a mid-rune cut.
	for _, r := range got {
		assert.NotEqual(t, '�', r)
	}
}

func TestSynthesizeName(t *testing.T) {
	assert.Equal(t, "unnamed_task_1", synthesizeName(1))
	assert.Equal(t, "unnamed_task_42", synthesizeName(42))
}
