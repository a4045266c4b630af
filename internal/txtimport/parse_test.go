package txtimport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-authoring/internal/exam"
)

const sample = `What is the boiling point of water?
A. 90
B. 100
Answer: b
Score: 5
Explanation: at sea level
---
#multiple_choice
Pick the primes
A. 2
B. 3
C. 4
答案: AB
分值: 7.5
---
#true_false
The sky is green.
---
#short_answer
Describe the evacuation plan.
`

func TestParse(t *testing.T) {
	rows, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, rows, 4)

	first := rows[0]
	assert.Equal(t, 1, first.Row)
	assert.Equal(t, exam.SingleChoice, first.Question.Type)
	assert.Equal(t, "What is the boiling point of water?", first.Question.Content)
	assert.Equal(t, []string{"90", "100"}, first.Question.Options)
	assert.Equal(t, "B", first.Question.CorrectAnswer)
	assert.Equal(t, 5.0, first.Question.Score)
	assert.Equal(t, "at sea level", first.Question.Explanation)

	assert.Equal(t, exam.MultipleChoice, rows[1].Question.Type)
	assert.Equal(t, "AB", rows[1].Question.CorrectAnswer)
	assert.Equal(t, 7.5, rows[1].Question.Score)

	assert.Equal(t, exam.TrueFalse, rows[2].Question.Type)
	assert.Equal(t, "A", rows[2].Question.CorrectAnswer)
	assert.Equal(t, float64(defaultScore), rows[2].Question.Score)

	assert.Equal(t, exam.Essay, rows[3].Question.Type)
	assert.Equal(t, 4, rows[3].Row)
}

func TestParseEmpty(t *testing.T) {
	rows, err := Parse(strings.NewReader("\n---\n\n"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}
