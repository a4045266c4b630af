// Package txtimport reads the plain-text question block format accepted by
// the bulk import endpoint.
//
// Blocks are separated by a line holding only "---". Within a block:
//
//	#single_choice            question type (default single_choice)
//	A. first option           options A..J
//	Answer: B                 also "答案:"
//	Score: 5                  also "分值:", default 10
//	Explanation: because      also "解析:"
//
// Any other line is question text.
package txtimport

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/mind-engage/mindengage-authoring/internal/exam"
)

const defaultScore = 10

var (
	optionLine = regexp.MustCompile(`^([A-J])[.．]\s*(.*)$`)
	fieldLine  = regexp.MustCompile(`^(?i)(answer|score|explanation|答案|分值|解析)\s*[:：]\s*(.*)$`)
)

// Parse splits r into rows, numbered from 1 by block. It only reads the
// format; content rules are checked by the store.
func Parse(r io.Reader) ([]exam.ImportRow, error) {
	var (
		rows  []exam.ImportRow
		block []string
	)
	flush := func() {
		if len(block) == 0 {
			return
		}
		rows = append(rows, exam.ImportRow{Row: len(rows) + 1, Question: parseBlock(block)})
		block = nil
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(sc.Text(), "\ufeff"))
		switch {
		case strings.HasPrefix(line, "---") && strings.Trim(line, "-") == "":
			flush()
		case line == "":
			continue
		default:
			block = append(block, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	return rows, nil
}

func parseBlock(lines []string) exam.Question {
	q := exam.Question{Type: exam.SingleChoice, Score: defaultScore}
	var content []string
	for _, line := range lines {
		if strings.HasPrefix(line, "#") {
			q.Type = normalizeType(strings.TrimSpace(strings.TrimPrefix(line, "#")))
			continue
		}
		if m := optionLine.FindStringSubmatch(line); m != nil {
			q.Options = append(q.Options, strings.TrimSpace(m[2]))
			continue
		}
		if m := fieldLine.FindStringSubmatch(line); m != nil {
			val := strings.TrimSpace(m[2])
			switch strings.ToLower(m[1]) {
			case "answer", "答案":
				q.CorrectAnswer = strings.ToUpper(val)
			case "score", "分值":
				if v, err := strconv.ParseFloat(val, 64); err == nil {
					q.Score = v
				}
			case "explanation", "解析":
				q.Explanation = val
			}
			continue
		}
		content = append(content, line)
	}
	q.Content = strings.Join(content, "\n")
	if q.Type == exam.TrueFalse && q.CorrectAnswer == "" {
		q.CorrectAnswer = "A"
	}
	return q
}

func normalizeType(s string) exam.QuestionType {
	switch strings.ToLower(s) {
	case "short_answer":
		return exam.Essay
	case "":
		return exam.SingleChoice
	}
	return exam.QuestionType(strings.ToLower(s))
}
