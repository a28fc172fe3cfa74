package interviewer

import (
	"math"
	"strconv"
	"strings"
)

var (
	trueTokens  = map[string]bool{"صح": true, "true": true, "1": true, "نعم": true}
	falseTokens = map[string]bool{"خطأ": true, "false": true, "0": true, "لا": true}
)

// NormalizeAnswer переводит ответ на вопрос о правилах в bool.
// ok=false, если ответ не входит ни в один из наборов.
func NormalizeAnswer(raw string) (value bool, ok bool) {
	answer := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case trueTokens[answer]:
		return true, true
	case falseTokens[answer]:
		return false, true
	default:
		return false, false
	}
}

// IsNumber проверяет ответ на числовой вопрос
func IsNumber(raw string) bool {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return false
	}
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}
