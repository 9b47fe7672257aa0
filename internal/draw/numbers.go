package draw

import (
	"regexp"
	"strconv"
	"strings"
)

var numberSeparators = regexp.MustCompile(`[,\s\-]+`)

// SplitNumbers splits a numbers cell on runs of commas, whitespace and hyphens
// and returns the purely numeric tokens as integers, in order. Tokens that do
// not fit in 32 bits are dropped, so they never reach the INTEGER[] column.
func SplitNumbers(cell string) []int {
	tokens := numberSeparators.Split(cell, -1)
	nums := make([]int, 0, len(tokens))
	for _, tok := range tokens {
		if !IsNumeric(tok) {
			continue
		}
		n, err := strconv.ParseInt(tok, 10, 32)
		if err != nil {
			continue
		}
		nums = append(nums, int(n))
	}
	return nums
}

// JoinNumbers formats numbers as a comma-separated list.
// SplitNumbers(JoinNumbers(nums)) returns nums.
func JoinNumbers(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

// IsNumeric reports whether s is non-empty and made only of ASCII digits
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
