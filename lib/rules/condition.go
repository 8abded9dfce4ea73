// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"regexp"
	"strconv"
	"strings"
)

// GrammarVersion identifies the condition syntax accepted by
// ParseCondition. Bump it when the grammar changes so handbook
// troubleshooting can name the syntax a vault was written against.
const GrammarVersion = 1

// ConditionKind classifies a parsed flag condition.
type ConditionKind int

const (
	// ConditionNone marks an unrecognized condition. It never matches.
	ConditionNone ConditionKind = iota
	// ConditionAmount compares dollar amounts found in the content
	// against a threshold, e.g. "Amount > $1000".
	ConditionAmount
	// ConditionContains is a case-insensitive substring test,
	// e.g. "Contains 'urgent'".
	ConditionContains
	// ConditionDueDate matches content that mentions a date,
	// e.g. "Due date < 7 days". Matching is presence-based: comparing
	// found dates against the day window would need a clock, and flag
	// evaluation stays pure.
	ConditionDueDate
)

// Condition is one parsed clause of a custom flag rule.
type Condition struct {
	Kind       ConditionKind
	Comparator byte    // '>', '<' or '=' for amount conditions
	Threshold  float64 // dollars for amounts, days for due dates
	Keyword    string  // substring for contains conditions
}

var (
	amountPattern = regexp.MustCompile(`\$(\d+(?:,\d{3})*(?:\.\d{2})?)`)
	daysPattern   = regexp.MustCompile(`(\d+)\s*days?`)
	datePatterns  = []*regexp.Regexp{
		regexp.MustCompile(`\d{4}-\d{2}-\d{2}`),
		regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`),
		regexp.MustCompile(`(?i)(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}`),
	}
)

// ParseCondition reads one condition clause. Clauses that do not fit
// the grammar come back as ConditionNone rather than an error: a
// handbook is hand-edited prose, and a malformed rule should be inert,
// not fatal.
func ParseCondition(clause string) Condition {
	lower := strings.ToLower(clause)

	switch {
	case strings.Contains(clause, "Amount") || strings.Contains(clause, "$"):
		return parseAmountCondition(clause)
	case strings.Contains(lower, "contains"):
		return parseContainsCondition(clause)
	case strings.Contains(lower, "due date"):
		return parseDueDateCondition(clause)
	}
	return Condition{}
}

func parseAmountCondition(clause string) Condition {
	match := amountPattern.FindStringSubmatch(clause)
	if match == nil {
		return Condition{}
	}
	threshold, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", ""), 64)
	if err != nil {
		return Condition{}
	}

	var comparator byte
	switch {
	case strings.Contains(clause, ">"):
		comparator = '>'
	case strings.Contains(clause, "<"):
		comparator = '<'
	case strings.Contains(clause, "="):
		comparator = '='
	default:
		return Condition{}
	}
	return Condition{Kind: ConditionAmount, Comparator: comparator, Threshold: threshold}
}

func parseContainsCondition(clause string) Condition {
	_, rest, found := strings.Cut(clause, "'")
	if !found {
		return Condition{}
	}
	keyword, _, found := strings.Cut(rest, "'")
	if !found || keyword == "" {
		return Condition{}
	}
	return Condition{Kind: ConditionContains, Keyword: keyword}
}

func parseDueDateCondition(clause string) Condition {
	match := daysPattern.FindStringSubmatch(clause)
	if match == nil {
		return Condition{}
	}
	days, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return Condition{}
	}
	return Condition{Kind: ConditionDueDate, Threshold: days}
}

// Matches reports whether content satisfies the condition. It is a
// pure function of its inputs.
func (c Condition) Matches(content string) bool {
	switch c.Kind {
	case ConditionAmount:
		return c.matchesAmount(content)
	case ConditionContains:
		return strings.Contains(strings.ToLower(content), strings.ToLower(c.Keyword))
	case ConditionDueDate:
		for _, pattern := range datePatterns {
			if pattern.MatchString(content) {
				return true
			}
		}
	}
	return false
}

func (c Condition) matchesAmount(content string) bool {
	for _, match := range amountPattern.FindAllStringSubmatch(content, -1) {
		amount, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", ""), 64)
		if err != nil {
			continue
		}
		switch c.Comparator {
		case '>':
			if amount > c.Threshold {
				return true
			}
		case '<':
			if amount < c.Threshold {
				return true
			}
		case '=':
			if amount == c.Threshold {
				return true
			}
		}
	}
	return false
}
