// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

// Package rules reads the vault's Company_Handbook.md: the
// human-edited document that steers processing. The handbook is plain
// markdown with a handful of recognized sections (summarization
// guidance, tone, special instructions, custom flag rules, and
// preferences). Anything else in the file is ignored, so owners can
// keep prose, examples, and scratch notes alongside the rules.
//
// Custom flag rules have the shape "<condition> → <flag>"; the
// condition grammar lives in condition.go. Rule evaluation against
// task content is pure: no clock, no filesystem, no side effects.
package rules

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// RuleSet is the parsed form of the handbook.
type RuleSet struct {
	Summarization       []string
	ToneStyle           []string
	SpecialInstructions []string
	CustomFlags         []FlagRule
	Preferences         []Preference
}

// Preference is one "- **Key**: Value" entry from the Preferences
// section. Keys are normalized to lower_snake_case.
type Preference struct {
	Key   string
	Value string
}

// FlagRule is one bullet from the Custom Flags section. Raw always
// holds the original text; Flag and Condition are populated only when
// the bullet splits cleanly on "→".
type FlagRule struct {
	Raw       string
	Condition Condition
	Flag      string
}

// handbookParser configuration never changes and goldmark parsers are
// safe to share, so one instance serves all loads.
var (
	parserInstance goldmark.Markdown
	parserOnce     sync.Once
)

func getParser() goldmark.Markdown {
	parserOnce.Do(func() {
		parserInstance = goldmark.New()
	})
	return parserInstance
}

// Load reads and parses the handbook at path. A missing handbook is
// not an error: the built-in defaults apply until the owner writes
// one.
func Load(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Defaults(), nil
	}
	if err != nil {
		return RuleSet{}, fmt.Errorf("reading handbook: %w", err)
	}
	return Parse(data), nil
}

// Parse extracts the recognized sections from handbook markdown.
// Parsing never fails; unrecognized structure is simply skipped.
func Parse(source []byte) RuleSet {
	document := getParser().Parser().Parse(text.NewReader(source))
	parser := &handbookParser{source: source}
	ast.Walk(document, parser.walk)
	return parser.rules
}

type handbookSection int

const (
	sectionNone handbookSection = iota
	sectionSummarization
	sectionToneStyle
	sectionSpecialInstructions
	sectionCustomFlags
	sectionPreferences
)

type handbookParser struct {
	source  []byte
	rules   RuleSet
	section handbookSection
}

func (p *handbookParser) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	switch typed := node.(type) {
	case *ast.Heading:
		p.enterHeading(typed)
	case *ast.ListItem:
		p.collectItem(typed)
	}
	return ast.WalkContinue, nil
}

// enterHeading closes the current section and opens a new one when the
// heading is recognized. Level-1 headings are document titles and do
// not bound sections.
func (p *handbookParser) enterHeading(heading *ast.Heading) {
	if heading.Level < 2 {
		return
	}
	p.section = sectionNone

	title := nodeText(heading, p.source)
	switch heading.Level {
	case 2:
		switch title {
		case "Custom Flags":
			p.section = sectionCustomFlags
		case "Preferences":
			p.section = sectionPreferences
		}
	case 3:
		switch title {
		case "Summarization":
			p.section = sectionSummarization
		case "Tone & Style":
			p.section = sectionToneStyle
		case "Special Instructions":
			p.section = sectionSpecialInstructions
		}
	}
}

// collectItem reads one list item's own text, excluding any nested
// list, which the walk visits as separate items.
func (p *handbookParser) collectItem(item *ast.ListItem) {
	if p.section == sectionNone {
		return
	}
	block := item.FirstChild()
	if block == nil {
		return
	}

	switch p.section {
	case sectionPreferences:
		p.collectPreference(block)
	case sectionCustomFlags:
		if raw := nodeText(block, p.source); raw != "" {
			p.rules.CustomFlags = append(p.rules.CustomFlags, parseFlagRule(raw))
		}
	case sectionSummarization:
		if entry := nodeText(block, p.source); entry != "" {
			p.rules.Summarization = append(p.rules.Summarization, entry)
		}
	case sectionToneStyle:
		if entry := nodeText(block, p.source); entry != "" {
			p.rules.ToneStyle = append(p.rules.ToneStyle, entry)
		}
	case sectionSpecialInstructions:
		if entry := nodeText(block, p.source); entry != "" {
			p.rules.SpecialInstructions = append(p.rules.SpecialInstructions, entry)
		}
	}
}

// collectPreference parses "- **Key**: Value". The key must be strong
// text and the value must follow a colon; items with any other shape
// are skipped.
func (p *handbookParser) collectPreference(block ast.Node) {
	var strong ast.Node
	for child := block.FirstChild(); child != nil; child = child.NextSibling() {
		if emphasis, ok := child.(*ast.Emphasis); ok && emphasis.Level == 2 {
			strong = child
			break
		}
	}
	if strong == nil {
		return
	}
	key := nodeText(strong, p.source)
	if key == "" {
		return
	}

	var rest strings.Builder
	for sibling := strong.NextSibling(); sibling != nil; sibling = sibling.NextSibling() {
		rest.WriteString(nodeText(sibling, p.source))
	}
	after := strings.TrimSpace(rest.String())
	if !strings.HasPrefix(after, ":") {
		return
	}
	value := strings.TrimSpace(strings.TrimPrefix(after, ":"))
	if value == "" {
		return
	}

	p.rules.Preferences = append(p.rules.Preferences, Preference{
		Key:   strings.ReplaceAll(strings.ToLower(key), " ", "_"),
		Value: value,
	})
}

func parseFlagRule(raw string) FlagRule {
	rule := FlagRule{Raw: raw}
	parts := strings.Split(raw, "→")
	if len(parts) != 2 {
		return rule
	}
	rule.Flag = strings.TrimSpace(parts[1])
	rule.Condition = ParseCondition(strings.TrimSpace(parts[0]))
	return rule
}

// nodeText concatenates the plain text under node. Soft line breaks
// become single spaces so hard-wrapped bullets read as one line.
func nodeText(node ast.Node, source []byte) string {
	var b strings.Builder
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch typed := n.(type) {
		case *ast.Text:
			b.Write(typed.Segment.Value(source))
			if typed.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(typed.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// Evaluate returns the flags whose conditions match content, in
// handbook order. Bullets that never parsed into a condition are
// skipped.
func (r RuleSet) Evaluate(content string) []string {
	var flags []string
	for _, rule := range r.CustomFlags {
		if rule.Flag == "" {
			continue
		}
		if rule.Condition.Matches(content) {
			flags = append(flags, rule.Flag)
		}
	}
	return flags
}

// PromptContext renders the rule set as the preamble handed to the
// summarizer, one section per populated field.
func (r RuleSet) PromptContext() string {
	var b strings.Builder
	b.WriteString("# Processing Rules\n\n")

	writeSection := func(title string, entries []string) {
		if len(entries) == 0 {
			return
		}
		fmt.Fprintf(&b, "## %s:\n", title)
		for _, entry := range entries {
			fmt.Fprintf(&b, "- %s\n", entry)
		}
		b.WriteString("\n")
	}
	writeSection("Summarization", r.Summarization)
	writeSection("Tone & Style", r.ToneStyle)
	writeSection("Special Instructions", r.SpecialInstructions)

	if len(r.CustomFlags) > 0 {
		b.WriteString("## Custom Flags:\n")
		for _, rule := range r.CustomFlags {
			fmt.Fprintf(&b, "- %s\n", rule.Raw)
		}
		b.WriteString("\n")
	}
	if len(r.Preferences) > 0 {
		b.WriteString("## Preferences:\n")
		for _, preference := range r.Preferences {
			fmt.Fprintf(&b, "- %s: %s\n", titleCase(preference.Key), preference.Value)
		}
	}
	return b.String()
}

// titleCase turns lower_snake_case back into display form:
// "summary_length" becomes "Summary Length".
func titleCase(key string) string {
	words := strings.Split(key, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// Defaults is the rule set in force when no handbook exists.
func Defaults() RuleSet {
	return RuleSet{
		Summarization: []string{
			"Use 3 bullet points for summaries",
			"Keep summaries under 200 words",
			"Extract action items as checkboxes",
		},
		ToneStyle: []string{
			"Professional and courteous",
			"Concise and clear",
			"Action-oriented",
		},
		CustomFlags: []FlagRule{
			parseFlagRule("Amount > $1000 → 💰 High-value"),
		},
		Preferences: []Preference{
			{Key: "summary_length", Value: "150-200 words"},
			{Key: "action_item_format", Value: "Checkboxes"},
			{Key: "date_format", Value: "ISO 8601"},
			{Key: "time_zone", Value: "UTC"},
		},
	}
}

// DefaultHandbook is the markdown written by "intray init". It parses
// back to Defaults so a fresh vault behaves identically before and
// after the file exists.
func DefaultHandbook() string {
	return `# Company Handbook

Rules for how dropped files get processed. Edit freely: the processor
re-reads this file on every batch.

## Processing Rules

### Summarization
- Use 3 bullet points for summaries
- Keep summaries under 200 words
- Extract action items as checkboxes

### Tone & Style
- Professional and courteous
- Concise and clear
- Action-oriented

### Special Instructions

## Custom Flags

Rules have the shape "<condition> → <flag>". Conditions understand
dollar amounts ("Amount > $1000"), keywords ("Contains 'urgent'"), and
due dates ("Due date < 7 days").

- Amount > $1000 → 💰 High-value

## Preferences

- **Summary Length**: 150-200 words
- **Action Item Format**: Checkboxes
- **Date Format**: ISO 8601
- **Time Zone**: UTC
`
}
