// Package quizdoc turns loosely structured quiz text into validated
// single-choice questions.
//
// Input may be a human-authored document (numbered questions, lettered
// options, inline correctness and explanation markers) or the raw output
// of a text-generation model that was asked for a JSON array. JSON-ish
// input goes through a cascade of salvage strategies first; anything that
// does not yield question records falls back to a line-based parser.
// Surviving questions are filtered by the configured validators.
//
// Parsing is pure: no I/O, no shared mutable state. A Parser may be used
// from multiple goroutines.
package quizdoc

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Parser parses quiz documents with a fixed configuration.
type Parser struct {
	cfg Config
}

// NewParser creates a parser. A nil Validators slice gets the structural
// validator so results always satisfy the acceptance invariants.
func NewParser(cfg Config) *Parser {
	if cfg.Validators == nil {
		cfg.Validators = []Validator{&StructuralValidator{}}
	}
	return &Parser{cfg: cfg}
}

// Fingerprint identifies the parser configuration. Parsers with equal
// fingerprints produce equal results for the same input.
func (p *Parser) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "max=%d repair=%t", p.cfg.MaxInputBytes, p.cfg.RepairMissingCorrect)
	for _, v := range p.cfg.Validators {
		fmt.Fprintf(h, " %s=%+v", v.Name(), v)
	}
	return hex.EncodeToString(h.Sum(nil)[:8])
}

var defaultParser = NewParser(DefaultConfig())

// Parse parses raw with DefaultConfig.
func Parse(raw string) (*Result, error) {
	return defaultParser.Parse(raw)
}

// Parse extracts questions from raw. On failure it returns a *ParseFailure
// and no questions; on success Result.Questions is non-empty.
func (p *Parser) Parse(raw string) (*Result, error) {
	if isBlank(raw) {
		return nil, &ParseFailure{Reason: ReasonEmptyInput}
	}
	if p.cfg.MaxInputBytes > 0 && len(raw) > p.cfg.MaxInputBytes {
		return nil, &ParseFailure{Reason: ReasonTooLarge}
	}

	candidates := 0

	if records, strategy, ok := normalizeResponse(raw); ok {
		questions := questionsFromRecords(records)
		kept, _ := Filter(questions, p.cfg.Validators...)
		if len(kept) > 0 {
			return &Result{
				Questions:  kept,
				Strategy:   strategy,
				Candidates: len(records),
				Dropped:    len(records) - len(kept),
			}, nil
		}
		candidates = len(records)
	}

	questions, blocks := parseLines(raw, p.cfg.RepairMissingCorrect)
	kept, _ := Filter(questions, p.cfg.Validators...)
	if len(kept) > 0 {
		return &Result{
			Questions:  kept,
			Strategy:   StrategyLines,
			Candidates: blocks,
			Dropped:    blocks - len(kept),
		}, nil
	}

	if blocks > candidates {
		candidates = blocks
	}
	return nil, &ParseFailure{Reason: ReasonNoQuestions, Candidates: candidates}
}

// Validate filters already-typed questions with the parser's validators.
// It is the entry point for callers that hold []Question rather than text.
func (p *Parser) Validate(questions []Question) ([]Question, error) {
	kept, _ := Filter(questions, p.cfg.Validators...)
	if len(kept) == 0 {
		return nil, &ParseFailure{Reason: ReasonNoQuestions, Candidates: len(questions)}
	}
	return kept, nil
}
