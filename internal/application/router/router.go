// Package router matches command text against the bot grammar.
package router

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
)

// CommandError is returned when text does not fit the grammar.
type CommandError struct {
	Code    ErrorCode
	Verb    Verb
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Usage returns the usage hint for the verb the error belongs to.
func (e *CommandError) Usage() string {
	return Usage(e.Verb)
}

// Command is a parsed command line.
type Command struct {
	Verb Verb
	Raw  string
	// Index is the task number for verbs that address a task.
	Index int
	// Priority is set by prio.
	Priority int
	// Word holds a single-token argument: list filter, clear scope, sort key, settings key.
	Word string
	// Text holds free text: add content, edit content, due phrase, tags, search query,
	// reminder offset, settings value.
	Text string
}

// Route parses raw text into a Command.
func Route(raw string) (Command, error) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	line = strings.TrimPrefix(line, "/")

	head, rest := cutToken(line)
	if at := strings.IndexByte(head, '@'); at >= 0 {
		head = head[:at]
	}
	verb := Verb(strings.ToLower(head))

	for _, r := range grammar {
		if r.verb != verb {
			continue
		}
		return r.match(raw, rest)
	}
	return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
}

func (r rule) match(raw, rest string) (Command, error) {
	cmd := Command{Verb: r.verb, Raw: raw}
	invalid := func(msg string) (Command, error) {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Verb: r.verb, Message: msg}
	}

	for _, spec := range r.args {
		rest = strings.TrimSpace(rest)
		if rest == "" {
			if spec.required {
				return invalid(fmt.Sprintf("%s requires more arguments", r.verb))
			}
			continue
		}

		switch spec.kind {
		case argIndex, argPriority:
			var tok string
			tok, rest = cutToken(rest)
			n, ok := parseNumber(tok)
			if !ok {
				return invalid(fmt.Sprintf("%q is not a number", tok))
			}
			if spec.kind == argIndex {
				cmd.Index = n
			} else {
				if n < 1 || n > 5 {
					return invalid(fmt.Sprintf("priority %d is out of range", n))
				}
				cmd.Priority = n
			}
		case argWord:
			var tok string
			tok, rest = cutToken(rest)
			if len(spec.choices) > 0 {
				tok = strings.ToLower(tok)
				if !contains(spec.choices, tok) {
					return invalid(fmt.Sprintf("%q is not one of %s", tok, strings.Join(spec.choices, ", ")))
				}
			}
			cmd.Word = tok
		case argText:
			cmd.Text = rest
			rest = ""
		}
	}

	if strings.TrimSpace(rest) != "" {
		return invalid(fmt.Sprintf("unexpected argument %q", strings.TrimSpace(rest)))
	}
	return cmd, nil
}

// cutToken splits s at the first run of whitespace.
func cutToken(s string) (string, string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}

func parseNumber(tok string) (int, bool) {
	for _, r := range tok {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, false
	}
	return n, true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
