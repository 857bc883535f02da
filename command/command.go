// Package command holds the immutable instructions that are sent to the interpreter.
//
// A Command is a tagged value: plain text, an assignment, or a function invocation.
// Any of them can be marked silent, which keeps its scheduling identical but hides
// it from transcript listeners.
package command

import (
	"fmt"
	"strings"
)

// Kind identifies which variant a Command holds.
type Kind int

const (
	// KindPlain is opaque command text.
	KindPlain Kind = iota
	// KindAssignment is "<target> <- <expr>".
	KindAssignment
	// KindInvocation is "name(params...)".
	KindInvocation
)

func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindAssignment:
		return "assignment"
	case KindInvocation:
		return "invocation"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

const (
	assignmentSeparator = " <- "
	paramStart          = "("
	paramEnd            = ")"
	paramSeparator      = ", "
	paramNameSeparator  = "="
)

// Command is an immutable, renderable interpreter instruction.
// The zero value is a visible plain command with empty text.
type Command struct {
	kind   Kind
	text   string
	target string
	name   string
	params []Param
	silent bool
}

// Plain creates a command from opaque text.
func Plain(text string) Command {
	return Command{kind: KindPlain, text: text}
}

// Assign creates an assignment of valueExpression to target.
func Assign(target, valueExpression string) Command {
	return Command{kind: KindAssignment, target: target, text: valueExpression}
}

// Invoke creates a function invocation. Parameters render in the given order.
func Invoke(name string, params ...Param) Command {
	return Command{kind: KindInvocation, name: name, params: append([]Param(nil), params...)}
}

// Silent returns a copy of c that listeners will not see unless they ask for silent events.
func Silent(c Command) Command {
	c.silent = true
	return c
}

// Kind returns the variant of the command.
func (c Command) Kind() Kind {
	return c.kind
}

// Visible reports whether transcript listeners should see this command.
func (c Command) Visible() bool {
	return !c.silent
}

// Name returns the function name of an invocation, or "" for other kinds.
func (c Command) Name() string {
	return c.name
}

// Target returns the assignee of an assignment, or "" for other kinds.
func (c Command) Target() string {
	return c.target
}

// Params returns a copy of the invocation parameters.
func (c Command) Params() []Param {
	return append([]Param(nil), c.params...)
}

// Render returns the canonical interpreter text for the command.
func (c Command) Render() string {
	switch c.kind {
	case KindAssignment:
		return c.target + assignmentSeparator + c.text
	case KindInvocation:
		var sb strings.Builder
		sb.WriteString(c.name)
		sb.WriteString(paramStart)
		for i, p := range c.params {
			if i > 0 {
				sb.WriteString(paramSeparator)
			}
			sb.WriteString(p.Render())
		}
		sb.WriteString(paramEnd)
		return sb.String()
	default:
		return c.text
	}
}

func (c Command) String() string {
	if c.silent {
		return fmt.Sprintf("Silent command: %q", c.Render())
	}
	return fmt.Sprintf("%s command: %s", c.kind, strings.TrimSpace(c.Render()))
}
