// Package calc evaluates arithmetic expressions typed into the calculator
// command. Only numeric literals, + - * /, unary signs and parentheses are
// understood; there is nothing else an input could reach.
package calc

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Guidance is the reply for input containing characters outside the
// allowed set.
const Guidance = "Please use only numbers and operators (+, -, *, /, ., (, ))."

const maxDepth = 64

var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrEmpty          = errors.New("empty expression")
	ErrTooDeep        = errors.New("expression nested too deeply")
	ErrOutOfRange     = errors.New("result out of range")
)

// SyntaxError reports malformed input at a byte offset.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at position %d", e.Msg, e.Pos)
}

// Evaluate joins args without a separator, validates and evaluates the
// result, and renders the reply text.
func Evaluate(args []string) string {
	expr := strings.Join(args, "")
	if expr == "" || !Valid(expr) {
		return Guidance
	}
	v, err := Eval(expr)
	if err != nil {
		return "Error: " + err.Error()
	}
	return "The result is: " + Format(v)
}

// Valid reports whether every character of expr is a digit, an operator,
// a dot, a parenthesis or a space.
func Valid(expr string) bool {
	for _, r := range expr {
		if !(r >= '0' && r <= '9') && !strings.ContainsRune("+-*/.() ", r) {
			return false
		}
	}
	return true
}

// Eval parses and evaluates expr with the usual precedence: * and / bind
// tighter than + and -, parentheses override, division is real division.
func Eval(expr string) (float64, error) {
	p := &parser{src: expr}
	p.skipSpace()
	if p.eof() {
		return 0, ErrEmpty
	}
	v, err := p.expr(0)
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if !p.eof() {
		return 0, p.unexpected()
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, ErrOutOfRange
	}
	return v, nil
}

// Format renders integral values without a fractional part and everything
// else in the shortest form that round-trips.
func Format(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		if v == 0 {
			return "0"
		}
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte { return p.src[p.pos] }

func (p *parser) skipSpace() {
	for !p.eof() && p.peek() == ' ' {
		p.pos++
	}
}

func (p *parser) unexpected() error {
	if p.eof() {
		return &SyntaxError{Pos: p.pos, Msg: "unexpected end of expression"}
	}
	return &SyntaxError{Pos: p.pos, Msg: fmt.Sprintf("unexpected %q", p.peek())}
}

// expr := term { ("+" | "-") term }
func (p *parser) expr(depth int) (float64, error) {
	left, err := p.term(depth)
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		if p.eof() {
			return left, nil
		}
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.term(depth)
		if err != nil {
			return 0, err
		}
		if op == '+' {
			left += right
		} else {
			left -= right
		}
	}
}

// term := factor { ("*" | "/") factor }
func (p *parser) term(depth int) (float64, error) {
	left, err := p.factor(depth)
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		if p.eof() {
			return left, nil
		}
		op := p.peek()
		if op != '*' && op != '/' {
			return left, nil
		}
		p.pos++
		right, err := p.factor(depth)
		if err != nil {
			return 0, err
		}
		if op == '*' {
			left *= right
			continue
		}
		if right == 0 {
			return 0, ErrDivisionByZero
		}
		left /= right
	}
}

// factor := ("+" | "-") factor | number | "(" expr ")"
func (p *parser) factor(depth int) (float64, error) {
	if depth > maxDepth {
		return 0, ErrTooDeep
	}
	p.skipSpace()
	if p.eof() {
		return 0, p.unexpected()
	}
	switch c := p.peek(); {
	case c == '+' || c == '-':
		p.pos++
		v, err := p.factor(depth + 1)
		if err != nil {
			return 0, err
		}
		if c == '-' {
			v = -v
		}
		return v, nil
	case c == '(':
		open := p.pos
		p.pos++
		v, err := p.expr(depth + 1)
		if err != nil {
			return 0, err
		}
		p.skipSpace()
		if p.eof() || p.peek() != ')' {
			return 0, &SyntaxError{Pos: open, Msg: "unclosed parenthesis"}
		}
		p.pos++
		return v, nil
	case c == '.' || (c >= '0' && c <= '9'):
		return p.number()
	default:
		return 0, p.unexpected()
	}
}

func (p *parser) number() (float64, error) {
	start := p.pos
	dots := 0
	for !p.eof() {
		c := p.peek()
		if c == '.' {
			dots++
		} else if c < '0' || c > '9' {
			break
		}
		p.pos++
	}
	lit := p.src[start:p.pos]
	if dots > 1 || lit == "." {
		return 0, &SyntaxError{Pos: start, Msg: fmt.Sprintf("invalid number %q", lit)}
	}
	v, err := strconv.ParseFloat(lit, 64)
	if errors.Is(err, strconv.ErrRange) {
		return 0, ErrOutOfRange
	}
	if err != nil {
		return 0, &SyntaxError{Pos: start, Msg: fmt.Sprintf("invalid number %q", lit)}
	}
	return v, nil
}
