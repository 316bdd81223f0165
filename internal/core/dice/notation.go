// Package dice parses dice notation into densities and draws seeded samples
// from them.
package dice

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/louisbranch/dicedensity/internal/core/density"
)

// Parser limits. They keep a single expression to a bounded amount of work.
const (
	// MaxDieSides is the largest die size, d1000.
	MaxDieSides = 1000
	// MaxDieCount is the largest repeat count, m100d<M>.
	MaxDieCount = 100
	// MaxOperandPairs bounds the outcome pairs a single binary operator may
	// visit.
	MaxOperandPairs = 1 << 22
)

// dieToken matches [m<N>][a|d]d<M>. An empty N means one die.
var dieToken = regexp.MustCompile(`^(?:m(\d*))?([ad]?)d(\d+)$`)

// Result is an evaluated dice expression. Expressions ending in a comparison
// evaluate to a probability; all others evaluate to a density.
type Result struct {
	Expr        string
	Density     density.Density
	Probability float64
	Comparison  bool
}

// Parse evaluates a dice expression such as "d20+2*ad6-m3d4" or "m2d6 >= 7".
//
// # Grammar
//
//	expr    = sum [ cmp sum ]
//	cmp     = "<" | "<=" | ">" | ">=" | "==" | "!="
//	sum     = product { ("+" | "-") product }
//	product = unary { "*" unary }
//	unary   = "-" unary | primary
//	primary = integer | die | "abs" "(" sum ")" | "(" sum ")"
//	die     = [ "m" [integer] ] [ "a" | "d" ] "d" integer
//
// A die token dM is uniform on 1..M, adM keeps the better of two rolls and ddM
// the worse. The prefix mN sums N independent copies, so m3d20 is d20+d20+d20
// while 3*d20 is one d20 multiplied by three.
func Parse(expr string) (Result, error) {
	tokens, err := lex(expr)
	if err != nil {
		return Result{}, err
	}
	p := &parser{expr: expr, tokens: tokens}
	left, err := p.sum()
	if err != nil {
		return Result{}, err
	}
	result := Result{Expr: expr, Density: left}

	if tok := p.peek(); tok.kind == tokenCompare {
		p.next()
		right, err := p.sum()
		if err != nil {
			return Result{}, err
		}
		if err := p.checkPairs(tok, left, right); err != nil {
			return Result{}, err
		}
		result.Comparison = true
		result.Density = density.Density{}
		result.Probability = compare(tok.text, left, right)
	}
	if tok := p.peek(); tok.kind != tokenEOF {
		return Result{}, p.errorf(tok, "unexpected %q", tok.text)
	}
	return result, nil
}

// ParseDensity is like Parse but rejects comparisons.
func ParseDensity(expr string) (density.Density, error) {
	result, err := Parse(expr)
	if err != nil {
		return density.Density{}, err
	}
	if result.Comparison {
		return density.Density{}, fmt.Errorf("%w: %q", ErrNotDensity, expr)
	}
	return result.Density, nil
}

// Standard returns the common dice by name: d2 through d100 plus ad20 and dd20.
func Standard() map[string]density.Density {
	out := make(map[string]density.Density, 11)
	for _, sides := range []int{2, 3, 4, 6, 8, 10, 12, 20, 100} {
		out["d"+strconv.Itoa(sides)] = density.Die(sides)
	}
	out["ad20"] = density.AdvantageDie(20)
	out["dd20"] = density.DisadvantageDie(20)
	return out
}

func compare(op string, left, right density.Density) float64 {
	switch op {
	case "<":
		return left.Lt(right)
	case "<=":
		return left.Le(right)
	case ">":
		return left.Gt(right)
	case ">=":
		return left.Ge(right)
	case "==":
		return left.Eq(right)
	default:
		return left.Ne(right)
	}
}

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenNumber
	tokenDie
	tokenAbs
	tokenOp
	tokenCompare
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func lex(expr string) ([]token, error) {
	var tokens []token
	runes := []rune(expr)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r):
			start := i
			for i < len(runes) && unicode.IsDigit(runes[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tokenNumber, text: string(runes[start:i]), pos: start})
		case unicode.IsLetter(r):
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i])) {
				i++
			}
			word := strings.ToLower(string(runes[start:i]))
			switch {
			case word == "abs":
				tokens = append(tokens, token{kind: tokenAbs, text: word, pos: start})
			case dieToken.MatchString(word):
				tokens = append(tokens, token{kind: tokenDie, text: word, pos: start})
			default:
				return nil, &SyntaxError{Expr: expr, Pos: start, Msg: fmt.Sprintf("unknown term %q", word)}
			}
		case r == '+' || r == '-' || r == '*':
			tokens = append(tokens, token{kind: tokenOp, text: string(r), pos: i})
			i++
		case r == '(':
			tokens = append(tokens, token{kind: tokenLParen, text: "(", pos: i})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokenRParen, text: ")", pos: i})
			i++
		case r == '<' || r == '>' || r == '=' || r == '!':
			start := i
			i++
			if i < len(runes) && runes[i] == '=' {
				i++
			}
			op := string(runes[start:i])
			if op == "=" || op == "!" {
				return nil, &SyntaxError{Expr: expr, Pos: start, Msg: fmt.Sprintf("unknown operator %q", op)}
			}
			tokens = append(tokens, token{kind: tokenCompare, text: op, pos: start})
		default:
			return nil, &SyntaxError{Expr: expr, Pos: i, Msg: fmt.Sprintf("unexpected character %q", r)}
		}
	}
	tokens = append(tokens, token{kind: tokenEOF, pos: len(runes)})
	return tokens, nil
}

type parser struct {
	expr   string
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) errorf(tok token, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if tok.kind == tokenEOF {
		msg = "unexpected end of expression"
	}
	return &SyntaxError{Expr: p.expr, Pos: tok.pos, Msg: msg}
}

// limitf reports an expression that exceeds a parser limit at tok.
func (p *parser) limitf(tok token, format string, args ...any) error {
	return fmt.Errorf("%w: %s at position %d", ErrTooLarge, fmt.Sprintf(format, args...), tok.pos)
}

// checkPairs rejects a binary operator whose operands would visit more than
// MaxOperandPairs outcome pairs.
func (p *parser) checkPairs(tok token, left, right density.Density) error {
	if left.Len()*right.Len() > MaxOperandPairs {
		return p.limitf(tok, "%q combines %d by %d outcomes", tok.text, left.Len(), right.Len())
	}
	return nil
}

func (p *parser) sum() (density.Density, error) {
	left, err := p.product()
	if err != nil {
		return density.Density{}, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokenOp || tok.text == "*" {
			return left, nil
		}
		p.next()
		right, err := p.product()
		if err != nil {
			return density.Density{}, err
		}
		if err := p.checkPairs(tok, left, right); err != nil {
			return density.Density{}, err
		}
		if tok.text == "+" {
			left = left.Add(right)
		} else {
			left = left.Sub(right)
		}
	}
}

func (p *parser) product() (density.Density, error) {
	left, err := p.unary()
	if err != nil {
		return density.Density{}, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokenOp || tok.text != "*" {
			return left, nil
		}
		p.next()
		right, err := p.unary()
		if err != nil {
			return density.Density{}, err
		}
		if err := p.checkPairs(tok, left, right); err != nil {
			return density.Density{}, err
		}
		left = left.Mul(right)
	}
}

func (p *parser) unary() (density.Density, error) {
	if tok := p.peek(); tok.kind == tokenOp && tok.text == "-" {
		p.next()
		operand, err := p.unary()
		if err != nil {
			return density.Density{}, err
		}
		return operand.Neg(), nil
	}
	return p.primary()
}

func (p *parser) primary() (density.Density, error) {
	tok := p.next()
	switch tok.kind {
	case tokenNumber:
		n, err := strconv.Atoi(tok.text)
		if err != nil {
			return density.Density{}, p.errorf(tok, "number %q out of range", tok.text)
		}
		return density.Constant(n), nil
	case tokenDie:
		return p.die(tok)
	case tokenAbs:
		if open := p.next(); open.kind != tokenLParen {
			return density.Density{}, p.errorf(open, "expected ( after abs")
		}
		inner, err := p.group()
		if err != nil {
			return density.Density{}, err
		}
		return inner.Abs(), nil
	case tokenLParen:
		return p.group()
	default:
		return density.Density{}, p.errorf(tok, "unexpected %q", tok.text)
	}
}

func (p *parser) group() (density.Density, error) {
	inner, err := p.sum()
	if err != nil {
		return density.Density{}, err
	}
	if closing := p.next(); closing.kind != tokenRParen {
		return density.Density{}, p.errorf(closing, "expected ) but found %q", closing.text)
	}
	return inner, nil
}

func (p *parser) die(tok token) (density.Density, error) {
	match := dieToken.FindStringSubmatch(tok.text)
	count := 1
	if match[1] != "" {
		n, err := strconv.Atoi(match[1])
		if err != nil {
			return density.Density{}, p.errorf(tok, "die count %q out of range", match[1])
		}
		count = n
	}
	if count > MaxDieCount {
		return density.Density{}, p.limitf(tok, "die count %d exceeds %d", count, MaxDieCount)
	}
	sides, err := strconv.Atoi(match[3])
	if err != nil {
		return density.Density{}, p.errorf(tok, "die size %q out of range", match[3])
	}
	if sides > MaxDieSides {
		return density.Density{}, p.limitf(tok, "die size %d exceeds %d", sides, MaxDieSides)
	}
	base, err := density.NewDie(sides)
	if err != nil {
		return density.Density{}, fmt.Errorf("%w: %w", p.errorf(tok, "invalid die %q", tok.text), err)
	}
	switch match[2] {
	case "a":
		base = base.WithAdvantage()
	case "d":
		base = base.WithDisadvantage()
	}
	return base.ArithMult(count)
}
