package arithmetic

import (
	"fmt"
	"slices"

	"github.com/MJE43/mindful-arcade/internal/rng"
)

// Operator is one of the four arithmetic operations.
type Operator string

const (
	Add Operator = "+"
	Sub Operator = "-"
	Mul Operator = "*"
	Div Operator = "/"
)

// Operators lists the operators in draw order.
var Operators = []Operator{Add, Sub, Mul, Div}

// ChoiceCount is the number of options offered per question.
const ChoiceCount = 4

// perturbBudget is how many draws are tried before the offset range widens.
const perturbBudget = 32

// Question is an immutable multiple-choice problem.
type Question struct {
	A        int              `json:"a"`
	B        int              `json:"b"`
	Operator Operator         `json:"operator"`
	Answer   int              `json:"answer"`
	Choices  [ChoiceCount]int `json:"choices"`
}

func (q Question) String() string {
	return fmt.Sprintf("%d %s %d", q.A, q.Operator, q.B)
}

// Has reports whether v is one of the offered choices.
func (q Question) Has(v int) bool {
	return slices.Contains(q.Choices[:], v)
}

// Generate draws a question with a uniformly chosen operator.
func Generate(src rng.Source) Question {
	return GenerateFor(src, Operators[src.IntN(len(Operators))])
}

// GenerateFor draws operands for op within its ranges:
//
//	+  both operands in [1,50]
//	-  minuend in [20,69], subtrahend in [1,20]
//	*  both operands in [1,12]
//	/  divisor in [1,10], quotient in [1,20], dividend = divisor*quotient
func GenerateFor(src rng.Source, op Operator) Question {
	var a, b int
	switch op {
	case Add:
		a = rng.Between(src, 1, 50)
		b = rng.Between(src, 1, 50)
	case Sub:
		a = rng.Between(src, 20, 69)
		b = rng.Between(src, 1, 20)
	case Mul:
		a = rng.Between(src, 1, 12)
		b = rng.Between(src, 1, 12)
	case Div:
		b = rng.Between(src, 1, 10)
		a = b * rng.Between(src, 1, 20)
	default:
		op, a, b = Add, 1, 1
	}
	return Compose(src, op, a, b)
}

// Compose builds the question a op b with shuffled choices. For Div, b must
// divide a.
func Compose(src rng.Source, op Operator, a, b int) Question {
	q := Question{A: a, B: b, Operator: op, Answer: evaluate(op, a, b)}

	choices := wrongChoices(src, op, q.Answer)
	rng.Shuffle(src, len(choices), func(i, j int) { choices[i], choices[j] = choices[j], choices[i] })
	copy(q.Choices[:], choices)
	return q
}

func evaluate(op Operator, a, b int) int {
	switch op {
	case Sub:
		return a - b
	case Mul:
		return a * b
	case Div:
		return a / b
	default:
		return a + b
	}
}

// wrongChoices returns the answer followed by three distinct positive
// distractors. Division perturbs by an offset in [-5,4]; the other operators
// by an offset in [-v, v-1] with v = max(1, floor(answer*0.3)). Small answers
// cannot always yield three positive distractors from that window, so after
// perturbBudget draws without progress the window grows by one on each side.
func wrongChoices(src rng.Source, op Operator, answer int) []int {
	options := make([]int, 1, ChoiceCount)
	options[0] = answer

	lo, span := -5, 10
	if op != Div {
		v := max(1, answer*3/10)
		lo, span = -v, 2*v
	}

	misses := 0
	for len(options) < ChoiceCount {
		candidate := answer + lo + src.IntN(span)
		if candidate != answer && candidate > 0 && !slices.Contains(options, candidate) {
			options = append(options, candidate)
			misses = 0
			continue
		}
		misses++
		if misses >= perturbBudget {
			lo--
			span += 2
			misses = 0
		}
	}
	return options
}
