// Package notation converts LaTeX math snippets into terminal-friendly text.
package notation

import (
	"regexp"
	"strings"
)

var delimiters = strings.NewReplacer(`\(`, "", `\)`, "", `\[`, "", `\]`, "", "$", "")

// Strip removes inline and display math delimiters and leaves the LaTeX
// body untouched.
func Strip(s string) string {
	return delimiters.Replace(s)
}

var (
	textCmd  = regexp.MustCompile(`\\(?:text|mathrm|mathbf|operatorname)\{([^{}]*)\}`)
	fracCmd  = regexp.MustCompile(`\\[dt]?frac\{([^{}]*)\}\{([^{}]*)\}`)
	sqrtCmd  = regexp.MustCompile(`\\sqrt\{([^{}]*)\}`)
	nrootCmd = regexp.MustCompile(`\\sqrt\[([^\]]*)\]\{([^{}]*)\}`)
	supGroup = regexp.MustCompile(`\^\{([^{}]*)\}`)
	supChar  = regexp.MustCompile(`\^([0-9a-zA-Z+\-])`)
	subGroup = regexp.MustCompile(`_\{([^{}]*)\}`)
	subChar  = regexp.MustCompile(`_([0-9a-zA-Z+\-])`)
	spaces   = regexp.MustCompile(`[ \t]{2,}`)
)

var symbols = strings.NewReplacer(
	`\left`, "", `\Rightarrow`, "⇒", `\rightarrow`, "→", `\right`, "",
	`\int`, "∫", `\infty`, "∞",
	`\cdot`, "·", `\times`, "×", `\div`, "÷", `\pm`, "±", `\mp`, "∓",
	`\leq`, "≤", `\le`, "≤", `\geq`, "≥", `\ge`, "≥", `\neq`, "≠", `\ne`, "≠",
	`\approx`, "≈",
	`\to`, "→", `\implies`, "⇒", `\in`, "∈", `\circ`, "°", `\degree`, "°",
	`\alpha`, "α", `\beta`, "β", `\gamma`, "γ", `\delta`, "δ", `\Delta`, "Δ",
	`\theta`, "θ", `\lambda`, "λ", `\mu`, "μ", `\pi`, "π", `\sigma`, "σ",
	`\phi`, "φ", `\omega`, "ω", `\sum`, "∑", `\angle`, "∠",
	`\quad`, " ", `\qquad`, " ", `\,`, " ", `\;`, " ", `\!`, "", `\ `, " ",
	`\{`, "{", `\}`, "}", `\%`, "%",
)

var superscripts = map[rune]rune{
	'0': '⁰', '1': '¹', '2': '²', '3': '³', '4': '⁴', '5': '⁵', '6': '⁶',
	'7': '⁷', '8': '⁸', '9': '⁹', '+': '⁺', '-': '⁻', 'n': 'ⁿ', 'i': 'ⁱ',
	'x': 'ˣ', 'y': 'ʸ', '(': '⁽', ')': '⁾',
}

var subscripts = map[rune]rune{
	'0': '₀', '1': '₁', '2': '₂', '3': '₃', '4': '₄', '5': '₅', '6': '₆',
	'7': '₇', '8': '₈', '9': '₉', '+': '₊', '-': '₋', 'n': 'ₙ', 'i': 'ᵢ',
	'x': 'ₓ', '(': '₍', ')': '₎',
}

// Render turns a LaTeX snippet into readable Unicode text. Constructs it
// does not know are left in place rather than dropped.
func Render(s string) string {
	s = Strip(s)
	s = textCmd.ReplaceAllString(s, "$1")

	// Nested fractions and roots are resolved from the inside out.
	for i := 0; i < 4; i++ {
		prev := s
		s = nrootCmd.ReplaceAllString(s, "$1√($2)")
		s = sqrtCmd.ReplaceAllStringFunc(s, func(m string) string {
			inner := sqrtCmd.FindStringSubmatch(m)[1]
			return "√" + wrap(inner)
		})
		s = fracCmd.ReplaceAllStringFunc(s, func(m string) string {
			parts := fracCmd.FindStringSubmatch(m)
			return wrap(parts[1]) + "/" + wrap(parts[2])
		})
		if s == prev {
			break
		}
	}

	s = supGroup.ReplaceAllStringFunc(s, func(m string) string {
		return script(supGroup.FindStringSubmatch(m)[1], superscripts, "^")
	})
	s = supChar.ReplaceAllStringFunc(s, func(m string) string {
		return script(m[1:], superscripts, "^")
	})
	s = subGroup.ReplaceAllStringFunc(s, func(m string) string {
		return script(subGroup.FindStringSubmatch(m)[1], subscripts, "_")
	})
	s = subChar.ReplaceAllStringFunc(s, func(m string) string {
		return script(m[1:], subscripts, "_")
	})

	s = symbols.Replace(s)
	s = spaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// wrap parenthesizes compound operands so a/b stays unambiguous.
func wrap(s string) string {
	s = strings.TrimSpace(s)
	if len([]rune(s)) <= 1 || strings.IndexFunc(s, isOperator) < 0 {
		return s
	}
	return "(" + s + ")"
}

func isOperator(r rune) bool {
	return strings.ContainsRune("+-*/= ", r)
}

// script maps every rune through table, falling back to caret or
// underscore notation when any rune has no Unicode equivalent.
func script(s string, table map[rune]rune, marker string) string {
	var b strings.Builder
	for _, r := range s {
		m, ok := table[r]
		if !ok {
			if len([]rune(s)) == 1 {
				return marker + s
			}
			return marker + "(" + s + ")"
		}
		b.WriteRune(m)
	}
	return b.String()
}
