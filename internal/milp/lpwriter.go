package milp

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"
)

// termsPerLine ограничивает длину строк LP-файла, старые парсеры
// обрезают строки длиннее ~560 символов
const termsPerLine = 6

// WriteLP сериализует модель в формат CPLEX LP. Формат понимают
// все поддерживаемые бэкенды: gurobi_cl, cbc, highs и scip.
func (m *Model) WriteLP(w io.Writer) error {
	if err := m.Validate(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)

	bw.WriteString("\\ Problem: " + m.Name + "\n")
	bw.WriteString("Minimize\n")
	writeExpr(bw, "obj", m.Objective.Canonical(), m.Vars[0])

	bw.WriteString("Subject To\n")
	for _, c := range m.Constraints {
		expr := c.Expr.Canonical()
		rhs := c.RHS - expr.Constant
		writeConstraint(bw, c.Name, expr, c.Sense, rhs)
	}

	bw.WriteString("Bounds\n")
	for _, v := range m.Vars {
		if v.Kind == Binary && v.Lower == 0 && v.Upper == 1 {
			continue
		}
		writeBounds(bw, v)
	}

	writeKindSection(bw, "General", m.Vars, Integer)
	writeKindSection(bw, "Binary", m.Vars, Binary)

	bw.WriteString("End\n")
	return bw.Flush()
}

// writeExpr пишет целевую функцию. Пустая цель заменяется
// нулевым слагаемым, иначе часть парсеров отклоняет файл.
func writeExpr(bw *bufio.Writer, label string, expr *LinExpr, fallback *Var) {
	bw.WriteString(" " + label + ":")
	if len(expr.Terms) == 0 {
		bw.WriteString(" 0 " + fallback.LPName + "\n")
		return
	}
	writeTerms(bw, expr.Terms)
	bw.WriteString("\n")
}

func writeConstraint(bw *bufio.Writer, name string, expr *LinExpr, sense Sense, rhs float64) {
	bw.WriteString(" " + sanitizeLPName(name) + ":")
	writeTerms(bw, expr.Terms)
	bw.WriteString(" " + sense.String() + " " + formatFloat(rhs) + "\n")
}

// writeTerms пишет слагаемые со знаками, перенося длинные выражения
// на следующие строки
func writeTerms(bw *bufio.Writer, terms []Term) {
	for i, t := range terms {
		if i > 0 && i%termsPerLine == 0 {
			bw.WriteString("\n  ")
		}
		coef := t.Coef
		if coef < 0 {
			bw.WriteString(" - ")
			coef = -coef
		} else if i > 0 {
			bw.WriteString(" + ")
		} else {
			bw.WriteString(" ")
		}
		if coef != 1 {
			bw.WriteString(formatFloat(coef) + " ")
		}
		bw.WriteString(t.Var.LPName)
	}
}

func writeBounds(bw *bufio.Writer, v *Var) {
	switch {
	case v.IsFixed():
		bw.WriteString(" " + v.LPName + " = " + formatFloat(v.Lower) + "\n")
	case math.IsInf(v.Lower, -1) && math.IsInf(v.Upper, 1):
		bw.WriteString(" " + v.LPName + " free\n")
	case math.IsInf(v.Upper, 1):
		if v.Lower != 0 {
			bw.WriteString(" " + v.LPName + " >= " + formatFloat(v.Lower) + "\n")
		}
	case math.IsInf(v.Lower, -1):
		bw.WriteString(" -infinity <= " + v.LPName + " <= " + formatFloat(v.Upper) + "\n")
	default:
		bw.WriteString(" " + formatFloat(v.Lower) + " <= " + v.LPName + " <= " + formatFloat(v.Upper) + "\n")
	}
}

func writeKindSection(bw *bufio.Writer, header string, vars []*Var, kind VarKind) {
	names := make([]string, 0)
	for _, v := range vars {
		if v.Kind == kind {
			names = append(names, v.LPName)
		}
	}
	if len(names) == 0 {
		return
	}
	bw.WriteString(header + "\n")
	for i := 0; i < len(names); i += termsPerLine {
		end := i + termsPerLine
		if end > len(names) {
			end = len(names)
		}
		bw.WriteString(" " + strings.Join(names[i:end], " ") + "\n")
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// sanitizeLPName приводит имя к допустимому в LP-формате виду:
// буквы, цифры и ограниченный набор символов, без ведущей цифры
func sanitizeLPName(name string) string {
	if name == "" {
		return "_"
	}
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	s := b.String()
	if c := s[0]; c >= '0' && c <= '9' || c == '.' {
		s = "v" + s
	}
	return s
}
