// Package milp содержит представление смешанно-целочисленной модели:
// переменные, линейные выражения, ограничения и целевую функцию.
// Модель не решает задачу сама, а сериализуется в формат CPLEX LP
// для внешних солверов.
package milp

import (
	"fmt"
	"math"

	"clinkerplan/pkg/apperror"
)

// VarKind тип переменной
type VarKind int

const (
	Continuous VarKind = iota
	Integer
	Binary
)

// String возвращает название типа переменной
func (k VarKind) String() string {
	switch k {
	case Integer:
		return "integer"
	case Binary:
		return "binary"
	default:
		return "continuous"
	}
}

// Sense знак ограничения
type Sense int

const (
	LE Sense = iota // <=
	GE              // >=
	EQ              // =
)

// String возвращает знак ограничения в нотации LP-формата
func (s Sense) String() string {
	switch s {
	case GE:
		return ">="
	case EQ:
		return "="
	default:
		return "<="
	}
}

// Var переменная модели. Lower и Upper задают границы,
// math.Inf используется для неограниченных сторон.
type Var struct {
	Index  int
	Name   string
	LPName string
	Kind   VarKind
	Lower  float64
	Upper  float64
}

// IsFixed сообщает, зафиксирована ли переменная на одном значении
func (v *Var) IsFixed() bool {
	return v.Lower == v.Upper
}

// Constraint линейное ограничение expr sense rhs.
// Константа выражения переносится в правую часть при записи.
type Constraint struct {
	Name  string
	Expr  *LinExpr
	Sense Sense
	RHS   float64
}

// Model модель оптимизации с минимизируемой целевой функцией
type Model struct {
	Name        string
	Vars        []*Var
	Constraints []*Constraint
	Objective   *LinExpr

	byName   map[string]*Var
	byLPName map[string]*Var
	lpNames  map[string]int
}

// NewModel создаёт пустую модель
func NewModel(name string) *Model {
	return &Model{
		Name:      name,
		Objective: NewExpr(),
		byName:    make(map[string]*Var),
		byLPName:  make(map[string]*Var),
		lpNames:   make(map[string]int),
	}
}

// AddContinuous добавляет непрерывную переменную с границами [lower, upper]
func (m *Model) AddContinuous(name string, lower, upper float64) *Var {
	return m.addVar(name, Continuous, lower, upper)
}

// AddNonNegative добавляет непрерывную переменную без верхней границы
func (m *Model) AddNonNegative(name string) *Var {
	return m.addVar(name, Continuous, 0, math.Inf(1))
}

// AddInteger добавляет целочисленную переменную с границами [lower, upper]
func (m *Model) AddInteger(name string, lower, upper float64) *Var {
	return m.addVar(name, Integer, lower, upper)
}

// AddBinary добавляет бинарную переменную
func (m *Model) AddBinary(name string) *Var {
	return m.addVar(name, Binary, 0, 1)
}

func (m *Model) addVar(name string, kind VarKind, lower, upper float64) *Var {
	if existing, ok := m.byName[name]; ok {
		return existing
	}
	lp := m.uniqueLPName(sanitizeLPName(name))
	v := &Var{
		Index:  len(m.Vars),
		Name:   name,
		LPName: lp,
		Kind:   kind,
		Lower:  lower,
		Upper:  upper,
	}
	m.Vars = append(m.Vars, v)
	m.byName[name] = v
	m.byLPName[lp] = v
	return v
}

// uniqueLPName разрешает коллизии после санитизации имён
func (m *Model) uniqueLPName(base string) string {
	n, ok := m.lpNames[base]
	m.lpNames[base] = n + 1
	if !ok {
		return base
	}
	for {
		candidate := fmt.Sprintf("%s_%d", base, n+1)
		if _, taken := m.lpNames[candidate]; !taken {
			m.lpNames[candidate] = 1
			return candidate
		}
		n++
	}
}

// Fix фиксирует переменную на значении value
func (m *Model) Fix(v *Var, value float64) {
	v.Lower = value
	v.Upper = value
}

// VarByName ищет переменную по исходному имени
func (m *Model) VarByName(name string) (*Var, bool) {
	v, ok := m.byName[name]
	return v, ok
}

// VarByLPName ищет переменную по имени в LP-файле
func (m *Model) VarByLPName(name string) (*Var, bool) {
	v, ok := m.byLPName[name]
	return v, ok
}

// AddConstraint добавляет ограничение expr sense rhs
func (m *Model) AddConstraint(name string, expr *LinExpr, sense Sense, rhs float64) *Constraint {
	c := &Constraint{Name: name, Expr: expr, Sense: sense, RHS: rhs}
	m.Constraints = append(m.Constraints, c)
	return c
}

// SetObjective задаёт минимизируемую целевую функцию
func (m *Model) SetObjective(expr *LinExpr) {
	m.Objective = expr
}

// NumVars возвращает число переменных
func (m *Model) NumVars() int {
	return len(m.Vars)
}

// NumConstraints возвращает число ограничений
func (m *Model) NumConstraints() int {
	return len(m.Constraints)
}

// NumIntegerVars возвращает число целочисленных и бинарных переменных
func (m *Model) NumIntegerVars() int {
	n := 0
	for _, v := range m.Vars {
		if v.Kind != Continuous {
			n++
		}
	}
	return n
}

// Validate проверяет согласованность модели перед записью
func (m *Model) Validate() error {
	if len(m.Vars) == 0 {
		return apperror.New(apperror.CodeEmptyModel, "model has no variables")
	}
	for _, v := range m.Vars {
		if v.Lower > v.Upper {
			return apperror.Newf(apperror.CodeInvalidBounds,
				"variable %s has lower bound %g above upper bound %g", v.Name, v.Lower, v.Upper)
		}
	}
	for _, c := range m.Constraints {
		if c.Expr == nil || len(c.Expr.Terms) == 0 {
			return apperror.Newf(apperror.CodeEmptyConstraint,
				"constraint %s has no terms", c.Name)
		}
	}
	return nil
}
