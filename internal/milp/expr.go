package milp

// Term слагаемое линейного выражения
type Term struct {
	Var  *Var
	Coef float64
}

// LinExpr линейное выражение sum(coef * var) + constant
type LinExpr struct {
	Terms    []Term
	Constant float64
}

// NewExpr создаёт пустое выражение
func NewExpr() *LinExpr {
	return &LinExpr{}
}

// Add добавляет слагаемое coef * v и возвращает выражение для цепочки вызовов
func (e *LinExpr) Add(coef float64, v *Var) *LinExpr {
	if coef == 0 || v == nil {
		return e
	}
	e.Terms = append(e.Terms, Term{Var: v, Coef: coef})
	return e
}

// AddConst добавляет константу к выражению
func (e *LinExpr) AddConst(c float64) *LinExpr {
	e.Constant += c
	return e
}

// AddExpr добавляет все слагаемые другого выражения
func (e *LinExpr) AddExpr(other *LinExpr) *LinExpr {
	if other == nil {
		return e
	}
	e.Terms = append(e.Terms, other.Terms...)
	e.Constant += other.Constant
	return e
}

// Scale умножает выражение на factor
func (e *LinExpr) Scale(factor float64) *LinExpr {
	for i := range e.Terms {
		e.Terms[i].Coef *= factor
	}
	e.Constant *= factor
	return e
}

// Canonical возвращает выражение со слитыми повторами переменных
// в порядке их первого появления. Слагаемые с нулевым итоговым
// коэффициентом отбрасываются.
func (e *LinExpr) Canonical() *LinExpr {
	coefs := make(map[int]float64, len(e.Terms))
	order := make([]*Var, 0, len(e.Terms))
	for _, t := range e.Terms {
		if _, seen := coefs[t.Var.Index]; !seen {
			order = append(order, t.Var)
		}
		coefs[t.Var.Index] += t.Coef
	}
	out := &LinExpr{Constant: e.Constant, Terms: make([]Term, 0, len(order))}
	for _, v := range order {
		if c := coefs[v.Index]; c != 0 {
			out.Terms = append(out.Terms, Term{Var: v, Coef: c})
		}
	}
	return out
}

// Eval вычисляет значение выражения на решении values (индекс переменной -> значение)
func (e *LinExpr) Eval(values []float64) float64 {
	total := e.Constant
	for _, t := range e.Terms {
		if t.Var.Index < len(values) {
			total += t.Coef * values[t.Var.Index]
		}
	}
	return total
}
