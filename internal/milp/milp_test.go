package milp

import (
	"math"
	"strings"
	"testing"
)

func TestModel_AddVars(t *testing.T) {
	m := NewModel("test")
	x := m.AddNonNegative("x")
	y := m.AddInteger("y", 0, 10)
	z := m.AddBinary("z")

	if m.NumVars() != 3 {
		t.Fatalf("NumVars() = %d, want 3", m.NumVars())
	}
	if m.NumIntegerVars() != 2 {
		t.Errorf("NumIntegerVars() = %d, want 2", m.NumIntegerVars())
	}
	if x.Index != 0 || y.Index != 1 || z.Index != 2 {
		t.Errorf("unexpected indices: %d %d %d", x.Index, y.Index, z.Index)
	}
	if !math.IsInf(x.Upper, 1) {
		t.Errorf("x.Upper = %g, want +inf", x.Upper)
	}
	if z.Kind != Binary || z.Lower != 0 || z.Upper != 1 {
		t.Errorf("binary var has wrong shape: %+v", z)
	}
}

func TestModel_AddVarIdempotent(t *testing.T) {
	m := NewModel("test")
	a := m.AddNonNegative("x")
	b := m.AddNonNegative("x")
	if a != b {
		t.Error("repeated AddNonNegative with same name must return the same variable")
	}
	if m.NumVars() != 1 {
		t.Errorf("NumVars() = %d, want 1", m.NumVars())
	}
}

func TestModel_LPNameCollision(t *testing.T) {
	m := NewModel("test")
	a := m.AddNonNegative("Prod P1,T1")
	b := m.AddNonNegative("Prod P1.T1")
	if a.LPName == b.LPName {
		t.Fatalf("sanitized names collide: %q", a.LPName)
	}
	got, ok := m.VarByLPName(b.LPName)
	if !ok || got != b {
		t.Error("VarByLPName must resolve the deduplicated name")
	}
}

func TestModel_Fix(t *testing.T) {
	m := NewModel("test")
	x := m.AddNonNegative("x")
	m.Fix(x, 0)
	if !x.IsFixed() || x.Upper != 0 {
		t.Errorf("fixed var has bounds [%g, %g]", x.Lower, x.Upper)
	}
}

func TestLinExpr_Canonical(t *testing.T) {
	m := NewModel("test")
	x := m.AddNonNegative("x")
	y := m.AddNonNegative("y")

	e := NewExpr().Add(2, x).Add(3, y).Add(-2, x).Add(1, y)
	c := e.Canonical()

	if len(c.Terms) != 1 {
		t.Fatalf("Canonical() kept %d terms, want 1", len(c.Terms))
	}
	if c.Terms[0].Var != y || c.Terms[0].Coef != 4 {
		t.Errorf("merged term = %g * %s, want 4 * y", c.Terms[0].Coef, c.Terms[0].Var.Name)
	}
}

func TestLinExpr_Eval(t *testing.T) {
	m := NewModel("test")
	x := m.AddNonNegative("x")
	y := m.AddNonNegative("y")

	e := NewExpr().Add(2, x).Add(3, y).AddConst(5)
	got := e.Eval([]float64{10, 1})
	if got != 28 {
		t.Errorf("Eval = %g, want 28", got)
	}
}

func TestLinExpr_ZeroCoefSkipped(t *testing.T) {
	m := NewModel("test")
	x := m.AddNonNegative("x")
	e := NewExpr().Add(0, x)
	if len(e.Terms) != 0 {
		t.Error("zero coefficient must not produce a term")
	}
}

func TestModel_Validate(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Model
		ok    bool
	}{
		{
			name:  "empty model",
			build: func() *Model { return NewModel("m") },
			ok:    false,
		},
		{
			name: "inverted bounds",
			build: func() *Model {
				m := NewModel("m")
				m.AddContinuous("x", 5, 1)
				return m
			},
			ok: false,
		},
		{
			name: "empty constraint",
			build: func() *Model {
				m := NewModel("m")
				m.AddNonNegative("x")
				m.AddConstraint("c", NewExpr(), LE, 1)
				return m
			},
			ok: false,
		},
		{
			name: "valid",
			build: func() *Model {
				m := NewModel("m")
				x := m.AddNonNegative("x")
				m.AddConstraint("c", NewExpr().Add(1, x), LE, 1)
				return m
			},
			ok: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build().Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() error = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestWriteLP(t *testing.T) {
	m := NewModel("plan")
	x := m.AddNonNegative("x")
	y := m.AddInteger("y", 0, 10)
	u := m.AddBinary("u")
	f := m.AddContinuous("f", 3, 3)

	m.SetObjective(NewExpr().Add(2.5, x).Add(100, y))
	m.AddConstraint("cap", NewExpr().Add(1, x).Add(-20, y), LE, 0)
	m.AddConstraint("link", NewExpr().Add(1, y).Add(-10000, u), LE, 0)
	m.AddConstraint("fix_use", NewExpr().Add(1, f), EQ, 3)

	var sb strings.Builder
	if err := m.WriteLP(&sb); err != nil {
		t.Fatalf("WriteLP() error = %v", err)
	}
	out := sb.String()

	for _, want := range []string{
		"Minimize",
		" obj: 2.5 x + 100 y",
		"Subject To",
		" cap: x - 20 y <= 0",
		" link: y - 10000 u <= 0",
		"Bounds",
		" 0 <= y <= 10",
		" f = 3",
		"General\n y",
		"Binary\n u",
		"End",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("LP output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, " x >= 0") {
		t.Error("default non-negative bound must be omitted")
	}
}

func TestWriteLP_ConstantFoldedIntoRHS(t *testing.T) {
	m := NewModel("plan")
	x := m.AddNonNegative("x")
	m.SetObjective(NewExpr().Add(1, x))
	m.AddConstraint("bal", NewExpr().Add(1, x).AddConst(50), GE, 120)

	var sb strings.Builder
	if err := m.WriteLP(&sb); err != nil {
		t.Fatalf("WriteLP() error = %v", err)
	}
	if !strings.Contains(sb.String(), " bal: x >= 70") {
		t.Errorf("expression constant must move to the right-hand side:\n%s", sb.String())
	}
}

func TestSanitizeLPName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Prod P1,T1", "Prod_P1_T1"},
		{"Ship[A->B|Rail]", "Ship_A__B_Rail_"},
		{"2024-01", "v2024_01"},
		{"", "_"},
	}
	for _, tt := range tests {
		if got := sanitizeLPName(tt.in); got != tt.want {
			t.Errorf("sanitizeLPName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
