package guardrail

import (
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/model"
)

// ExprRule is a named CEL expression loaded from configuration.
type ExprRule struct {
	Name string `yaml:"name" mapstructure:"name"`
	Expr string `yaml:"expr" mapstructure:"expr"`
}

// Compiler compiles CEL expressions over a single map variable and caches
// the resulting programs.
type Compiler struct {
	env     *cel.Env
	varName string

	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewCompiler creates a compiler whose expressions see the entity as varName,
// a map of field name to value.
func NewCompiler(varName string) (*Compiler, error) {
	env, err := cel.NewEnv(
		cel.Variable(varName, cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, eris.Wrap(err, "guardrail: create cel env")
	}
	return &Compiler{env: env, varName: varName, programs: make(map[string]cel.Program)}, nil
}

// Program returns the compiled program for expr. Expressions must produce a
// bool (or a dynamic value checked at evaluation).
func (c *Compiler) Program(expr string) (cel.Program, error) {
	c.mu.RLock()
	prg, ok := c.programs[expr]
	c.mu.RUnlock()
	if ok {
		return prg, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if prg, ok = c.programs[expr]; ok {
		return prg, nil
	}

	ast, issues := c.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, eris.Wrapf(issues.Err(), "guardrail: compile %q", expr)
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, eris.Errorf("guardrail: expression %q yields %s, want bool", expr, out)
	}
	prg, err := c.env.Program(ast,
		cel.InterruptCheckFrequency(100),
		cel.CostLimit(10000),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "guardrail: program %q", expr)
	}
	c.programs[expr] = prg
	return prg, nil
}

// Eval runs expr against fields. Any evaluation error or non-bool result
// counts as false.
func (c *Compiler) Eval(expr string, fields map[string]any) (bool, error) {
	prg, err := c.Program(expr)
	if err != nil {
		return false, err
	}
	out, _, err := prg.Eval(map[string]any{c.varName: fields})
	if err != nil {
		return false, eris.Wrapf(err, "guardrail: eval %q", expr)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, eris.Errorf("guardrail: expression %q returned %T, want bool", expr, out.Value())
	}
	return b, nil
}

// CELRule compiles an expression rule up front and returns it as a Rule.
// The fields function exposes the entity to the expression.
func CELRule[T any](c *Compiler, r ExprRule, fields func(T) map[string]any) (Rule[T], error) {
	if r.Name == "" {
		return Rule[T]{}, eris.New("guardrail: rule name is required")
	}
	if _, err := c.Program(r.Expr); err != nil {
		return Rule[T]{}, eris.Wrapf(err, "guardrail: rule %s", r.Name)
	}
	return Rule[T]{
		Name: r.Name,
		Check: func(item T) bool {
			ok, err := c.Eval(r.Expr, fields(item))
			if err != nil {
				zap.L().Warn("guardrail: rule evaluation failed",
					zap.String("rule", r.Name),
					zap.Error(err),
				)
				return false
			}
			return ok
		},
	}, nil
}

func leadFields(l model.Lead) map[string]any { return l.Fields() }

// companyFields omits contacts, which are structs CEL cannot inspect.
func companyFields(c model.Company) map[string]any {
	fields := c.Snapshot()
	delete(fields, model.FieldContacts)
	return fields
}

// LeadRules compiles expression rules over the "lead" variable.
func LeadRules(exprs []ExprRule) ([]Rule[model.Lead], error) {
	c, err := NewCompiler("lead")
	if err != nil {
		return nil, err
	}
	rules := make([]Rule[model.Lead], 0, len(exprs))
	for _, e := range exprs {
		r, err := CELRule(c, e, leadFields)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// CompanyRules compiles expression rules over the "company" variable.
func CompanyRules(exprs []ExprRule) ([]Rule[model.Company], error) {
	c, err := NewCompiler("company")
	if err != nil {
		return nil, err
	}
	rules := make([]Rule[model.Company], 0, len(exprs))
	for _, e := range exprs {
		r, err := CELRule(c, e, companyFields)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}
