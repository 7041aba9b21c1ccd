package recipe

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/kiln/internal/ir"
)

// Rule maps items whose identifier matches Pattern to a recipe for the rep
// named RepName.
type Rule struct {
	Pattern string
	RepName string
	Recipe  ir.Recipe
	Pos     token.Pos

	glob *Glob
}

// Matches reports whether the rule applies to identifier.
func (r *Rule) Matches(identifier string) bool {
	return r.glob.Match(identifier)
}

// CompileError reports an invalid rule, with the CUE position when known.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// stepKinds lists the step discriminator fields.
var stepKinds = []string{"filter", "layout", "snapshot", "write"}

// CompileRule parses one rule struct.
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`{pattern: "/*.md", steps: [{write: ""}]}`)
//	rule, err := CompileRule(v)
func CompileRule(v cue.Value) (*Rule, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	rule := &Rule{RepName: ir.DefaultRepName, Pos: v.Pos()}

	patternVal := v.LookupPath(cue.ParsePath("pattern"))
	if !patternVal.Exists() {
		return nil, &CompileError{Field: "pattern", Message: "pattern is required", Pos: v.Pos()}
	}
	pattern, err := patternVal.String()
	if err != nil {
		return nil, &CompileError{Field: "pattern", Message: "pattern must be a string", Pos: patternVal.Pos()}
	}
	glob, err := CompileGlob(pattern)
	if err != nil {
		return nil, &CompileError{Field: "pattern", Message: err.Error(), Pos: patternVal.Pos()}
	}
	rule.Pattern = pattern
	rule.glob = glob

	if repVal := v.LookupPath(cue.ParsePath("rep")); repVal.Exists() {
		name, err := repVal.String()
		if err != nil || name == "" {
			return nil, &CompileError{Field: "rep", Message: "rep must be a non-empty string", Pos: repVal.Pos()}
		}
		rule.RepName = name
	}

	stepsVal := v.LookupPath(cue.ParsePath("steps"))
	if !stepsVal.Exists() {
		return nil, &CompileError{Field: "steps", Message: "steps is required", Pos: v.Pos()}
	}
	iter, err := stepsVal.List()
	if err != nil {
		return nil, &CompileError{Field: "steps", Message: "steps must be a list", Pos: stepsVal.Pos()}
	}
	for iter.Next() {
		step, err := compileStep(iter.Value())
		if err != nil {
			return nil, err
		}
		rule.Recipe = append(rule.Recipe, step)
	}

	if err := rule.Recipe.Validate(ir.NewRepKey(pattern, rule.RepName)); err != nil {
		return nil, &CompileError{Field: "snapshot", Message: err.Error(), Pos: stepsVal.Pos()}
	}

	return rule, nil
}

// compileStep parses a single step struct.
func compileStep(v cue.Value) (ir.Step, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	var kind string
	var kindVal cue.Value
	for _, k := range stepKinds {
		fv := v.LookupPath(cue.ParsePath(k))
		if !fv.Exists() {
			continue
		}
		if kind != "" {
			return nil, &CompileError{
				Field:   "step",
				Message: fmt.Sprintf("step declares both %q and %q", kind, k),
				Pos:     v.Pos(),
			}
		}
		kind, kindVal = k, fv
	}
	if kind == "" {
		return nil, &CompileError{
			Field:   "step",
			Message: "step must declare one of filter, layout, snapshot, write",
			Pos:     v.Pos(),
		}
	}

	args, err := parseArgs(v)
	if err != nil {
		return nil, err
	}
	if args != nil && (kind == "snapshot" || kind == "write") {
		return nil, &CompileError{Field: "args", Message: kind + " steps take no args", Pos: v.Pos()}
	}

	if kind == "write" && kindVal.Kind() == cue.NullKind {
		return ir.Write(""), nil
	}
	name, err := kindVal.String()
	if err != nil {
		return nil, &CompileError{Field: kind, Message: kind + " must be a string", Pos: kindVal.Pos()}
	}

	switch kind {
	case "filter":
		if name == "" {
			return nil, &CompileError{Field: kind, Message: "filter name is required", Pos: kindVal.Pos()}
		}
		return ir.Filter(name, args), nil
	case "layout":
		if name == "" {
			return nil, &CompileError{Field: kind, Message: "layout name is required", Pos: kindVal.Pos()}
		}
		return ir.ApplyLayout(name, args), nil
	case "snapshot":
		if name == "" {
			return nil, &CompileError{Field: kind, Message: "snapshot name is required", Pos: kindVal.Pos()}
		}
		return ir.Snapshot(name), nil
	default:
		return ir.Write(name), nil
	}
}

// parseArgs decodes the optional args struct.
func parseArgs(v cue.Value) (map[string]any, error) {
	argsVal := v.LookupPath(cue.ParsePath("args"))
	if !argsVal.Exists() {
		return nil, nil
	}
	if argsVal.IncompleteKind() != cue.StructKind {
		return nil, &CompileError{Field: "args", Message: "args must be a struct", Pos: argsVal.Pos()}
	}
	var args map[string]any
	if err := argsVal.Decode(&args); err != nil {
		return nil, formatCUEError(err)
	}
	return args, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
