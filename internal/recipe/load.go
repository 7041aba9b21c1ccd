package recipe

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// Rules is the ordered rule list of a site.
type Rules []*Rule

// LoadError reports a rules source that could not be read or built.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading rules %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load reads rules from path. A directory is loaded as a CUE package;
// a file is compiled on its own.
func Load(path string) (Rules, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	ctx := cuecontext.New()
	var value cue.Value
	if info.IsDir() {
		instances := load.Instances([]string{"."}, &load.Config{Dir: path})
		if len(instances) == 0 {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("no CUE instances loaded")}
		}
		inst := instances[0]
		if inst.Err != nil {
			return nil, &LoadError{Path: path, Err: inst.Err}
		}
		value = ctx.BuildInstance(inst)
	} else {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, &LoadError{Path: path, Err: err}
		}
		value = ctx.CompileBytes(src, cue.Filename(path))
	}

	return FromValue(value)
}

// Parse compiles rules from CUE source. filename is used in positions.
func Parse(filename, src string) (Rules, error) {
	ctx := cuecontext.New()
	return FromValue(ctx.CompileString(src, cue.Filename(filename)))
}

// FromValue extracts the rules list from a built CUE value.
func FromValue(value cue.Value) (Rules, error) {
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	rulesVal := value.LookupPath(cue.ParsePath("rules"))
	if !rulesVal.Exists() {
		return nil, &CompileError{Field: "rules", Message: "rules is required", Pos: value.Pos()}
	}
	iter, err := rulesVal.List()
	if err != nil {
		return nil, &CompileError{Field: "rules", Message: "rules must be a list", Pos: rulesVal.Pos()}
	}

	var rules Rules
	for iter.Next() {
		rule, err := CompileRule(iter.Value())
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
