package outdated

import (
	"github.com/roach88/kiln/internal/ir"
)

// Reason names why a rep is outdated.
type Reason string

const (
	NotEnoughData          Reason = "NotEnoughData"
	ContentModified        Reason = "ContentModified"
	AttributesModified     Reason = "AttributesModified"
	RecipeModified         Reason = "RecipeModified"
	LayoutModified         Reason = "LayoutModified"
	CompiledContentMissing Reason = "CompiledContentMissing"
	OutputMissing          Reason = "OutputMissing"
	DependencyOutdated     Reason = "DependencyOutdated"
)

// rule is one outdatedness predicate. Rules are evaluated in order.
type rule struct {
	reason Reason
	check  func(c *check, rep *ir.Rep) (bool, error)
}

var rules = []rule{
	{NotEnoughData, func(c *check, rep *ir.Rep) (bool, error) {
		if c.prior == nil {
			return true, nil
		}
		_, ok := c.prior.Checksums[recipeSubject(rep.Key)]
		return !ok, nil
	}},
	{ContentModified, func(c *check, rep *ir.Rep) (bool, error) {
		return c.changed(contentSubject(rep.Item.Identifier)), nil
	}},
	{AttributesModified, func(c *check, rep *ir.Rep) (bool, error) {
		return c.changed(attributesSubject(rep.Item.Identifier)), nil
	}},
	{RecipeModified, func(c *check, rep *ir.Rep) (bool, error) {
		return c.changed(recipeSubject(rep.Key)), nil
	}},
	{LayoutModified, func(c *check, rep *ir.Rep) (bool, error) {
		if c.checker.Layouts == nil {
			return false, nil
		}
		for _, id := range usedLayouts(rep, c.checker.Layouts) {
			if c.changed(layoutSubject(id)) {
				return true, nil
			}
		}
		return false, nil
	}},
	{CompiledContentMissing, func(c *check, rep *ir.Rep) (bool, error) {
		if c.checker.Snapshots == nil {
			return false, nil
		}
		ok, err := c.checker.Snapshots.IsCompiled(rep.Key)
		return !ok, err
	}},
	{OutputMissing, func(c *check, rep *ir.Rep) (bool, error) {
		if c.checker.OutputPaths == nil || c.checker.Exists == nil {
			return false, nil
		}
		for _, p := range c.checker.OutputPaths(rep) {
			if !c.checker.Exists(p) {
				return true, nil
			}
		}
		return false, nil
	}},
}

// RuleNames lists the evaluated rules in order.
func RuleNames() []Reason {
	names := make([]Reason, len(rules))
	for i, r := range rules {
		names[i] = r.reason
	}
	return names
}
