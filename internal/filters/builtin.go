package filters

import (
	"strings"
	"text/template"
)

var builtins = map[string]Filter{
	"template": Template,
	"identity": func(_ Context, content string, _ map[string]any) (string, error) {
		return content, nil
	},
	"upcase": func(_ Context, content string, _ map[string]any) (string, error) {
		return strings.ToUpper(content), nil
	},
	"downcase": func(_ Context, content string, _ map[string]any) (string, error) {
		return strings.ToLower(content), nil
	},
	"trim": func(_ Context, content string, _ map[string]any) (string, error) {
		return strings.TrimSpace(content), nil
	},
}

// Template evaluates content as a text/template.
//
// The data is ctx.Assigns(). Functions:
//
//	compiled "<rep>"             compiled content of another rep
//	compiledAt "<rep>" "<snap>"  content of another rep at a snapshot
//	rawPath "<rep>"              output path of another rep
//	attr "<key>"                 attribute of the current item
//
// Args: "name" sets the template name used in error messages.
func Template(ctx Context, content string, args map[string]any) (string, error) {
	name := ctx.Rep().String()
	if n, ok := args["name"].(string); ok && n != "" {
		name = n
	}

	tmpl, err := template.New(name).
		Option("missingkey=zero").
		Funcs(template.FuncMap{
			"compiled":   ctx.Compiled,
			"compiledAt": ctx.CompiledAt,
			"rawPath":    ctx.RawPath,
			"attr":       ctx.Item().Attribute,
		}).
		Parse(content)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, ctx.Assigns()); err != nil {
		return "", err
	}
	return sb.String(), nil
}
