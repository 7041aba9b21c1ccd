// Package recipe loads site rules from CUE and resolves them into reps.
//
// A rules source declares an ordered list of rules:
//
//	rules: [
//		{pattern: "/**/*.md", steps: [
//			{filter: "template"},
//			{layout: "/default.html"},
//			{write: ""},
//		]},
//		{pattern: "/**/*.md", rep: "raw", steps: [{write: "/raw/page.txt"}]},
//	]
//
// Each step names exactly one of filter, layout, snapshot or write. Filter
// and layout steps take optional args. An empty write path lets the router
// pick the output path.
//
// Resolution walks items in order and applies every rule in declaration
// order; the first rule matching an (item, rep name) pair wins.
package recipe
