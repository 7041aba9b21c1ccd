// Package filters defines the filter capability invoked by filter and
// layout steps, a name-keyed registry, and a few built-in filters.
//
// A filter receives the current textual content, its step arguments and a
// Context through which it may read other reps. Reads go through the
// compiling engine: a read of a rep that is not ready yet fails with an
// error the filter must return unchanged, and the engine retries the whole
// filter once the dependency is compiled. Filters must therefore be free of
// side effects other than their return value.
package filters
