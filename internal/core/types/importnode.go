package types

// ImportNode is produced per source file by the Import Graph's extraction
// step (§3, §4.F). Symbols uses the literal "*" to mean the whole
// namespace and "default" to mean the default export binding.
type ImportNode struct {
	File    string
	Imports []string            // raw import strings, in source order
	Symbols map[string][]string // raw import string -> imported symbol names
	Exports []string            // exported symbol names
}
