package analysis

// Result is implemented by every procedure's output record so the
// transport and export layers can dispatch on the result kind without
// inspecting concrete types.
type Result interface {
	Kind() string
}
