package command

// Param is one invocation argument. An empty Name makes it positional.
type Param struct {
	Name  string
	Value string
}

// Positional creates an unnamed parameter.
func Positional(value string) Param {
	return Param{Value: value}
}

// Named creates a "name=value" parameter.
func Named(name, value string) Param {
	return Param{Name: name, Value: value}
}

// Render returns the parameter as it appears inside an invocation.
func (p Param) Render() string {
	if p.Name == "" {
		return p.Value
	}
	return p.Name + paramNameSeparator + p.Value
}
