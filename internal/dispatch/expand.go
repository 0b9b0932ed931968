package dispatch

import "os"

// ExpandVars substitutes $VAR and ${VAR} in template using vars, falling back
// to the process environment. Unknown variables expand to "".
func ExpandVars(template string, vars map[string]string) string {
	return os.Expand(template, func(key string) string {
		if v, ok := vars[key]; ok {
			return v
		}
		return os.Getenv(key)
	})
}
