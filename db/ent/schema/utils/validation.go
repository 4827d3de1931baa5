package utils

import "fmt"

// EnumValidator restricts a string field to a fixed set of values.
func EnumValidator(allowed ...string) func(string) error {
	set := make(map[string]struct{}, len(allowed))
	for _, v := range allowed {
		set[v] = struct{}{}
	}
	return func(s string) error {
		if _, ok := set[s]; !ok {
			return fmt.Errorf("value %q is not allowed", s)
		}
		return nil
	}
}
