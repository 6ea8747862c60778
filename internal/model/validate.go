package model

import "fmt"

type field struct {
	name  string
	value float64
}

func nonNegative(fields ...field) error {
	for _, f := range fields {
		if f.value < 0 {
			return fmt.Errorf("%s must not be negative, got %v", f.name, f.value)
		}
	}
	return nil
}
