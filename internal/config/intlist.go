package config

import (
	"fmt"
	"strconv"
	"strings"
)

// IntList is a flag.Value holding a comma-separated list of integers.
type IntList []int

func (l *IntList) String() string {
	if l == nil || len(*l) == 0 {
		return ""
	}
	parts := make([]string, len(*l))
	for i, v := range *l {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// Set replaces the list with the values in s.
func (l *IntList) Set(s string) error {
	var out IntList
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return fmt.Errorf("invalid integer %q in list", part)
		}
		out = append(out, v)
	}
	*l = out
	return nil
}
