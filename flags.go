package mapf

import (
	"fmt"
	"strconv"
	"strings"
)

// ArrayStringFlags collects repeated string flag values.
type ArrayStringFlags []string

func (f *ArrayStringFlags) String() string {
	return strings.Join(*f, ",")
}

func (f *ArrayStringFlags) Set(value string) error {
	*f = append(*f, value)
	return nil
}

// ArrayIntFlags collects repeated integer flag values.
type ArrayIntFlags []int

func (f *ArrayIntFlags) String() string {
	parts := make([]string, len(*f))
	for i, v := range *f {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func (f *ArrayIntFlags) Set(value string) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("not an integer: %s", value)
	}
	*f = append(*f, v)
	return nil
}
