package main

import (
	"fmt"
	"strings"

	"github.com/newtron-network/cmdref/pkg/cmdref"
)

// parseArgs turns key=value words into template args. A value containing
// commas becomes a list, which renders space-separated.
func parseArgs(words []string) (cmdref.Args, error) {
	args := cmdref.Args{}
	for _, w := range words {
		key, value, ok := strings.Cut(w, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("argument %q: expected key=value", w)
		}
		args[key] = parseValue(value)
	}
	return args, nil
}

func parseValue(s string) any {
	if strings.Contains(s, ",") {
		return strings.Split(s, ",")
	}
	return s
}
