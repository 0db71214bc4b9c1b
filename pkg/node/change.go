package node

import (
	"fmt"
	"strings"

	"github.com/newtron-network/cmdref/pkg/audit"
	"github.com/newtron-network/cmdref/pkg/cmdref"
)

// Change is a planned property update: the commands that would bring the
// device from Current to Want. An empty change means the device already
// holds the wanted value.
type Change struct {
	Feature  string
	Property string
	Op       audit.EventType
	Args     cmdref.Args
	Current  any
	Want     any
	Commands []string
}

// IsEmpty reports whether the change sends nothing.
func (c *Change) IsEmpty() bool {
	return c == nil || len(c.Commands) == 0
}

func (c *Change) String() string {
	if c.IsEmpty() {
		return "  (no changes)\n"
	}
	var b strings.Builder
	for _, cmd := range c.Commands {
		fmt.Fprintf(&b, "  %s\n", cmd)
	}
	return b.String()
}
