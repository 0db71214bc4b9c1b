package device

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/newtron-network/cmdref/pkg/util"
)

// SimDevice is an in-process switch that understands enough NX-OS style CLI
// to exercise feature documents end to end:
//
//   - "show running[-config] [section]" with "| include", "| exclude" and
//     "| section" filters
//   - configuration batches where a command followed by others and closed
//     with "exit" or "end" opens a submode
//   - "no <command>" removal, where a value-less or dummy-valued negation
//     ("no router-id", "no timers bgp 0 0") removes the configured line
//     with the same keyword prefix
//
// Any other command answers with the output registered by SetOutput, or is
// rejected with a *CLIError.
type SimDevice struct {
	Name     string
	Platform string

	store    ConfigStore
	mu       sync.Mutex
	outputs  map[string]string
	gated    map[string]string
	additive map[string]bool
	history  [][]string
}

// NewSimDevice creates a simulated device backed by store. A nil store
// starts from an empty in-memory configuration.
func NewSimDevice(name, platform string, store ConfigStore) *SimDevice {
	if store == nil {
		store = NewMemoryStore()
	}
	return &SimDevice{
		Name:     name,
		Platform: platform,
		store:    store,
		outputs:  make(map[string]string),
		gated: map[string]string{
			"bgp": "feature bgp",
			"vpc": "feature vpc",
			"vni": "feature vni",
		},
		additive: map[string]bool{
			"allocate interface": true,
			"neighbor":           true,
		},
	}
}

// SetOutput registers the output of a non-"show running" command.
func (d *SimDevice) SetOutput(command, output string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.outputs[normalize(command)] = output
}

// RequireFeature makes "show running <section>" fail unless featureLine is
// configured, as NX-OS does for disabled features.
func (d *SimDevice) RequireFeature(section, featureLine string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gated[section] = featureLine
}

// Running returns the rendered running configuration.
func (d *SimDevice) Running(ctx context.Context) ([]string, error) {
	return d.store.Load(ctx)
}

// History returns every configuration batch applied so far.
func (d *SimDevice) History() [][]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][]string, len(d.history))
	for i, h := range d.history {
		out[i] = append([]string(nil), h...)
	}
	return out
}

// Query answers a show command.
func (d *SimDevice) Query(ctx context.Context, command string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	segments := strings.Split(command, "|")
	base := strings.Fields(segments[0])
	if len(base) < 2 || base[0] != "show" || !strings.HasPrefix(base[1], "run") {
		if out, ok := d.outputs[normalize(command)]; ok {
			return out, nil
		}
		return "", &CLIError{Command: command, Output: "% Invalid command at '^' marker."}
	}

	lines, err := d.store.Load(ctx)
	if err != nil {
		return "", err
	}
	if len(base) > 2 {
		if feature, ok := d.gated[base[2]]; ok && !contains(lines, feature) {
			return "", &CLIError{Command: command, Output: "% Invalid command at '^' marker."}
		}
	}

	for _, seg := range segments[1:] {
		lines, err = pipe(command, strings.TrimSpace(seg), lines)
		if err != nil {
			return "", err
		}
	}
	util.WithDevice(d.Name).Debugf("sim query %q: %d lines", command, len(lines))
	if len(lines) == 0 {
		return "", nil
	}
	return strings.Join(lines, "\n") + "\n", nil
}

// Configure applies commands to the running configuration.
func (d *SimDevice) Configure(ctx context.Context, commands []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	lines, err := d.store.Load(ctx)
	if err != nil {
		return err
	}
	root := &configLine{children: parseConfig(lines)}
	stack := []*configLine{root}

	for i, raw := range commands {
		c := normalize(raw)
		switch {
		case c == "" || isModeCommand(c):
			continue
		case c == "end":
			stack = stack[:1]
			continue
		case c == "exit":
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
			continue
		}

		scope := stack[len(stack)-1]
		nested := len(stack) > 1

		if rest, ok := strings.CutPrefix(c, "no "); ok {
			scope.remove(rest, nested)
			continue
		}

		opener := !nested && opensSubmode(commands, i)
		if n := scope.find(c); n != nil {
			if opener {
				stack = append(stack, n)
			}
			continue
		}
		if nested && !opener && !d.additive[lineKey(c)] {
			if n := scope.findLeafByKey(c); n != nil {
				n.text = c
				continue
			}
		}
		n := &configLine{text: c}
		scope.children = append(scope.children, n)
		if opener {
			stack = append(stack, n)
		}
	}

	d.history = append(d.history, append([]string(nil), commands...))
	util.WithDevice(d.Name).Debugf("sim configure %q", commands)
	return d.store.Save(ctx, renderConfig(root.children, 0))
}

// Close is a no-op; the store outlives the device.
func (d *SimDevice) Close() error {
	return nil
}

func pipe(command, seg string, lines []string) ([]string, error) {
	verb, arg, _ := strings.Cut(seg, " ")
	arg = strings.TrimSpace(arg)
	re, err := regexp.Compile(arg)
	if err != nil {
		return nil, &CLIError{Command: command, Output: "% Invalid regular expression " + arg}
	}

	var out []string
	switch verb {
	case "i", "in", "inc", "include":
		for _, l := range lines {
			if re.MatchString(l) {
				out = append(out, l)
			}
		}
	case "ex", "exc", "exclude":
		for _, l := range lines {
			if !re.MatchString(l) {
				out = append(out, l)
			}
		}
	case "sec", "section":
		keep := false
		for _, l := range lines {
			if indentOf(l) == 0 {
				keep = re.MatchString(l)
			}
			if keep {
				out = append(out, l)
			}
		}
	default:
		return nil, &CLIError{Command: command, Output: "% Invalid command at '^' marker."}
	}
	return out, nil
}

// configLine is one line of the running configuration and its submode.
type configLine struct {
	text     string
	children []*configLine
}

func (n *configLine) find(text string) *configLine {
	for _, c := range n.children {
		if c.text == text {
			return c
		}
	}
	return nil
}

func (n *configLine) findLeafByKey(text string) *configLine {
	key := lineKey(text)
	for _, c := range n.children {
		if len(c.children) == 0 && lineKey(c.text) == key {
			return c
		}
	}
	return nil
}

// remove deletes the line matching text. Inside a submode a line with the
// same keyword prefix also matches, which is how a negation carrying no
// value or a placeholder value finds the configured line.
func (n *configLine) remove(text string, byKey bool) {
	target := n.find(text)
	if target == nil && byKey {
		target = n.findLeafByKey(text)
	}
	if target == nil {
		return
	}
	for i, c := range n.children {
		if c == target {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return
		}
	}
}

func parseConfig(lines []string) []*configLine {
	type frame struct {
		indent int
		node   *configLine
	}
	root := &configLine{}
	stack := []frame{{indent: -1, node: root}}
	for _, l := range lines {
		text := strings.TrimSpace(l)
		if text == "" {
			continue
		}
		indent := indentOf(l)
		for len(stack) > 1 && stack[len(stack)-1].indent >= indent {
			stack = stack[:len(stack)-1]
		}
		n := &configLine{text: text}
		parent := stack[len(stack)-1].node
		parent.children = append(parent.children, n)
		stack = append(stack, frame{indent: indent, node: n})
	}
	return root.children
}

func renderConfig(nodes []*configLine, depth int) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, strings.Repeat("  ", depth)+n.text)
		out = append(out, renderConfig(n.children, depth+1)...)
	}
	return out
}

// lineKey returns the keywords of a line, up to its first value token.
func lineKey(text string) string {
	fields := strings.Fields(text)
	for i, f := range fields {
		if i > 0 && strings.IndexFunc(f, unicode.IsDigit) >= 0 {
			return strings.Join(fields[:i], " ")
		}
	}
	return text
}

// opensSubmode reports whether the command at i opens a submode: it starts
// a run of commands that the batch closes with "exit" or "end".
func opensSubmode(commands []string, i int) bool {
	if strings.HasPrefix(normalize(commands[i]), "no ") {
		return false
	}
	for j := i - 1; j >= 0; j-- {
		p := normalize(commands[j])
		if p == "" || isModeCommand(p) {
			continue
		}
		if p != "end" && p != "exit" {
			return false
		}
		break
	}
	children := 0
	for _, next := range commands[i+1:] {
		n := normalize(next)
		switch {
		case n == "" || isModeCommand(n):
		case n == "end" || n == "exit":
			return children > 0
		default:
			children++
		}
	}
	return false
}

func isModeCommand(c string) bool {
	return strings.HasPrefix(c, "configure") || strings.HasPrefix(c, "terminal ")
}

func indentOf(l string) int {
	return len(l) - len(strings.TrimLeft(l, " "))
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func contains(lines []string, text string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) == text {
			return true
		}
	}
	return false
}
