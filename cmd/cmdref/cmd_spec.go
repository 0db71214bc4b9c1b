package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/newtron-network/cmdref/pkg/cli"
	"github.com/newtron-network/cmdref/pkg/cmdref"
)

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "List loaded features",
	Long: `List loaded features. With -p, features excluded on the platform are
marked.

Examples:
  cmdref features
  cmdref -p N3K-C3064PQ features`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names := app.registry.Features()
		if app.jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(names)
		}

		t := cli.NewTable("FEATURE", "PROPERTIES", "PLATFORM")
		for _, name := range names {
			f, err := app.registry.Feature(name)
			if err != nil {
				return err
			}
			status := "-"
			if app.platform != "" {
				status = green("supported")
				if pat, ok := f.Excluded(app.platform); ok {
					status = red("excluded by " + pat)
				}
			}
			t.Row(name, fmt.Sprint(len(f.Properties())), status)
		}
		t.Flush()
		return nil
	},
}

var propertiesCmd = &cobra.Command{
	Use:   "properties <feature>",
	Short: "List a feature's properties",
	Long: `List a feature's properties and what each can do on the platform.

Examples:
  cmdref -p N7K-C7010 properties vpc`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		platform, err := requirePlatform()
		if err != nil {
			return err
		}
		f, err := app.registry.Feature(args[0])
		if err != nil {
			return err
		}

		type row struct {
			Property string `json:"property"`
			Kind     string `json:"kind,omitempty"`
			Get      bool   `json:"get"`
			Set      bool   `json:"set"`
			Default  string `json:"default,omitempty"`
			Excluded bool   `json:"excluded,omitempty"`
		}
		var rows []row
		for _, name := range f.Properties() {
			rule, err := f.Resolve(name, platform)
			if err != nil {
				rows = append(rows, row{Property: name, Excluded: true})
				continue
			}
			rows = append(rows, row{
				Property: name,
				Kind:     string(rule.Kind),
				Get:      rule.Queryable(),
				Set:      rule.Settable(),
				Default:  rule.Default.String(),
			})
		}

		if app.jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(rows)
		}
		t := cli.NewTable("PROPERTY", "KIND", "GET", "SET", "DEFAULT")
		for _, r := range rows {
			if r.Excluded {
				t.Row(r.Property, "-", "-", "-", red("excluded"))
				continue
			}
			t.Row(r.Property, r.Kind, yesNo(r.Get), yesNo(r.Set), r.Default)
		}
		t.Flush()
		return nil
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <feature> <property>",
	Short: "Show the effective rule for the platform",
	Long: `Show the rule that results from layering the feature template, the
property, and the first platform variant that matches.

Examples:
  cmdref -p N7K-C7010 resolve vpc auto_recovery
  cmdref -p N3K-C3064PQ resolve vpc auto_recovery --json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		platform, err := requirePlatform()
		if err != nil {
			return err
		}
		rule, err := app.registry.Resolve(args[0], args[1], platform)
		if err != nil {
			return err
		}

		if app.jsonOutput {
			def, _ := rule.Default.Get()
			return json.NewEncoder(os.Stdout).Encode(map[string]any{
				"feature":       rule.Feature,
				"property":      rule.Property,
				"platform":      rule.Platform,
				"variant":       rule.Variant,
				"kind":          rule.Kind,
				"multiple":      rule.Multiple,
				"default":       def,
				"query_command": rule.QueryCommand,
				"query_pattern": rule.QueryPattern,
				"set_commands":  rule.SetCommands,
			})
		}

		fmt.Printf("%s.%s on %s\n\n", bold(rule.Feature), bold(rule.Property), rule.Platform)
		t := cli.NewTable("FIELD", "VALUE")
		variant := rule.Variant
		if variant == "" {
			variant = "(base)"
		}
		t.Row("variant", variant)
		t.Row("kind", string(rule.Kind))
		t.Row("multiple", fmt.Sprint(rule.Multiple))
		t.Row("default", rule.Default.String())
		t.Row("config_get", strings.Join(rule.QueryCommand, " ; "))
		for i, p := range rule.QueryPattern {
			t.Row(fmt.Sprintf("config_get_token[%d]", i), p)
		}
		for i, c := range rule.SetCommands {
			t.Row(fmt.Sprintf("config_set[%d]", i), c)
		}
		t.Flush()
		return nil
	},
}

var synthCmd = &cobra.Command{
	Use:   "synth <feature> <property> [key=value ...]",
	Short: "Render a property's set commands",
	Long: `Render a property's set commands with the given args. Use state=no to
render the negated form.

Examples:
  cmdref -p N7K-C7010 synth bgp router_id asnum=65000 router_id=1.1.1.1
  cmdref -p N7K-C7010 synth bgp timer_bgp_keepalive_hold state=no asnum=65000`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		platform, err := requirePlatform()
		if err != nil {
			return err
		}
		rule, err := app.registry.Resolve(args[0], args[1], platform)
		if err != nil {
			return err
		}
		tmplArgs, err := parseArgs(args[2:])
		if err != nil {
			return err
		}
		cmds, err := cmdref.Synthesize(rule, tmplArgs)
		if err != nil {
			return err
		}
		for _, c := range cmds {
			fmt.Println(c)
		}
		return nil
	},
}

var extractFile string

var extractCmd = &cobra.Command{
	Use:   "extract <feature> <property> [key=value ...]",
	Short: "Extract a property from saved show output",
	Long: `Extract a property's value from show output read from --file or stdin.
Args fill placeholders in the property's patterns.

Examples:
  cmdref -p N7K-C7010 extract bgp router_id asnum=65000 -f running.txt
  ssh sw1 'show running bgp' | cmdref -p N7K-C7010 extract bgp neighbors asnum=65000`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		platform, err := requirePlatform()
		if err != nil {
			return err
		}
		rule, err := app.registry.Resolve(args[0], args[1], platform)
		if err != nil {
			return err
		}
		tmplArgs, err := parseArgs(args[2:])
		if err != nil {
			return err
		}
		bound, err := rule.Bind(tmplArgs)
		if err != nil {
			return err
		}

		var raw []byte
		if extractFile == "" || extractFile == "-" {
			raw, err = io.ReadAll(os.Stdin)
		} else {
			raw, err = os.ReadFile(extractFile)
		}
		if err != nil {
			return fmt.Errorf("reading output: %w", err)
		}

		v, err := cmdref.Extract(bound, string(raw))
		if err != nil {
			return err
		}
		return printValue(v)
	},
}

func init() {
	extractCmd.Flags().StringVarP(&extractFile, "file", "f", "", "File holding show output (default stdin)")
}

func printValue(v any) error {
	if app.jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(v)
	}
	fmt.Println(cli.FormatValue(v))
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}
