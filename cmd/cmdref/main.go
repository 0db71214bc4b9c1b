// cmdref - command reference resolution for multi-platform switch CLIs
//
// Feature documents describe, per platform, how to read a property from a
// switch (show command + patterns) and how to write it (config commands).
// cmdref resolves those documents for a platform and drives a device with
// the result.
//
//	cmdref -p <platform> <verb> <feature> <property> [key=value ...] [-x]
//
// Offline verbs (no device):
//
//	features            - List loaded features
//	properties          - List a feature's properties on a platform
//	resolve             - Show the effective rule
//	synth               - Render set commands
//	extract             - Parse saved show output
//
// Device verbs (--host selects the device):
//
//	get                 - Read a property
//	set                 - Send set commands with explicit args
//	apply               - Make a property equal a value (idempotent)
//	enable              - Enable a feature
//
// Write verbs preview by default; use -x to execute.
//
// Examples:
//
//	cmdref -p N7K-C7010 resolve bgp router_id
//	cmdref -p N7K-C7010 synth bgp timer_bgp_keepalive_hold state=no asnum=65000
//	cmdref -p N7K-C7010 --host sw1 get bgp router_id asnum=65000
//	cmdref -p N7K-C7010 --host sw1 apply bgp router_id 1.1.1.1 asnum=65000 -x
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/newtron-network/cmdref/pkg/audit"
	"github.com/newtron-network/cmdref/pkg/cli"
	"github.com/newtron-network/cmdref/pkg/cmdref"
	"github.com/newtron-network/cmdref/pkg/cmdref/specs"
	"github.com/newtron-network/cmdref/pkg/settings"
	"github.com/newtron-network/cmdref/pkg/util"
	"github.com/newtron-network/cmdref/pkg/version"
)

// App holds global flags and state shared by commands.
type App struct {
	platform    string
	specDir     string
	transport   string
	host        string
	port        int
	user        string
	executeMode bool
	verbose     bool
	logJSON     bool
	jsonOutput  bool

	settings *settings.Settings
	registry *cmdref.Registry
}

var app = &App{}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "cmdref",
	Short:             "Command reference resolution for switch CLIs",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `cmdref resolves per-platform feature documents into the commands that
read and write a property, and drives a device with them.

Write commands preview changes by default; use -x to execute.

  cmdref -p <platform> <verb> <feature> <property> [key=value ...] [-x]`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if app.verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("warn")
		}
		if app.logJSON {
			util.SetJSONFormat()
		}

		if isSettingsOrHelp(cmd) {
			return nil
		}

		var err error
		app.settings, err = settings.Load()
		if err != nil {
			util.Warnf("Could not load settings: %v", err)
			app.settings = &settings.Settings{}
		}

		if app.platform == "" {
			app.platform = app.settings.DefaultPlatform
		}
		if app.specDir == "" {
			app.specDir = app.settings.SpecDir
		}
		if app.transport == "" {
			app.transport = app.settings.GetTransport()
		}
		if app.user == "" {
			app.user = app.settings.Username
		}

		app.registry, err = specs.NewRegistry()
		if err != nil {
			return fmt.Errorf("loading built-in features: %w", err)
		}
		if app.specDir != "" {
			if err := app.registry.LoadDir(app.specDir); err != nil {
				return fmt.Errorf("loading features: %w", err)
			}
		}

		auditLogger, err := audit.NewFileLogger(app.settings.GetAuditLog(), audit.RotationConfig{
			MaxSize:    10 * 1024 * 1024, // 10MB
			MaxBackups: 10,
		})
		if err != nil {
			util.Warnf("Could not initialize audit logging: %v", err)
		} else {
			audit.SetDefaultLogger(auditLogger)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&app.platform, "platform", "p", "", "Platform identifier, e.g. N7K-C7010")
	rootCmd.PersistentFlags().StringVarP(&app.specDir, "specs", "S", "", "Directory of feature documents (overrides built-ins)")
	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&app.logJSON, "log-json", false, "Log in JSON format")

	for _, cmd := range []*cobra.Command{getCmd, setCmd, applyCmd, enableCmd} {
		cmd.Flags().StringVar(&app.host, "host", "", "Device address (or sim device name)")
		cmd.Flags().IntVar(&app.port, "port", 0, "Device port (default 22)")
		cmd.Flags().StringVarP(&app.user, "user", "u", "", "Login user")
		cmd.Flags().StringVar(&app.transport, "transport", "", "Transport: ssh, scrapli or sim")
	}
	for _, cmd := range []*cobra.Command{setCmd, applyCmd, enableCmd} {
		cmd.Flags().BoolVarP(&app.executeMode, "execute", "x", false, "Execute changes (default is dry-run)")
	}
	for _, cmd := range []*cobra.Command{featuresCmd, propertiesCmd, resolveCmd, extractCmd, getCmd, auditListCmd} {
		cmd.Flags().BoolVar(&app.jsonOutput, "json", false, "JSON output")
	}

	rootCmd.AddGroup(
		&cobra.Group{ID: "spec", Title: "Feature Documents:"},
		&cobra.Group{ID: "device", Title: "Device Operations:"},
		&cobra.Group{ID: "meta", Title: "Configuration & Meta:"},
	)
	for _, cmd := range []*cobra.Command{featuresCmd, propertiesCmd, resolveCmd, synthCmd, extractCmd} {
		cmd.GroupID = "spec"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{getCmd, setCmd, applyCmd, enableCmd} {
		cmd.GroupID = "device"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{settingsCmd, auditCmd, versionCmd} {
		cmd.GroupID = "meta"
		rootCmd.AddCommand(cmd)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Info())
	},
}

// requirePlatform ensures a platform is selected via -p or settings.
func requirePlatform() (string, error) {
	if app.platform == "" {
		return "", fmt.Errorf("platform required: use -p <platform> or 'cmdref settings set default_platform <platform>'")
	}
	return app.platform, nil
}

func printDryRunNotice() {
	if !app.executeMode {
		fmt.Println("\n" + yellow("DRY-RUN: No changes applied. Use -x to execute."))
	}
}

// isSettingsOrHelp checks whether cmd (or any ancestor) is a settings, help, or version command.
func isSettingsOrHelp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "version", "settings":
			return true
		}
	}
	return false
}

func green(s string) string  { return cli.Green(s) }
func yellow(s string) string { return cli.Yellow(s) }
func red(s string) string    { return cli.Red(s) }
func bold(s string) string   { return cli.Bold(s) }
