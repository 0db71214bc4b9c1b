package main

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/newtron-network/cmdref/pkg/device"
	"github.com/newtron-network/cmdref/pkg/node"
	"github.com/newtron-network/cmdref/pkg/settings"
	"github.com/newtron-network/cmdref/pkg/util"
)

const passwordEnv = "CMDREF_PASSWORD"

var simConfig string

// simTransport closes the Redis store behind a simulated device.
type simTransport struct {
	*device.SimDevice
	store *device.RedisStore
}

func (s simTransport) Close() error {
	return s.store.Close()
}

// connect opens the selected transport and wraps it in a node.
func connect(ctx context.Context) (*node.Node, error) {
	platform, err := requirePlatform()
	if err != nil {
		return nil, err
	}
	if app.host == "" {
		return nil, fmt.Errorf("device required: use --host <address>")
	}

	var t device.Transport
	switch app.transport {
	case settings.TransportSim:
		t, err = dialSim(ctx, platform)
	case settings.TransportSSH, settings.TransportScrapli:
		cfg, cerr := deviceConfig()
		if cerr != nil {
			return nil, cerr
		}
		if app.transport == settings.TransportSSH {
			t, err = device.DialSSH(ctx, cfg)
		} else {
			t, err = device.DialScrapli(ctx, cfg)
		}
	default:
		return nil, fmt.Errorf("unknown transport %q (valid: ssh, scrapli, sim)", app.transport)
	}
	if err != nil {
		return nil, err
	}

	n := node.New(app.host, platform, app.registry, t)
	n.User = loginName()
	return n, nil
}

func dialSim(ctx context.Context, platform string) (device.Transport, error) {
	var lines []string
	if simConfig != "" {
		data, err := os.ReadFile(simConfig)
		if err != nil {
			return nil, fmt.Errorf("reading sim config: %w", err)
		}
		lines = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	}

	if app.settings.RedisAddr == "" {
		return device.NewSimDevice(app.host, platform, device.NewMemoryStore(lines...)), nil
	}

	store := device.NewRedisStore(app.settings.RedisAddr, 0, app.host)
	if err := store.Connect(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("connecting to redis %s: %w", app.settings.RedisAddr, err)
	}
	if lines != nil {
		if err := store.Save(ctx, lines); err != nil {
			store.Close()
			return nil, err
		}
	}
	util.WithDevice(app.host).Debugf("sim backed by redis %s", app.settings.RedisAddr)
	return simTransport{SimDevice: device.NewSimDevice(app.host, platform, store), store: store}, nil
}

func deviceConfig() (device.Config, error) {
	cfg := device.Config{
		Host:     app.host,
		Port:     app.port,
		Username: app.user,
		Platform: app.settings.ScrapliPlatform,
		Timeout:  30 * time.Second,
		Retries:  3,
	}
	if cfg.Username == "" {
		cfg.Username = loginName()
	}

	cfg.Password = os.Getenv(passwordEnv)
	if cfg.Password == "" {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return cfg, fmt.Errorf("password required: set %s or run interactively", passwordEnv)
		}
		fmt.Fprintf(os.Stderr, "%s@%s password: ", cfg.Username, cfg.Host)
		pw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return cfg, fmt.Errorf("reading password: %w", err)
		}
		cfg.Password = string(pw)
	}
	return cfg, nil
}

func loginName() string {
	if app.user != "" {
		return app.user
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "unknown"
}

// withNode connects, runs fn, and closes the transport.
func withNode(fn func(ctx context.Context, n *node.Node) error) error {
	ctx := context.Background()
	n, err := connect(ctx)
	if err != nil {
		return err
	}
	defer n.Close()
	return fn(ctx, n)
}

// runChange prints a planned change and executes it with -x.
func runChange(ctx context.Context, n *node.Node, c *node.Change) error {
	if c.IsEmpty() {
		fmt.Printf("%s.%s: already in the wanted state\n", c.Feature, c.Property)
		return nil
	}
	fmt.Println("Changes to be applied:")
	fmt.Print(c.String())

	if !app.executeMode {
		printDryRunNotice()
		return nil
	}
	if err := n.Execute(ctx, c); err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	fmt.Println("\n" + green("Changes applied successfully."))
	return nil
}

var getOrDefault bool

var getCmd = &cobra.Command{
	Use:   "get <feature> <property> [key=value ...]",
	Short: "Read a property from the device",
	Long: `Read a property from the device. Args fill placeholders in the query.

Examples:
  cmdref -p N7K-C7010 --host sw1 get bgp router_id asnum=65000
  cmdref -p N7K-C7010 --host sw1 get vpc role_priority --or-default`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tmplArgs, err := parseArgs(args[2:])
		if err != nil {
			return err
		}
		return withNode(func(ctx context.Context, n *node.Node) error {
			var v any
			if getOrDefault {
				v, err = n.GetOrDefault(ctx, args[0], args[1], tmplArgs)
			} else {
				v, err = n.Get(ctx, args[0], args[1], tmplArgs)
			}
			if err != nil {
				return err
			}
			return printValue(v)
		})
	},
}

var setCmd = &cobra.Command{
	Use:   "set <feature> <property> [key=value ...]",
	Short: "Send a property's set commands",
	Long: `Send a property's set commands with the given args, without reading the
current value first. Use state=no for the negated form.

Examples:
  cmdref -p N7K-C7010 --host sw1 set bgp shutdown asnum=65000 -x
  cmdref -p N7K-C7010 --host sw1 set bgp shutdown asnum=65000 state=no -x`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tmplArgs, err := parseArgs(args[2:])
		if err != nil {
			return err
		}
		return withNode(func(ctx context.Context, n *node.Node) error {
			c, err := n.PlanSet(args[0], args[1], tmplArgs)
			if err != nil {
				return err
			}
			return runChange(ctx, n, c)
		})
	},
}

var applyDefault bool

var applyCmd = &cobra.Command{
	Use:   "apply <feature> <property> [value] [key=value ...]",
	Short: "Make a property equal a value",
	Long: `Read the property and send only the commands needed to make it equal the
value. Setting a property to its default negates it. A comma-separated
value sets a list or tuple property.

Examples:
  cmdref -p N7K-C7010 --host sw1 apply bgp router_id 1.1.1.1 asnum=65000 -x
  cmdref -p N7K-C7010 --host sw1 apply bgp timer_bgp_keepalive_hold 30,90 asnum=65000 keepalive=30 hold=90
  cmdref -p N7K-C7010 --host sw1 apply vpc role_priority --default domain=10 priority=0 -x`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rest := args[2:]
		var want any
		if !applyDefault {
			if len(rest) == 0 || strings.Contains(rest[0], "=") {
				return fmt.Errorf("value required (or use --default)")
			}
			want = parseValue(rest[0])
			rest = rest[1:]
		}
		tmplArgs, err := parseArgs(rest)
		if err != nil {
			return err
		}

		return withNode(func(ctx context.Context, n *node.Node) error {
			if applyDefault {
				def, ok, err := n.Default(args[0], args[1])
				if err != nil {
					return err
				}
				if ok {
					want = def
				}
			}
			c, err := n.PlanApply(ctx, args[0], args[1], want, tmplArgs)
			if err != nil {
				return err
			}
			return runChange(ctx, n, c)
		})
	},
}

var enableCmd = &cobra.Command{
	Use:   "enable <feature>",
	Short: "Enable a feature on the device",
	Long: `Enable a feature if it is disabled. Features without a "feature"
property are always enabled.

Examples:
  cmdref -p N7K-C7010 --host sw1 enable vpc -x`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withNode(func(ctx context.Context, n *node.Node) error {
			c, err := n.PlanApply(ctx, args[0], node.FeatureProperty, true, nil)
			if err != nil {
				if on, ferr := n.FeatureEnabled(ctx, args[0]); ferr == nil && on {
					fmt.Printf("%s: always enabled\n", args[0])
					return nil
				}
				return err
			}
			return runChange(ctx, n, c)
		})
	},
}

func init() {
	getCmd.Flags().BoolVar(&getOrDefault, "or-default", false, "Fall back to the default when the value is unavailable")
	applyCmd.Flags().BoolVar(&applyDefault, "default", false, "Reset the property to its default")
	for _, cmd := range []*cobra.Command{getCmd, setCmd, applyCmd, enableCmd} {
		cmd.Flags().StringVar(&simConfig, "sim-config", "", "Seed the sim transport's running config from a file")
	}
}
