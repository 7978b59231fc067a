// Command mec-deviced is a small operator/debugging front-end for the
// device access Manager: it drives configure/reconfigure/state against a
// single in-process Manager, for manual testing and scripting outside of
// the (out-of-scope) request dispatcher a real agent would embed it in.
package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/mec-project/devicemanager/internal/cgroupdriver"
	"github.com/mec-project/devicemanager/internal/deviceaccess"
	"github.com/mec-project/devicemanager/internal/devicecontroller"
	"github.com/mec-project/devicemanager/internal/devicemanager"
)

const appName = "mec-deviced"

func main() {
	app := &cli.App{
		Name:  appName,
		Usage: "inspect and drive a cgroup-v2 device access Manager",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
			&cli.StringFlag{Name: "cgroup-driver", Value: "cgroupfs", Usage: "cgroupfs or systemd"},
			&cli.BoolFlag{Name: "dry-run", Usage: "log the device filter program instead of attaching it"},
		},
		Commands: []*cli.Command{
			configureCommand(),
			reconfigureCommand(),
			stateCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func newManager(c *cli.Context) *devicemanager.Manager {
	logger := logrus.StandardLogger()
	if c.Bool("debug") {
		logger.SetLevel(logrus.DebugLevel)
	}

	var controller devicecontroller.Controller
	if c.Bool("dry-run") {
		controller = &devicecontroller.LoggingController{Logger: logger}
	} else {
		controller = devicecontroller.NewCgroupfs2Controller()
	}

	var driver cgroupdriver.Driver
	switch c.String("cgroup-driver") {
	case "systemd":
		driver = cgroupdriver.Systemd{}
	default:
		driver = cgroupdriver.Cgroupfs{}
	}

	return devicemanager.NewManager(controller, driver, devicemanager.WithLogger(logger))
}

// policyDocument is the on-disk shape for `configure --policy FILE`:
// textual device entries, parsed with deviceaccess.Parse.
type policyDocument struct {
	Allow []string `json:"allow"`
	Deny  []string `json:"deny"`
}

// diffDocument is the on-disk shape for `reconfigure --policy FILE`.
type diffDocument struct {
	Additions []string `json:"additions"`
	Removals  []string `json:"removals"`
}

func configureCommand() *cli.Command {
	return &cli.Command{
		Name:  "configure",
		Usage: "replace a cgroup's device access policy",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "cgroup", Required: true},
			&cli.StringFlag{Name: "policy", Required: true, Usage: `JSON file: {"allow": ["c 1:3 r"], "deny": ["c 3:1 w"]}`},
		},
		Action: func(c *cli.Context) error {
			var doc policyDocument
			if err := readJSONFile(c.String("policy"), &doc); err != nil {
				return err
			}

			allow, err := parseAll(doc.Allow)
			if err != nil {
				return err
			}
			denyEntries, err := parseAll(doc.Deny)
			if err != nil {
				return err
			}
			deny, err := deviceaccess.ToNonWildcards(denyEntries)
			if err != nil {
				return err
			}

			m := newManager(c)
			defer m.Close()
			return m.Configure(context.Background(), c.String("cgroup"), allow, deny)
		},
	}
}

func reconfigureCommand() *cli.Command {
	return &cli.Command{
		Name:  "reconfigure",
		Usage: "apply additions/removals to a cgroup's device access policy",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "cgroup", Required: true},
			&cli.StringFlag{Name: "policy", Required: true, Usage: `JSON file: {"additions": [...], "removals": [...]}`},
		},
		Action: func(c *cli.Context) error {
			var doc diffDocument
			if err := readJSONFile(c.String("policy"), &doc); err != nil {
				return err
			}

			addEntries, err := parseAll(doc.Additions)
			if err != nil {
				return err
			}
			additions, err := deviceaccess.ToNonWildcards(addEntries)
			if err != nil {
				return err
			}

			remEntries, err := parseAll(doc.Removals)
			if err != nil {
				return err
			}
			removals, err := deviceaccess.ToNonWildcards(remEntries)
			if err != nil {
				return err
			}

			m := newManager(c)
			defer m.Close()
			return m.Reconfigure(context.Background(), c.String("cgroup"), additions, removals)
		},
	}
}

func stateCommand() *cli.Command {
	return &cli.Command{
		Name:  "state",
		Usage: "print the current device access state as JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "cgroup", Usage: "print only this cgroup's state"},
		},
		Action: func(c *cli.Context) error {
			m := newManager(c)
			defer m.Close()

			ctx := context.Background()
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")

			if cgroup := c.String("cgroup"); cgroup != "" {
				return enc.Encode(m.StateOf(ctx, cgroup))
			}
			return enc.Encode(m.StateAll(ctx))
		},
	}
}

func parseAll(strs []string) ([]deviceaccess.Entry, error) {
	out := make([]deviceaccess.Entry, 0, len(strs))
	for _, s := range strs {
		e, err := deviceaccess.Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func readJSONFile(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(v)
}
