package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	apix "github.com/tanpawarit/yearboard/board/api"
	contractx "github.com/tanpawarit/yearboard/board/contract"
	memoryx "github.com/tanpawarit/yearboard/board/memory"
	planx "github.com/tanpawarit/yearboard/board/plan"
	configx "github.com/tanpawarit/yearboard/pkg/config"
	logx "github.com/tanpawarit/yearboard/pkg/logger"
)

var errEphemeralStore = errors.New("kv driver does not persist between commands, set KV_DRIVER to sqlite, redis, upstash or postgres")

type appFactory func(ctx context.Context) (*app, error)

type rootOptions struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	NewApp appFactory
}

func (o rootOptions) withDefaults() rootOptions {
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.NewApp == nil {
		o.NewApp = newApp
	}
	return o
}

func newRootCmd(opts rootOptions) *cobra.Command {
	opts = opts.withDefaults()

	var envFile string
	root := &cobra.Command{
		Use:           "yearboard",
		Short:         "yearboard - year board planning backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile != "" {
				configx.SetEnvFile(envFile)
			}
			conf, err := configx.New[logx.Config]("LOG")
			if err != nil {
				return err
			}
			logx.InitWriter(cmd.ErrOrStderr(), *conf)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env", "", "path to a .env file")
	root.SetIn(opts.Stdin)
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)

	root.AddCommand(
		newServeCmd(opts),
		newPlanCmd(opts),
		newProgressCmd(opts),
		newMemoryCmd(opts),
		newCoachCmd(opts),
	)
	return root
}

// withApp builds the services for one command run and closes them after.
func withApp(cmd *cobra.Command, opts rootOptions, fn func(a *app) error) error {
	a, err := opts.NewApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn().Err(err).Msg("close kv store")
		}
	}()
	return fn(a)
}

// requireDurable stops one-shot writes that would vanish when the command exits.
func requireDurable(a *app) error {
	if !a.durable {
		return errEphemeralStore
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newServeCmd(opts rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				server, err := apix.New(a.deps(), a.apiConf)
				if err != nil {
					return err
				}
				if addr == "" {
					addr = a.conf.HTTPAddr
				}
				return server.Listen(cmd.Context(), addr)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default YEARBOARD_HTTP_ADDR)")
	return cmd
}

type planInput struct {
	Actions   []planx.Action   `json:"actions"`
	NorthStar *planx.NorthStar `json:"north_star"`
}

func newPlanCmd(opts rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate this week's plan from a JSON {actions, north_star} document",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := opts.Stdin
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			var doc planInput
			if err := json.NewDecoder(in).Decode(&doc); err != nil {
				return fmt.Errorf("decode plan input: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), planx.Generate(doc.Actions, doc.NorthStar))
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "input file, - for stdin")
	return cmd
}

func newProgressCmd(opts rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Read and record goal progress",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print every recorded goal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				all, err := a.progress.GetAll(cmd.Context())
				if err != nil {
					return err
				}
				keys := make([]string, 0, len(all))
				for k := range all {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", k, strconv.FormatFloat(all[k], 'f', -1, 64))
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <goal title>",
		Short: "Print the recorded value for a goal",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				value, ok, err := a.progress.GetCurrent(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				if !ok {
					return errors.New("no progress recorded for goal")
				}
				fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatFloat(value, 'f', -1, 64))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <goal title> <value>",
		Short: "Record progress for a goal",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := args[len(args)-1]
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return fmt.Errorf("value %q is not a number", raw)
			}
			title := strings.Join(args[:len(args)-1], " ")
			return withApp(cmd, opts, func(a *app) error {
				if err := requireDurable(a); err != nil {
					return err
				}
				return a.progress.SetCurrent(cmd.Context(), title, value)
			})
		},
	})

	return cmd
}

func newMemoryCmd(opts rootOptions) *cobra.Command {
	var org string
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect and update an organization's memory",
	}
	cmd.PersistentFlags().StringVar(&org, "org", "", "organization id (default YEARBOARD_DEFAULT_ORG)")

	orgID := func(a *app) string {
		if org != "" {
			return org
		}
		return a.conf.DefaultOrg
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the stored memory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				m, err := a.memory.Load(cmd.Context(), orgID(a))
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), m)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "fire <event json>",
		Short: `Apply an event such as {"type":"north_star_changed","goal":"..."}`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, err := memoryx.DecodeEvent([]byte(args[0]))
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app) error {
				if err := requireDurable(a); err != nil {
					return err
				}
				m, err := a.memory.Fire(cmd.Context(), orgID(a), ev)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), m)
			})
		},
	})

	return cmd
}

func newCoachCmd(opts rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coach",
		Short: "Talk to the AI coach",
	}

	var org, session string
	ask := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the coach one question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				if a.coach == nil {
					return errors.New("coach is not configured, set OPENROUTER_API_KEY")
				}
				if org == "" {
					org = a.conf.DefaultOrg
				}
				reply, err := a.coach.Ask(cmd.Context(), contractx.CoachRequest{
					OrgID:     org,
					SessionID: session,
					Question:  strings.Join(args, " "),
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), reply.Message)
				return nil
			})
		},
	}
	ask.Flags().StringVar(&org, "org", "", "organization id (default YEARBOARD_DEFAULT_ORG)")
	ask.Flags().StringVar(&session, "session", "", "session whose visible data the coach reads")
	cmd.AddCommand(ask)

	return cmd
}
