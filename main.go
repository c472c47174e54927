// Command goioc serves the example application and inspects its container.
//
//	goioc serve                       # HTTP on APP_PORT until SIGINT/SIGTERM
//	goioc bindings --output yaml      # every registered service key
//	goioc routes                      # every mounted route
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/km-arc/go-ioc/app/users"
	"github.com/km-arc/go-ioc/framework/app"
	"github.com/km-arc/go-ioc/framework/container"
)

func main() {
	if err := execute(context.Background(), os.Stdout, os.Args[1:]...); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFiles []string

	root := &cobra.Command{
		Use:          "goioc",
		Short:        "Service container example application",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env", nil, "env files to load (default .env)")

	root.AddCommand(
		newServeCmd(&envFiles),
		newBindingsCmd(&envFiles),
		newRoutesCmd(&envFiles),
	)
	return root
}

// bootstrap builds the application with every module registered and booted.
func bootstrap(envFiles []string) (*app.Application, error) {
	application, err := app.New(envFiles...)
	if err != nil {
		return nil, err
	}
	if err := application.Register(&users.Provider{}); err != nil {
		return nil, err
	}
	if err := application.Boot(); err != nil {
		return nil, err
	}
	return application, nil
}

func newServeCmd(envFiles *[]string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve HTTP until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := bootstrap(*envFiles)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return application.Run(ctx)
		},
	}
}

func newBindingsCmd(envFiles *[]string) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "bindings",
		Short: "List registered service keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := bootstrap(*envFiles)
			if err != nil {
				return err
			}
			return writeBindings(cmd.OutOrStdout(), application.Bindings(), output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table | yaml")
	return cmd
}

func newRoutesCmd(envFiles *[]string) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List mounted routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := bootstrap(*envFiles)
			if err != nil {
				return err
			}
			router, err := application.Router()
			if err != nil {
				return err
			}
			routes, err := router.Routes()
			if err != nil {
				return err
			}
			for _, r := range routes {
				fmt.Fprintln(cmd.OutOrStdout(), r)
			}
			return nil
		},
	}
}

func writeBindings(w io.Writer, bindings []container.Binding, output string) error {
	switch output {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(bindings); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tLIFETIME\tSOURCE\tRESOLVED\tALIASES")
		for _, b := range bindings {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", b.Key, b.Lifetime, b.Source, b.Resolved, strings.Join(b.Aliases, ","))
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output %q, want table or yaml", output)
	}
}

// execute runs the root command with args, writing to out.
func execute(ctx context.Context, out io.Writer, args ...string) error {
	root := newRootCmd()
	root.SetOut(out)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
