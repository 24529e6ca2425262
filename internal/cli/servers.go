package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/rpcfail/internal/infra/discovery"
)

var priority float64

var serversCmd = &cobra.Command{
	Use:   "servers",
	Short: "Manage candidate servers kept in Redis",
}

var serversListCmd = &cobra.Command{
	Use:   "list <server-type>",
	Short: "List candidates of a server type in failover order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRedis(cmd.Context(), func(ctx context.Context, r *discovery.Redis) error {
			servers, err := r.DiscoverServers(ctx, args[0])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			_, _ = fmt.Fprintln(w, "ORDER\tSERVER")
			for i, id := range servers {
				_, _ = fmt.Fprintf(w, "%d\t%s\n", i+1, id)
			}
			return w.Flush()
		})
	},
}

var serversRegisterCmd = &cobra.Command{
	Use:   "register <server-type> <server-id>",
	Short: "Add a server or change its priority",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRedis(cmd.Context(), func(ctx context.Context, r *discovery.Redis) error {
			return r.Register(ctx, args[0], args[1], priority)
		})
	},
}

var serversDeregisterCmd = &cobra.Command{
	Use:   "deregister <server-type> <server-id>",
	Short: "Remove a server",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRedis(cmd.Context(), func(ctx context.Context, r *discovery.Redis) error {
			return r.Deregister(ctx, args[0], args[1])
		})
	},
}

func init() {
	serversRegisterCmd.Flags().Float64Var(&priority, "priority", 0, "lower priorities are tried first")
	serversCmd.AddCommand(serversListCmd, serversRegisterCmd, serversDeregisterCmd)
	rootCmd.AddCommand(serversCmd)
}

func withRedis(ctx context.Context, fn func(ctx context.Context, r *discovery.Redis) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Discovery.Redis.URL == "" {
		return errors.New("discovery.redis.url is not configured")
	}

	r, err := discovery.NewRedis(ctx, cfg.Discovery.Redis)
	if err != nil {
		return err
	}
	defer func() {
		_ = r.Close()
	}()
	return fn(ctx, r)
}
