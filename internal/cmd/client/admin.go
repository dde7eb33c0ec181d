package client

import (
	"fmt"
	"net/url"
	"strconv"
	"text/tabwriter"

	"github.com/rzbill/taxiway/internal/history"
	grpcserver "github.com/rzbill/taxiway/internal/server/grpc"
	jobsvc "github.com/rzbill/taxiway/internal/services/jobs"
	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/encoding/protojson"
)

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

// adminURL prefers the --http flag over baseURL.
func adminURL(cmd *cobra.Command, baseURL BaseURLFunc) string {
	if v, _ := cmd.Flags().GetString("http"); v != "" {
		return v
	}
	if baseURL != nil {
		return baseURL()
	}
	return HTTPURLFromEnv()
}

// newHealthCommand constructs the `health` command.
func newHealthCommand() *cobra.Command {
	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Query the gRPC health service",
		Long: `Query grpc.health.v1.Health on the server's gRPC address and print the
response as JSON. Exits non-zero unless the service is SERVING.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, _ := cmd.Flags().GetString("grpc")
			service, _ := cmd.Flags().GetString("service")
			if addr == "" {
				addr = grpcAddrFromEnv()
			}
			conn, err := dialGRPC(addr)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			ctx, cancel := commandContext(cmd)
			defer cancel()
			resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
			if err != nil {
				return fmt.Errorf("health: %w", err)
			}
			b, err := protojson.MarshalOptions{Multiline: true, EmitUnpopulated: true}.Marshal(resp)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
				return fmt.Errorf("health: %s is %s", displayService(service), resp.GetStatus())
			}
			return nil
		},
	}
	healthCmd.Flags().String("grpc", "", "gRPC address (default $TAXIWAY_GRPC or 127.0.0.1:8296)")
	healthCmd.Flags().String("service", grpcserver.ServiceName, `Service name to check ("" for the server as a whole)`)
	return healthCmd
}

func displayService(name string) string {
	if name == "" {
		return "server"
	}
	return name
}

// newStatsCommand constructs the `stats` command.
func newStatsCommand(baseURL BaseURLFunc) *cobra.Command {
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Print queue, history and recorder statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			var stats jobsvc.StatsView
			if err := getJSON(ctx, adminURL(cmd, baseURL), "/v1/stats", nil, &stats); err != nil {
				return err
			}
			return printJSON(cmd, stats)
		},
	}
	statsCmd.Flags().String("http", "", "Admin API base URL")
	return statsCmd
}

// newJobsCommand constructs the `jobs` command group.
func newJobsCommand(baseURL BaseURLFunc) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect ready and pending jobs",
		Long: `Inspect ready and pending jobs through the admin API.

--filter takes a CEL expression over id, size, text, json, deliveries,
delivered_at_ms, age_ms and now_ms, for example:

  taxiway jobs pending --filter 'age_ms > 10000 && deliveries > 1'
  taxiway jobs ready --filter 'json.kind == "email"'`,
	}
	jobsCmd.AddCommand(
		newJobsListCommand("ready", "List jobs waiting for delivery", baseURL),
		newJobsListCommand("pending", "List delivered, unacknowledged jobs", baseURL),
	)
	return jobsCmd
}

func newJobsListCommand(state, short string, baseURL BaseURLFunc) *cobra.Command {
	listCmd := &cobra.Command{
		Use:   state,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			filter, _ := cmd.Flags().GetString("filter")
			asJSON, _ := cmd.Flags().GetBool("json")

			q := url.Values{}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			if filter != "" {
				q.Set("filter", filter)
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			var body struct {
				Jobs  []jobsvc.JobView `json:"jobs"`
				Count int              `json:"count"`
			}
			if err := getJSON(ctx, adminURL(cmd, baseURL), "/v1/jobs/"+state, q, &body); err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd, body)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tSIZE\tDELIVERIES\tAGE\tPREVIEW")
			for _, j := range body.Jobs {
				_, _ = fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%s\n", j.ID, j.Size, j.Deliveries, durationMs(j.AgeMs), j.Preview)
			}
			return tw.Flush()
		},
	}
	listCmd.Flags().String("http", "", "Admin API base URL")
	listCmd.Flags().Int("limit", 0, "Maximum number of jobs (server default when 0)")
	listCmd.Flags().String("filter", "", "CEL filter expression")
	listCmd.Flags().Bool("json", false, "Print raw JSON")
	return listCmd
}

// newHistoryCommand constructs the `history` command.
func newHistoryCommand(baseURL BaseURLFunc) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recently acked, released and requeued jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, _ := cmd.Flags().GetString("kind")
			job, _ := cmd.Flags().GetString("job")
			limit, _ := cmd.Flags().GetInt("limit")
			asJSON, _ := cmd.Flags().GetBool("json")

			q := url.Values{}
			if kind != "" {
				if _, err := history.ParseKind(kind); err != nil {
					return err
				}
				q.Set("kind", kind)
			}
			if job != "" {
				if _, err := parseJobID(job); err != nil {
					return err
				}
				q.Set("jobId", job)
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			var body struct {
				Entries []history.Entry `json:"entries"`
				Count   int             `json:"count"`
			}
			if err := getJSON(ctx, adminURL(cmd, baseURL), "/v1/history", q, &body); err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd, body)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "SEQ\tKIND\tJOB\tDELIVERIES\tPENDING")
			for _, e := range body.Entries {
				_, _ = fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\n", e.Seq, e.Kind, e.JobID, e.Deliveries, durationMs(e.PendingMs))
			}
			return tw.Flush()
		},
	}
	historyCmd.Flags().String("http", "", "Admin API base URL")
	historyCmd.Flags().String("kind", "", "Filter by kind: acked|released|requeued")
	historyCmd.Flags().String("job", "", "Filter by job id (decimal or 0x hex)")
	historyCmd.Flags().Int("limit", 0, "Maximum number of entries (server default when 0)")
	historyCmd.Flags().Bool("json", false, "Print raw JSON")
	return historyCmd
}
