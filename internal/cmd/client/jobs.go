package client

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rzbill/taxiway/pkg/client"
	"github.com/spf13/cobra"
)

// newSubmitCommand constructs the `submit` command.
func newSubmitCommand() *cobra.Command {
	submitCmd := &cobra.Command{
		Use:   "submit [payload]",
		Short: "Submit a job payload",
		Long: `Submit a job payload to the ready queue.

The payload is taken from the positional argument, --data, or --file
("-" reads stdin), in that order of precedence.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readPayload(cmd, args)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			id, err := newProtocolClient(cmd).Submit(ctx, payload)
			if err != nil {
				return fmt.Errorf("submit: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "id:", id)
			return nil
		},
	}
	submitCmd.Flags().String("data", "", "Payload as a string")
	submitCmd.Flags().String("file", "", "Read payload from file (- for stdin)")
	return submitCmd
}

func readPayload(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 1 {
		return []byte(args[0]), nil
	}
	if data, _ := cmd.Flags().GetString("data"); data != "" {
		return []byte(data), nil
	}
	file, _ := cmd.Flags().GetString("file")
	switch file {
	case "":
		return nil, errors.New("payload required: pass an argument, --data or --file")
	case "-":
		return io.ReadAll(cmd.InOrStdin())
	default:
		return os.ReadFile(file)
	}
}

// newDeliverCommand constructs the `deliver` command.
func newDeliverCommand() *cobra.Command {
	deliverCmd := &cobra.Command{
		Use:   "deliver",
		Short: "Claim the next ready job",
		Long: `Claim the next ready job and print it as JSON.

The job stays pending until it is acked or released; if neither happens
within the server's ack timeout it returns to the ready queue. Use --ack or
--release to settle it right after printing.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ack, _ := cmd.Flags().GetBool("ack")
			release, _ := cmd.Flags().GetBool("release")
			if ack && release {
				return errors.New("--ack and --release are mutually exclusive")
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			c := newProtocolClient(cmd)
			job, ok, err := c.Deliver(ctx)
			if err != nil {
				return fmt.Errorf("deliver: %w", err)
			}
			if !ok {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no job available")
				return nil
			}
			if err := printJSON(cmd, decodedJob(job.ID, job.Payload)); err != nil {
				return err
			}
			switch {
			case ack:
				return settle(cmd, "ack", c.Ack(ctx, job.ID))
			case release:
				return settle(cmd, "release", c.Release(ctx, job.ID))
			}
			return nil
		},
	}
	deliverCmd.Flags().Bool("ack", false, "Acknowledge the job after printing it")
	deliverCmd.Flags().Bool("release", false, "Release the job back to the queue after printing it")
	return deliverCmd
}

// newAckCommand constructs the `ack` command.
func newAckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ack <job-id>",
		Short: "Acknowledge a delivered job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			return settle(cmd, "ack", newProtocolClient(cmd).Ack(ctx, id))
		},
	}
}

// newReleaseCommand constructs the `release` command.
func newReleaseCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "release <job-id>",
		Aliases: []string{"nack"},
		Short:   "Return a delivered job to the ready queue",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			return settle(cmd, "release", newProtocolClient(cmd).Release(ctx, id))
		},
	}
}

func settle(cmd *cobra.Command, op string, err error) error {
	if errors.Is(err, client.ErrRejected) {
		return fmt.Errorf("%s: job is not pending", op)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "status:", "OK")
	return nil
}

// parseJobID accepts decimal or 0x-prefixed hex ids.
func parseJobID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid job id %q", s)
	}
	return id, nil
}

// newLenCommand constructs the `len` command.
func newLenCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "len",
		Aliases: []string{"length"},
		Short:   "Print the number of ready jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			n, err := newProtocolClient(cmd).Len(ctx)
			if err != nil {
				return fmt.Errorf("len: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}

// newPingCommand constructs the `ping` command.
func newPingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the server answers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			if err := newProtocolClient(cmd).Ping(ctx); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "pong")
			return nil
		},
	}
}
