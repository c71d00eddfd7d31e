/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ssargent/vifgate/pkg/api"
	"github.com/ssargent/vifgate/pkg/codec"
	"github.com/ssargent/vifgate/pkg/gateway"
)

// handshakeCmd represents the handshake command
var handshakeCmd = &cobra.Command{
	Use:   "handshake",
	Short: "Check the venue host is reachable and accepts our credentials",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return callVenue(cmd, func(ctx context.Context, gw *gateway.Gateway) (*codec.Message, error) {
			return gw.Handshake(ctx)
		})
	},
}

// getDataCmd represents the get-data command
var getDataCmd = &cobra.Command{
	Use:   "get-data",
	Short: "Fetch the venue catalog: films, sessions, prices and ticket types",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		detail, _ := cmd.Flags().GetInt("detail")
		return callVenue(cmd, func(ctx context.Context, gw *gateway.Gateway) (*codec.Message, error) {
			return gw.GetData(ctx, detail)
		})
	},
}

// seatsCmd represents the seats command
var seatsCmd = &cobra.Command{
	Use:   "seats",
	Short: "Show the seat plan of a session",
	Long: `Show the seat plan of a session, or with --free only the seats still
available to a workstation.

Examples:
  vifgate seats --session 1042
  vifgate seats --session 1042 --free --workstation 3`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, _ := cmd.Flags().GetInt("session")
		availability, _ := cmd.Flags().GetInt("availability")
		free, _ := cmd.Flags().GetBool("free")
		workstation, _ := cmd.Flags().GetInt("workstation")

		return callVenue(cmd, func(ctx context.Context, gw *gateway.Gateway) (*codec.Message, error) {
			if free {
				return gw.FreeSeats(ctx, session, workstation)
			}
			return gw.SessionSeats(ctx, session, availability)
		})
	},
}

// bookingCmd represents the booking command
var bookingCmd = &cobra.Command{
	Use:   "booking <key>",
	Short: "Look up a booking by key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("booking key must be an integer: %q", args[0])
		}
		alternate, _ := cmd.Flags().GetBool("alternate")
		return callVenue(cmd, func(ctx context.Context, gw *gateway.Gateway) (*codec.Message, error) {
			return gw.LookupBooking(ctx, key, alternate)
		})
	},
}

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <alternate-key>",
	Short: "Verify a booking by its printed alternate key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return callVenue(cmd, func(ctx context.Context, gw *gateway.Gateway) (*codec.Message, error) {
			return gw.VerifyBooking(ctx, args[0])
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{handshakeCmd, getDataCmd, seatsCmd, bookingCmd, verifyCmd} {
		c.Flags().Bool("raw", false, "Print the raw VIF response instead of JSON")
		rootCmd.AddCommand(c)
	}

	getDataCmd.Flags().Int("detail", gateway.DetailWeb, "Catalog detail level")

	seatsCmd.Flags().Int("session", 0, "Session number (required)")
	seatsCmd.Flags().Int("availability", 0, "Availability filter sent with the seat plan request")
	seatsCmd.Flags().Bool("free", false, "Only list free seats")
	seatsCmd.Flags().Int("workstation", 0, "Workstation the free seats are held for")
	if err := seatsCmd.MarkFlagRequired("session"); err != nil {
		panic(err)
	}

	bookingCmd.Flags().Bool("alternate", false, "Treat the key as the booking's alternate key")
}

type venueCall func(ctx context.Context, gw *gateway.Gateway) (*codec.Message, error)

// callVenue runs one exchange and prints the response. A host error is
// printed along with the response and then returned.
func callVenue(cmd *cobra.Command, call venueCall) error {
	if err := container.Config().Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	gw, err := container.Gateway()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	msg, err := call(ctx, gw)
	var hostErr *gateway.HostError
	if err != nil && (msg == nil || !errors.As(err, &hostErr)) {
		return err
	}

	raw, _ := cmd.Flags().GetBool("raw")
	if werr := writeMessage(cmd.OutOrStdout(), msg, raw); werr != nil {
		return werr
	}
	return err
}

// writeMessage prints msg as indented JSON in the named view, or as raw
// VIF text.
func writeMessage(w io.Writer, msg *codec.Message, raw bool) error {
	if raw {
		_, err := fmt.Fprintln(w, msg.Content())
		return err
	}
	return writeJSON(w, api.NewVenueResponse(msg, false))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
