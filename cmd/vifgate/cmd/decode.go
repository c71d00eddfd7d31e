/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ssargent/vifgate/pkg/api"
	"github.com/ssargent/vifgate/pkg/codec"
)

// decodeCmd represents the decode command
var decodeCmd = &cobra.Command{
	Use:   "decode [file]",
	Short: "Decode raw VIF text into JSON",
	Long: `Decode a captured VIF message into JSON. The text is read from the
file, or from stdin when no file is given. A trailing ETX byte is ignored.

Examples:
  vifgate decode capture.vif
  printf '{vrp}{1}BARKER{2}AB12{3}1{4}0!{ssn}{1}1042' | vifgate decode
  vifgate decode --integer capture.vif`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := cmd.InOrStdin()
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		integer, _ := cmd.Flags().GetBool("integer")
		return decodeVIF(in, cmd.OutOrStdout(), integer)
	},
}

// encodeCmd represents the encode command
var encodeCmd = &cobra.Command{
	Use:   "encode <record-code> [file]",
	Short: "Encode named JSON fields into one VIF record",
	Long: `Encode a JSON object of named fields into a VIF record of the given
type. Repeated groups are given as lists, e.g. "tickets" for q30.

Examples:
  echo '{"session_number": 1042, "tickets": [{"ticket_code": "ADULT", "ticket_price": 12.5}]}' | vifgate encode q30`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := cmd.InOrStdin()
		if len(args) == 2 {
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		return encodeVIF(args[0], in, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(encodeCmd)

	decodeCmd.Flags().Bool("integer", false, "Key fields by their integer codes instead of names")
}

func decodeVIF(r io.Reader, w io.Writer, integer bool) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read VIF text: %w", err)
	}
	text := strings.TrimRight(string(data), "\x03\r\n")
	if text == "" {
		return fmt.Errorf("no VIF text to decode")
	}

	msg, err := codec.ParseMessage(text)
	if err != nil {
		return err
	}
	if integer {
		return writeJSON(w, msg.Data())
	}
	return writeJSON(w, api.NewVenueResponse(msg, false))
}

func encodeVIF(recordCode string, r io.Reader, w io.Writer) error {
	var fields map[string]any
	if err := json.NewDecoder(r).Decode(&fields); err != nil {
		return fmt.Errorf("invalid JSON fields: %w", err)
	}
	rec, err := codec.NewRecordFromFields(recordCode, fields)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, rec.Content())
	return err
}
