package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sigreer/drivescan/internal/device"
	"github.com/sigreer/drivescan/internal/scanner"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List attached drives once",
	RunE:  runList,
}

func init() {
	listCmd.Flags().Bool("json", false, "Output as JSON")
	listCmd.Flags().Bool("include-system", false, "Include system/boot drives")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	s, err := newScanner(cfg, logger)
	if err != nil {
		return err
	}

	sub := s.Subscribe()
	defer sub.Close()

	s.Start(cmd.Context())
	defer s.Stop()

	var ev scanner.Event
	select {
	case ev = <-sub.C():
	case <-cmd.Context().Done():
		return cmd.Context().Err()
	}
	if ev.Type == scanner.EventError {
		return fmt.Errorf("scan failed: %w", ev.Err)
	}

	jsonOut, _ := cmd.Flags().GetBool("json")
	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ev.Devices)
	}
	printDevices(os.Stdout, ev.Devices)
	return nil
}

// printDevices writes a table of drives
func printDevices(w io.Writer, devices []device.Device) {
	if len(devices) == 0 {
		fmt.Fprintln(w, "No drives found.")
		return
	}

	fmt.Fprintf(w, "%-16s %-24s %-10s %-4s %s\n", "DEVICE", "NAME", "SIZE", "RM", "DESCRIPTION")
	fmt.Fprintln(w, strings.Repeat("-", 80))

	for _, d := range devices {
		fmt.Fprintf(w, "%-16s %-24s %-10s %-4s %s\n",
			truncate(d.Path, 16), truncate(d.DisplayName, 24), d.Size.String(), yesNo(d.IsRemovable), d.Description)
	}
}

// truncate shortens s to n runes, ending in "..." when cut
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
