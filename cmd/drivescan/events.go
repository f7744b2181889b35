package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sigreer/drivescan/internal/config"
	"github.com/sigreer/drivescan/internal/journal"
	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show drive events recorded in the journal",
	RunE:  runEvents,
}

func init() {
	eventsCmd.Flags().String("device", "", "Only show events for this device identity")
	eventsCmd.Flags().Int("limit", 50, "Maximum number of events to show")
	eventsCmd.Flags().Bool("devices", false, "Show known devices instead of events")
}

func runEvents(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	path := cfg.Journal.Path
	if path == "" {
		path = journal.DefaultPath
	}

	j, err := journal.Open(path)
	if err != nil {
		return err
	}
	defer j.Close()

	out := cmd.OutOrStdout()

	if showDevices, _ := cmd.Flags().GetBool("devices"); showDevices {
		devices, err := j.Devices()
		if err != nil {
			return err
		}
		if len(devices) == 0 {
			fmt.Fprintln(out, "No devices recorded.")
			return nil
		}
		fmt.Fprintf(out, "%-20s %-8s %-24s %-10s %s\n", "DEVICE", "PRESENT", "NAME", "SIZE", "LAST SEEN")
		fmt.Fprintln(out, strings.Repeat("-", 80))
		for _, d := range devices {
			size := d.Size
			if d.SizeBytes != nil {
				size = humanize.IBytes(uint64(*d.SizeBytes))
			}
			fmt.Fprintf(out, "%-20s %-8s %-24s %-10s %s\n",
				truncate(d.Identity, 20), yesNo(d.Present), truncate(d.DisplayName, 24), size, humanize.Time(d.LastSeen))
		}
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	identity, _ := cmd.Flags().GetString("device")

	var events []*journal.EventRecord
	if identity != "" {
		events, err = j.DeviceEvents(identity, limit)
	} else {
		events, err = j.RecentEvents(limit)
	}
	if err != nil {
		return err
	}

	if len(events) == 0 {
		fmt.Fprintln(out, "No events found.")
		return nil
	}

	fmt.Fprintf(out, "%-20s %-8s %-6s %-20s %s\n", "TIMESTAMP", "TYPE", "CYCLE", "DEVICE", "DETAILS")
	fmt.Fprintln(out, strings.Repeat("-", 80))

	for _, e := range events {
		device := e.Identity
		if device == "" {
			device = "-"
		}
		details := e.Details
		if e.DisplayName != "" {
			details = e.DisplayName
		}

		fmt.Fprintf(out, "%-20s %-8s %-6d %-20s %s\n",
			e.Timestamp.Format("2006-01-02 15:04:05"),
			e.EventType,
			e.Cycle,
			truncate(device, 20),
			details)
	}
	return nil
}
