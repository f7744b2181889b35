package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sigreer/drivescan/internal/config"
	"github.com/sigreer/drivescan/internal/hotplug"
	"github.com/sigreer/drivescan/internal/journal"
	"github.com/sigreer/drivescan/internal/scanner"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Report drives as they are attached and detached",
	Long: `Watch prints the initial set of drives, then one line per drive that
appears or disappears. Device node changes under the hotplug paths trigger an
immediate rescan. Exits non-zero if listing drives fails.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Bool("json", false, "Output events as JSON lines")
	watchCmd.Flags().Bool("include-system", false, "Include system/boot drives")
	watchCmd.Flags().Duration("interval", time.Second, "Delay between scans")
}

// jsonEvent is the JSON line written for each event
type jsonEvent struct {
	Type    scanner.EventType `json:"type"`
	Time    time.Time         `json:"time"`
	Cycle   uint64            `json:"cycle"`
	Device  any               `json:"device,omitempty"`
	Devices any               `json:"devices,omitempty"`
	Error   string            `json:"error,omitempty"`
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	ctx := cmd.Context()

	s, err := newScanner(cfg, logger)
	if err != nil {
		return err
	}

	sub := s.Subscribe()
	defer sub.Close()

	if cfg.Journal.Path != "" {
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return err
		}

		journalSub := s.Subscribe()
		followed := make(chan struct{})
		go func() {
			defer close(followed)
			if err := j.Follow(ctx, journalSub); err != nil {
				logger.Error("journal stopped", "path", j.Path(), "error", err)
			}
		}()
		// Runs after the scanner stops: record what is queued, then close
		defer func() {
			journalSub.Drain()
			<-followed
			journalSub.Close()
			j.Close()
		}()
	}

	if cfg.Hotplug.Enabled {
		startHotplug(cmd, cfg, logger, s)
	}

	s.Start(ctx)
	defer s.Stop()

	jsonOut, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.C():
			if !ok {
				return nil
			}
			if jsonOut {
				writeJSONEvent(out, ev)
			} else {
				writeEvent(out, ev)
			}
			if ev.Type == scanner.EventError {
				return fmt.Errorf("scan failed: %w", ev.Err)
			}
		}
	}
}

func startHotplug(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, s *scanner.Scanner) {
	w, err := hotplug.New(logger, hotplug.Options{
		Paths:  cfg.Hotplug.Paths,
		Settle: cfg.Hotplug.Settle,
	})
	if err != nil {
		logger.Warn("hotplug disabled", "error", err)
		return
	}
	go func() {
		err := w.Run(cmd.Context(), s.Trigger)
		if errors.Is(err, hotplug.ErrNoPaths) {
			logger.Warn("hotplug disabled, relying on polling", "paths", cfg.Hotplug.Paths)
		} else if err != nil {
			logger.Error("hotplug watcher failed", "error", err)
		}
	}()
}

func writeEvent(w io.Writer, ev scanner.Event) {
	ts := ev.Time.Format("15:04:05")
	switch ev.Type {
	case scanner.EventReady:
		fmt.Fprintf(w, "%s ready: %d drive(s)\n", ts, len(ev.Devices))
		for _, d := range ev.Devices {
			fmt.Fprintf(w, "         %s  %s  %s  %s\n", d.Path, d.DisplayName, d.Size, d.Description)
		}
	case scanner.EventAdd:
		fmt.Fprintf(w, "%s + %s  %s  %s  %s\n", ts, ev.Device.Path, ev.Device.DisplayName, ev.Device.Size, ev.Device.Description)
	case scanner.EventRemove:
		fmt.Fprintf(w, "%s - %s  %s\n", ts, ev.Device.Path, ev.Device.DisplayName)
	case scanner.EventError:
		fmt.Fprintf(w, "%s ! %v\n", ts, ev.Err)
	}
}

func writeJSONEvent(w io.Writer, ev scanner.Event) {
	line := jsonEvent{Type: ev.Type, Time: ev.Time, Cycle: ev.Cycle}
	switch ev.Type {
	case scanner.EventReady:
		line.Devices = ev.Devices
	case scanner.EventAdd, scanner.EventRemove:
		line.Device = ev.Device
	case scanner.EventError:
		line.Error = ev.Err.Error()
	}
	json.NewEncoder(w).Encode(line)
}
