package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/tempus-cli/tempus/internal/activity"
	"github.com/tempus-cli/tempus/internal/calendar"
	"github.com/tempus-cli/tempus/internal/config"
	"github.com/tempus-cli/tempus/internal/daemon"
	"github.com/tempus-cli/tempus/internal/logging"
	"github.com/tempus-cli/tempus/internal/monitor"
	"github.com/tempus-cli/tempus/internal/notify"
	"github.com/tempus-cli/tempus/internal/report"
	"github.com/tempus-cli/tempus/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "tempus",
	Short: "Background activity monitor and productivity tracker",
	Long:  "tempus watches input activity, records workdays and pauses, and derives work intervals and productivity figures from them.",
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the activity monitor in the foreground",
	RunE:  runStart,
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the activity monitor as a background process",
	RunE:  runDaemon,
}

var runCmd = &cobra.Command{
	Use:    "run",
	Hidden: true, // entry point for the detached child
	RunE:   runDetached,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running monitor",
	RunE:  runStop,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show monitor state and today's tallies",
	RunE:  runStatus,
}

var reportCmd = &cobra.Command{
	Use:   "report [day]",
	Short: "Show work intervals and productivity for a day",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReport,
}

var breakCmd = &cobra.Command{
	Use:   "break",
	Short: "Manage explicit breaks",
}

var breakAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a break",
	RunE:  runBreakAdd,
}

var breakListCmd = &cobra.Command{
	Use:   "list [day]",
	Short: "List breaks for a day",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBreakList,
}

var breakImportCmd = &cobra.Command{
	Use:   "import [source] [day]",
	Short: "Import calendar events as breaks",
	Long:  "Imports iCalendar events overlapping the given day as breaks. Source is an ICS URL or file path, defaulting to the configured calendar source.",
	Args:  cobra.MaximumNArgs(2),
	RunE:  runBreakImport,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Open config file in your editor",
	RunE:  runConfig,
}

func init() {
	stopCmd.Flags().Bool("end-day", false, "Also close today's workday")
	breakAddCmd.Flags().String("start", "", "Break start, HH:MM")
	breakAddCmd.Flags().String("end", "", "Break end, HH:MM")
	breakAddCmd.Flags().String("reason", "", "Optional reason")
	breakAddCmd.MarkFlagRequired("start")
	breakAddCmd.MarkFlagRequired("end")

	breakCmd.AddCommand(breakAddCmd)
	breakCmd.AddCommand(breakListCmd)
	breakCmd.AddCommand(breakImportCmd)

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(breakCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	logging.SetupConsole()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newSupervisor() (*daemon.Supervisor, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return nil, err
	}
	return daemon.New(dir), nil
}

// runMonitor wires the sampler and the poll loop and races them against
// shutdown signals under the supervisor.
func runMonitor(cfg *config.Config) error {
	db, err := store.Open()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	sup, err := newSupervisor()
	if err != nil {
		return err
	}

	sampler := activity.NewSampler(activity.HookSource{})
	notifier := notify.Desktop{Enabled: cfg.Notifications.Enabled}
	mon := monitor.New(db, sampler, notifier, cfg.Monitor, cfg.Productivity)

	return sup.Run(context.Background(), sampler, mon)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	fmt.Printf("Monitor started (poll: %s, pause threshold: %s). Ctrl-C to stop.\n",
		cfg.Monitor.PollInterval(), cfg.Monitor.PauseThreshold())
	return runMonitor(cfg)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	sup, err := newSupervisor()
	if err != nil {
		return err
	}
	if err := sup.Spawn("run"); err != nil {
		return err
	}
	fmt.Println("Monitor running in the background.")
	return nil
}

func runDetached(cmd *cobra.Command, args []string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	if err := logging.SetupDaemon(dir); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	return runMonitor(cfg)
}

func runStop(cmd *cobra.Command, args []string) error {
	endDay, _ := cmd.Flags().GetBool("end-day")

	sup, err := newSupervisor()
	if err != nil {
		return err
	}
	if err := sup.Stop(); err != nil {
		return err
	}
	fmt.Println("Monitor stopped.")

	if endDay {
		db, err := store.Open()
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		now := time.Now()
		wd, err := db.FetchWorkday(now)
		if err != nil {
			return err
		}
		if wd == nil {
			fmt.Println("No workday recorded today.")
			return nil
		}
		if err := db.SetWorkdayEnd(now); err != nil {
			return err
		}
		fmt.Printf("Workday closed at %s.\n", now.Format("15:04"))
	}

	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	sup, err := newSupervisor()
	if err != nil {
		return err
	}

	db, err := store.Open()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	now := time.Now()
	wd, err := db.FetchWorkday(now)
	if err != nil {
		return err
	}
	pauses, err := db.FetchPauses(now, 0)
	if err != nil {
		return err
	}
	breaks, err := db.FetchBreaks(now)
	if err != nil {
		return err
	}

	fmt.Print(report.RenderStatus(sup.IsRunning(), wd, pauses, breaks, now))
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}
	day, err := report.ParseDay(arg)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := store.Open()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	wd, err := db.FetchWorkday(day)
	if err != nil {
		return err
	}
	if wd == nil {
		fmt.Printf("No workday recorded for %s.\n", store.DateKey(day))
		return nil
	}
	pauses, err := db.FetchPauses(day, 0)
	if err != nil {
		return err
	}
	breaks, err := db.FetchBreaks(day)
	if err != nil {
		return err
	}

	r := report.BuildDay(*wd, breaks, pauses, time.Now(), cfg.Monitor, cfg.Productivity)
	fmt.Print(r.Render())
	return nil
}

func runBreakAdd(cmd *cobra.Command, args []string) error {
	startArg, _ := cmd.Flags().GetString("start")
	endArg, _ := cmd.Flags().GetString("end")
	reason, _ := cmd.Flags().GetString("reason")

	start, err := clockToday(startArg)
	if err != nil {
		return err
	}
	end, err := clockToday(endArg)
	if err != nil {
		return err
	}
	if !end.After(start) {
		return fmt.Errorf("break end must be after start")
	}

	db, err := store.Open()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	b := store.Break{Start: start, End: end, Reason: reason}
	if _, err := db.InsertBreak(&b); err != nil {
		return err
	}

	fmt.Printf("Break recorded: %s–%s (%dmin)\n",
		start.Format("15:04"), end.Format("15:04"), int(b.Duration.Minutes()))
	return nil
}

func runBreakList(cmd *cobra.Command, args []string) error {
	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}
	day, err := report.ParseDay(arg)
	if err != nil {
		return err
	}

	db, err := store.Open()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	breaks, err := db.FetchBreaks(day)
	if err != nil {
		return err
	}
	if len(breaks) == 0 {
		fmt.Printf("No breaks recorded for %s.\n", store.DateKey(day))
		return nil
	}

	for _, b := range breaks {
		line := fmt.Sprintf("  %s–%s  %dmin",
			b.Start.Format("15:04"), b.End.Format("15:04"), int(b.Duration.Minutes()))
		if b.Reason != "" {
			line += "  " + b.Reason
		}
		fmt.Println(line)
	}
	return nil
}

func runBreakImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	source := cfg.Calendar.Source
	dayArg := ""
	if len(args) > 0 {
		source = args[0]
	}
	if len(args) > 1 {
		dayArg = args[1]
	}
	if source == "" {
		return fmt.Errorf("no calendar source given or configured")
	}

	day, err := report.ParseDay(dayArg)
	if err != nil {
		return err
	}

	events, err := calendar.Events(context.Background(), source, day)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("No calendar events found.")
		return nil
	}

	db, err := store.Open()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	for _, b := range calendar.Breaks(events) {
		if _, err := db.InsertBreak(&b); err != nil {
			return err
		}
	}

	fmt.Printf("Imported %d event(s) as breaks.\n", len(events))
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := config.DefaultConfig()
		data, err := toml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshaling default config: %w", err)
		}
		if err := os.WriteFile(configPath, data, 0644); err != nil {
			return fmt.Errorf("writing default config: %w", err)
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	fmt.Printf("Opening %s with %s...\n", configPath, editor)

	proc := os.ProcAttr{
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
	}
	process, err := os.StartProcess(editor, []string{editor, configPath}, &proc)
	if err != nil {
		fmt.Printf("Could not open editor. Config file is at: %s\n", configPath)
		return nil
	}
	_, err = process.Wait()
	return err
}

// clockToday interprets HH:MM on today's date.
func clockToday(s string) (time.Time, error) {
	t, err := time.ParseInLocation("15:04", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q (want HH:MM): %w", s, err)
	}
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, time.Local), nil
}
