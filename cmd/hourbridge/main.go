package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/christopherklint97/hourbridge/internal/config"
	"github.com/christopherklint97/hourbridge/internal/tui"
)

var (
	configDir string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:          "hourbridge",
	Short:        "Reconcile Toggl time entries into Harvest",
	Long:         "hourbridge downloads tracked time into editable per-day YAML files, resolves every entry to a Harvest project and task, and uploads the billable ones exactly once.",
	SilenceUsage: true,
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show where configuration and data live",
	RunE:  runInfo,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Open the config file in your editor",
	RunE:  runConfig,
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a value such as toggl.workspace_id",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var ledgerCacheCmd = &cobra.Command{
	Use:   "ledger-cache",
	Short: "Refresh the cached list of Harvest projects and tasks",
	RunE:  runLedgerCache,
}

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download tracked time into day files",
	RunE:  runDownload,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Resolve and check day files against the ledger",
	RunE:  runValidate,
}

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload valid billable entries to Harvest",
	RunE:  runUpload,
}

var timesheetCmd = &cobra.Command{
	Use:   "timesheet",
	Short: "Download, validate and upload in one go",
	RunE:  runTimesheet,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show day totals and upload history",
	RunE:  runStatus,
}

func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().String("start", "today", "first day (2006-01-02 or e.g. \"last monday\")")
	cmd.Flags().String("end", "", "last day, defaults to the start day")
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (env HOURBRIDGE_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")

	for _, cmd := range []*cobra.Command{downloadCmd, validateCmd, uploadCmd, timesheetCmd, statusCmd} {
		addRangeFlags(cmd)
	}
	validateCmd.Flags().Bool("no-edit", false, "only report, never offer to edit")
	uploadCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	timesheetCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	configCmd.AddCommand(configSetCmd)

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(ledgerCacheCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(timesheetCmd)
	rootCmd.AddCommand(statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// signalContext is canceled on SIGINT or SIGTERM. Commands check it between
// days, so a day file is never left half processed.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func selectedRange(cmd *cobra.Command) (time.Time, time.Time, []string, error) {
	start, _ := cmd.Flags().GetString("start")
	end, _ := cmd.Flags().GetString("end")
	return dayRange(start, end, time.Now())
}

func runInfo(cmd *cobra.Command, args []string) error {
	a, err := newApp(configDir, verbose)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("Configuration Directory: %q\n", a.cfg.Dir())
	for _, p := range []struct{ label, path string }{
		{"Config", a.cfg.Path()},
		{"Project mapping", a.cfg.MappingPath()},
		{"Ledger cache", a.cfg.CachePath()},
		{"Day files", a.cfg.DataDir()},
		{"Database", a.cfg.DBPath()},
	} {
		state := "missing"
		if _, err := os.Stat(p.path); err == nil {
			state = "ok"
		}
		fmt.Printf("  %-16s %s (%s)\n", p.label, p.path, state)
	}

	db, err := a.openDB()
	if err != nil {
		return err
	}
	refreshed, ok, err := db.CatalogRefreshed()
	if err != nil {
		return err
	}
	if ok {
		fmt.Printf("Ledger cache refreshed %s\n", refreshed.Local().Format("2006-01-02 15:04"))
	} else {
		fmt.Println(tui.Warning("Ledger cache was never refreshed, run 'hourbridge ledger-cache'."))
	}
	return nil
}

const configTemplate = `[toggl]
api_token = ""
workspace_id = ""
user_agent = %q

[toggl.download_params]

[harvest]
account_id = ""
token = ""
user_agent = %q

[notifications]
enabled = %t

[calendar]
enabled = false
source = ""
billable = true
`

func runConfig(cmd *cobra.Command, args []string) error {
	dir, err := config.Dir(configDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	path := cfg.Path()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		defaults := config.DefaultConfig()
		data := fmt.Sprintf(configTemplate, defaults.Toggl.UserAgent, defaults.Harvest.UserAgent, defaults.Notifications.Enabled)
		if err := os.WriteFile(path, []byte(data), 0600); err != nil {
			return fmt.Errorf("writing default config: %w", err)
		}
	}

	fmt.Printf("Opening %s...\n", path)
	if err := openEditor(path); err != nil {
		fmt.Printf("Could not open editor. Config file is at: %s\n", path)
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	dir, err := config.Dir(configDir)
	if err != nil {
		return err
	}
	if err := config.Set(dir, args[0], args[1]); err != nil {
		return err
	}
	fmt.Printf("Set %s\n", args[0])
	return nil
}

func runLedgerCache(cmd *cobra.Command, args []string) error {
	a, err := newApp(configDir, verbose)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	n, err := a.refreshCatalog(ctx)
	if err != nil {
		return err
	}
	fmt.Println(tui.Success(fmt.Sprintf("Cached %d projects", n)))
	return nil
}

func runDownload(cmd *cobra.Command, args []string) error {
	start, end, _, err := selectedRange(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(configDir, verbose)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	return a.download(ctx, start, end)
}

func runValidate(cmd *cobra.Command, args []string) error {
	_, _, days, err := selectedRange(cmd)
	if err != nil {
		return err
	}
	noEdit, _ := cmd.Flags().GetBool("no-edit")

	a, err := newApp(configDir, verbose)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	errs, err := a.validate(ctx, days, !noEdit && a.interactive())
	if err != nil {
		return err
	}
	if errs > 0 {
		return fmt.Errorf("%d entries are not valid", errs)
	}
	fmt.Println(tui.Success("All entries valid"))
	return nil
}

func confirmUpload(a *app, cmd *cobra.Command, days []string) (bool, error) {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return true, nil
	}
	if !a.interactive() {
		return false, fmt.Errorf("not a terminal, pass --yes to upload without confirmation")
	}
	prompt := fmt.Sprintf("Upload %s to Harvest?", days[0])
	if len(days) > 1 {
		prompt = fmt.Sprintf("Upload %s to %s to Harvest?", days[0], days[len(days)-1])
	}
	return tui.Confirm(prompt, false, os.Stdin, os.Stdout)
}

func runUpload(cmd *cobra.Command, args []string) error {
	_, _, days, err := selectedRange(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(configDir, verbose)
	if err != nil {
		return err
	}
	defer a.Close()

	ok, err := confirmUpload(a, cmd, days)
	if err != nil || !ok {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	return a.upload(ctx, days)
}

func runTimesheet(cmd *cobra.Command, args []string) error {
	start, end, days, err := selectedRange(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(configDir, verbose)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if err := a.download(ctx, start, end); err != nil {
		return err
	}

	errs, err := a.validate(ctx, days, a.interactive())
	if err != nil {
		return err
	}
	if errs > 0 {
		fmt.Println(tui.Warning(fmt.Sprintf("%d entries are not valid and will be skipped", errs)))
	}

	ok, err := confirmUpload(a, cmd, days)
	if err != nil || !ok {
		return err
	}
	return a.upload(ctx, days)
}

func runStatus(cmd *cobra.Command, args []string) error {
	_, _, days, err := selectedRange(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(configDir, verbose)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.status(days)
}
