package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/emilianohg/git-global-log/internal/config"
	"github.com/emilianohg/git-global-log/internal/db"
	"github.com/emilianohg/git-global-log/internal/gitx/hooks"
	"github.com/emilianohg/git-global-log/internal/recorder"
	"github.com/emilianohg/git-global-log/internal/tui"
)

var rootCmd = &cobra.Command{
	Use:   "git-global-log",
	Short: "Global git commit logger",
	Long: `git-global-log records commit metadata from any repository on this
machine into a single local SQLite database for later analytics.`,
	Run: func(cmd *cobra.Command, args []string) {
		dbPath := mustResolveDBPath(cmd)

		database, err := db.Open(dbPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
			os.Exit(1)
		}
		defer database.Close()

		// Launch TUI
		if err := tui.Run(database); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var addCmd = &cobra.Command{
	Use:   "add <ref>",
	Short: "Log a commit (HEAD, short or full hash, or any git-resolvable ref)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dbPath := mustResolveDBPath(cmd)

		result, err := recorder.New(dbPath).Add(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if result.Replaced {
			fmt.Printf("Replaced commit %s\n", result.CommitHash[:8])
		} else {
			fmt.Printf("Recorded commit %s in %s\n", result.CommitHash[:8], result.RepoPath)
		}
	},
}

var dropCmd = &cobra.Command{
	Use:   "drop <ref>",
	Short: "Remove the logged entry for a commit",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dbPath := mustResolveDBPath(cmd)

		result, err := recorder.New(dbPath).Drop(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if result.Found {
			fmt.Printf("Removed commit %s\n", result.CommitHash)
		} else {
			fmt.Printf("Commit %s not found in log\n", result.CommitHash)
		}
	},
}

var hookCmd = &cobra.Command{
	Use:    "hook",
	Short:  "Record HEAD after a commit (called by the post-commit hook)",
	Hidden: true,
	Run: func(cmd *cobra.Command, args []string) {
		// A failing logger must never block a commit: downgrade every error
		// to a warning and exit 0.
		dbPath, err := config.ResolveDBPath(dbPathFlag(cmd))
		if err != nil {
			warnHookFailure(err, "")
			return
		}

		if _, err := recorder.New(dbPath).Add("HEAD"); err != nil {
			warnHookFailure(err, dbPath)
		}
	},
}

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Manage git hooks",
}

var hooksInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the global post-commit hook for commit logging",
	Run: func(cmd *cobra.Command, args []string) {
		if err := hooks.Install(); err != nil {
			fmt.Fprintf(os.Stderr, "Error installing hooks: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Global post-commit hook installed successfully!")
		fmt.Println("Every commit on this machine will now be logged.")
	},
}

var hooksUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the git-global-log hook",
	Run: func(cmd *cobra.Command, args []string) {
		if err := hooks.Uninstall(); err != nil {
			fmt.Fprintf(os.Stderr, "Error uninstalling hooks: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("git-global-log hook removed.")
	},
}

var importCmd = &cobra.Command{
	Use:   "import [count|date]",
	Short: "Import commits from the current git repository",
	Long: `Import historical commits from the current git repository.

Examples:
  git-global-log import 10          # Last 10 commits
  git-global-log import 2025-01-15  # Commits since date
  git-global-log import             # All commits`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := recorder.ImportOptions{}

		if len(args) > 0 {
			// Try parse as number first
			if count, err := strconv.Atoi(args[0]); err == nil {
				opts.Count = count
			} else if date, err := time.Parse("2006-01-02", args[0]); err == nil {
				opts.Since = date
			} else {
				fmt.Fprintf(os.Stderr, "Invalid argument: %s (expected number or YYYY-MM-DD)\n", args[0])
				os.Exit(1)
			}
		}

		opts.Branch, _ = cmd.Flags().GetString("branch")

		dbPath := mustResolveDBPath(cmd)

		fmt.Println("Importing commits...")

		result, err := recorder.New(dbPath).Import(opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Repository: %s\n", result.RepoPath)
		fmt.Printf("Found: %d commits\n", result.TotalFound)
		fmt.Printf("Imported: %d\n", result.Imported)
		fmt.Printf("Replaced: %d (already recorded)\n", result.Replaced)
	},
}

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse recorded commits",
	Run:   rootCmd.Run,
}

func init() {
	rootCmd.PersistentFlags().String("db-path", "", "Path to the commit log database")

	importCmd.Flags().StringP("branch", "b", "", "Specific branch (default: all branches)")

	hooksCmd.AddCommand(hooksInstallCmd)
	hooksCmd.AddCommand(hooksUninstallCmd)

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(hooksCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(browseCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func dbPathFlag(cmd *cobra.Command) string {
	value, _ := cmd.Flags().GetString("db-path")
	return value
}

func mustResolveDBPath(cmd *cobra.Command) string {
	dbPath, err := config.ResolveDBPath(dbPathFlag(cmd))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving database path: %v\n", err)
		os.Exit(1)
	}
	return dbPath
}

// warnHookFailure prints the remediation hint and records the failure in the
// error log, then lets the hook exit 0.
func warnHookFailure(err error, dbPath string) {
	fmt.Fprintf(os.Stderr, "git-global-log: warning: %v\n", err)
	fmt.Fprintf(os.Stderr, "git-global-log: %s\n", remediationHint(dbPath))
	logError(err)
}

// remediationHint names the exact command to re-run, including the database
// path the hook resolved.
func remediationHint(dbPath string) string {
	command := "git-global-log add HEAD"
	if dbPath != "" {
		command += " --db-path " + dbPath
	}
	return fmt.Sprintf("run '%s' to log this commit manually", command)
}

func logError(err error) {
	logPath, pathErr := config.ErrorLogPath()
	if pathErr != nil {
		return
	}

	// Ensure directory exists
	if dirErr := config.EnsureConfigDir(); dirErr != nil {
		return
	}

	f, fileErr := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if fileErr != nil {
		return
	}
	defer f.Close()

	fmt.Fprintf(f, "[%s] %v\n", time.Now().Format(time.RFC3339), err)
}
