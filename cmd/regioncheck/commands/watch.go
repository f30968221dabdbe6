package commands

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// debounce coalesces editor save bursts into one re-run.
const debounce = 300 * time.Millisecond

// watchCmd represents the watch command.
var watchCmd = &cobra.Command{
	Use:   "watch [packages...]",
	Short: "Re-run the analysis whenever source files change",
	Long: `Runs the same analysis as check, then watches the source tree and re-runs
it whenever a Go file is written, created or removed. Stop with Ctrl-C.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := optionsFromFlags(cmd)
		if err != nil {
			return err
		}
		return runWatch(args, opts)
	},
}

func init() {
	watchCmd.Flags().String("config", "", "Path to a yaml config with spawner, sendability and domain entries")
	watchCmd.Flags().String("dir", "", "Directory to run the go build tool in")
	watchCmd.Flags().Bool("tests", false, "Include test files")
	watchCmd.Flags().IntP("parallel", "p", 0, "Number of functions analyzed in parallel (0 = GOMAXPROCS)")
	watchCmd.Flags().StringP("output", "o", "", "Rewrite a machine-readable report after every run")
}

func runWatch(queries []string, opts checkOptions) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			log.Printf("Failed to close watcher: %v", err)
		}
	}()

	root := opts.dir
	if root == "" {
		root = "."
	}
	if err := watchGoDirs(watcher, root); err != nil {
		return err
	}

	runOnce := func() {
		report, err := runAnalysis(queries, opts)
		if err != nil {
			// Broken intermediate states are normal while editing.
			log.Printf("Analysis failed: %v", err)
			return
		}
		printReport(report)
		if opts.output != "" {
			if err := writeReport(opts.output, report); err != nil {
				log.Printf("Writing report failed: %v", err)
			}
		}
		log.Printf("Found %d possible data race(s); watching for changes", len(report.Diagnostics))
	}
	runOnce()

	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, os.Interrupt, syscall.SIGTERM)

	var pending *time.Timer
	var pendingC <-chan time.Time
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(ev.Name, ".go") {
				// A new directory may hold future Go files.
				if ev.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
						_ = watcher.Add(ev.Name)
					}
				}
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if pending == nil {
				pending = time.NewTimer(debounce)
				pendingC = pending.C
			} else {
				pending.Reset(debounce)
			}

		case <-pendingC:
			pending = nil
			pendingC = nil
			runOnce()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Watch error: %v", err)

		case <-sigC:
			return nil
		}
	}
}

// watchGoDirs registers every directory under root that is not hidden and not
// a testdata or vendor tree.
func watchGoDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && (strings.HasPrefix(name, ".") || name == "testdata" || name == "vendor") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
