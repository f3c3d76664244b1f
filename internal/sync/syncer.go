package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Options configures the sync loop.
type Options struct {
	// SyncDir is the local directory to watch recursively.
	SyncDir string

	// SyncRoot is the remote path prefix files are synced under.
	SyncRoot string

	// Debounce is the quiet period before a change batch is pushed.
	Debounce time.Duration

	// IgnorePatterns are additional glob patterns (matched against the
	// base name) to skip, on top of the built-in hidden/temp-file rules.
	IgnorePatterns []string

	// Logger is used for structured logging.
	Logger *slog.Logger

	// Out is the writer for user-facing status messages.
	Out io.Writer
}

// DefaultOptions returns sensible default sync options.
func DefaultOptions() Options {
	return Options{
		Debounce: 500 * time.Millisecond,
		Logger:   slog.Default(),
		Out:      os.Stderr,
	}
}

// Run uploads the full sync directory once, then watches it and pushes
// changes until the context is cancelled or SIGINT/SIGTERM arrives.
// Individual upload failures are reported and do not stop the loop.
func Run(ctx context.Context, opts Options, client *Client) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Out == nil {
		opts.Out = io.Discard
	}

	syncDir, err := filepath.Abs(opts.SyncDir)
	if err != nil {
		return fmt.Errorf("resolving sync directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := addRecursive(watcher, syncDir); err != nil {
		return fmt.Errorf("watching sync directory: %w", err)
	}

	// Trap SIGINT / SIGTERM for graceful shutdown.
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(opts.Out, "syncing %s (debounce=%s)\n", syncDir, opts.Debounce)

	// Initial full upload.
	if err := fullSync(sigCtx, opts, client, syncDir); err != nil {
		return err
	}

	debouncer := NewDebouncer(opts.Debounce, func(paths []string) {
		handleBatch(sigCtx, opts, client, watcher, syncDir, paths)
	})
	defer debouncer.Stop()

	for {
		select {
		case <-sigCtx.Done():
			fmt.Fprintln(opts.Out, "\nshutting down sync")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !isRelevant(event, opts.IgnorePatterns) {
				continue
			}

			debouncer.Trigger(event.Name)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			opts.Logger.Error("watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// fullSync uploads every file under syncDir. Individual upload failures
// are logged and counted; they do not abort the walk.
func fullSync(ctx context.Context, opts Options, client *Client, syncDir string) error {
	var count, failed int

	err := filepath.WalkDir(syncDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if ignoredDir(d.Name()) && p != syncDir {
				return filepath.SkipDir
			}

			return nil
		}

		if ignoredName(d.Name(), opts.IgnorePatterns) {
			return nil
		}

		rel, relErr := remotePath(syncDir, opts.SyncRoot, p)
		if relErr != nil {
			return relErr
		}

		if upErr := client.UpdateFile(ctx, rel, p); upErr != nil {
			opts.Logger.Error("upload failed", slog.String("path", rel), slog.String("error", upErr.Error()))
			failed++

			return nil
		}

		count++

		return nil
	})
	if err != nil {
		return err
	}

	status := fmt.Sprintf("[%s] initial sync → %d files", timestamp(), count)
	if failed > 0 {
		status += fmt.Sprintf(", %d FAILED", failed)
	}

	fmt.Fprintln(opts.Out, status)

	return nil
}

// handleBatch reconciles one debounced batch of changed paths.
func handleBatch(ctx context.Context, opts Options, client *Client, watcher *fsnotify.Watcher, syncDir string, paths []string) {
	var updated, deleted, failed int

	for _, p := range paths {
		rel, err := remotePath(syncDir, opts.SyncRoot, p)
		if err != nil {
			opts.Logger.Error("resolving path", slog.String("path", p), slog.String("error", err.Error()))
			failed++

			continue
		}

		info, statErr := os.Stat(p)

		switch {
		case statErr != nil:
			// Only a confirmed absence triggers a remote delete; other
			// stat errors (permissions etc.) must not destroy remote state.
			if !errors.Is(statErr, fs.ErrNotExist) {
				opts.Logger.Error("stat failed", slog.String("path", p), slog.String("error", statErr.Error()))
				failed++

				continue
			}

			// Gone locally → delete remotely.
			if err := client.DeleteFile(ctx, rel); err != nil {
				opts.Logger.Error("delete failed", slog.String("path", rel), slog.String("error", err.Error()))
				failed++
			} else {
				deleted++
			}

		case info.IsDir():
			// New directory: watch it and upload its contents.
			_ = addRecursive(watcher, p)

			if err := uploadTree(ctx, opts, client, watcher, syncDir, p, &updated); err != nil {
				opts.Logger.Error("upload failed", slog.String("path", rel), slog.String("error", err.Error()))
				failed++
			}

		default:
			if err := client.UpdateFile(ctx, rel, p); err != nil {
				opts.Logger.Error("upload failed", slog.String("path", rel), slog.String("error", err.Error()))
				failed++
			} else {
				updated++
			}
		}
	}

	status := fmt.Sprintf("[%s] sync → %d updated, %d deleted", timestamp(), updated, deleted)
	if failed > 0 {
		status += fmt.Sprintf(", %d FAILED", failed)
	}

	fmt.Fprintln(opts.Out, status)
}

// uploadTree uploads all files under root.
func uploadTree(ctx context.Context, opts Options, client *Client, watcher *fsnotify.Watcher, syncDir, root string, updated *int) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if ignoredDir(d.Name()) && p != root {
				return filepath.SkipDir
			}

			return nil
		}

		if ignoredName(d.Name(), opts.IgnorePatterns) {
			return nil
		}

		rel, relErr := remotePath(syncDir, opts.SyncRoot, p)
		if relErr != nil {
			return relErr
		}

		if upErr := client.UpdateFile(ctx, rel, p); upErr != nil {
			return upErr
		}

		*updated++

		return nil
	})
}

// remotePath computes the slash-separated remote path for a local file.
func remotePath(syncDir, syncRoot, localPath string) (string, error) {
	rel, err := filepath.Rel(syncDir, localPath)
	if err != nil {
		return "", fmt.Errorf("relativizing %q: %w", localPath, err)
	}

	rel = filepath.ToSlash(rel)

	if syncRoot == "" {
		return rel, nil
	}

	return path.Join(syncRoot, rel), nil
}

// addRecursive walks root and adds all non-hidden directories to the watcher.
func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if ignoredDir(d.Name()) && p != root {
				return filepath.SkipDir
			}

			return watcher.Add(p)
		}

		return nil
	})
}

// isRelevant filters out events on files that should never sync.
func isRelevant(event fsnotify.Event, ignorePatterns []string) bool {
	if event.Op == 0 {
		return false
	}

	// Only care about write, create, remove, rename.
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	return !ignoredName(filepath.Base(event.Name), ignorePatterns)
}

// ignoredName reports whether a base name matches the built-in skip rules
// (hidden files, editor temp files) or a user-supplied ignore pattern.
func ignoredName(name string, patterns []string) bool {
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") || strings.HasPrefix(name, "#") {
		return true
	}

	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}

	return false
}

// ignoredDir reports whether a directory should be excluded from watching.
func ignoredDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "__pycache__" || name == "node_modules"
}

// timestamp formats the current wall-clock time for status lines.
func timestamp() string {
	return time.Now().Format("15:04:05")
}
