// Package install manages matla's user directory: it fetches the TLA+
// tools jar and writes the user configuration (setup), refreshes the jar
// (update) and removes everything (uninstall).
package install

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"matla/config"
	"matla/internal/errors"
	"matla/internal/retry"
	"matla/util"
)

// jarMagic starts every zip archive, jars included.
var jarMagic = []byte("PK")

// Installer operates on one user directory.
type Installer struct {
	Dir     string // user directory
	URL     string // where to download tla2tools.jar
	Client  *http.Client
	Backoff *retry.Backoff
	Logger  *util.Logger
	Out     io.Writer // user-facing messages
}

// New returns an Installer for dir with the default download settings.
func New(dir string, logger *util.Logger, out io.Writer) *Installer {
	b := retry.New(config.DefaultDownloadAttempts)
	b.Retryable = errors.IsRetryable
	b.OnRetry = func(attempt int, err error, wait time.Duration) {
		logger.Warn("download attempt %d failed: %v (retrying in %s)", attempt, err, wait.Round(time.Millisecond))
	}
	return &Installer{
		Dir:     dir,
		URL:     config.DefaultTLA2ToolsURL,
		Client:  &http.Client{Timeout: config.DefaultDownloadTimeout},
		Backoff: b,
		Logger:  logger,
		Out:     out,
	}
}

// JarPath is where setup puts the jar.
func (i *Installer) JarPath() string { return filepath.Join(i.Dir, config.JarName) }

// SetupOptions tunes Setup.
type SetupOptions struct {
	JarPath   string // copy this jar instead of downloading
	Overwrite bool   // replace an existing setup
}

// Setup creates the user directory, installs the jar and writes a fresh
// configuration. An existing setup is left alone unless Overwrite is set.
func (i *Installer) Setup(ctx context.Context, opts SetupOptions) error {
	cfgPath := config.Path(i.Dir)
	if _, err := os.Stat(cfgPath); err == nil && !opts.Overwrite {
		i.Logger.Info("matla is already set up at %s", i.Dir)
		fmt.Fprintf(i.Out, "already set up in `%s`, use --overwrite to redo it\n", i.Dir)
		return nil
	}

	if err := os.MkdirAll(i.Dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", i.Dir, err)
	}

	jar := i.JarPath()
	if opts.JarPath != "" {
		i.Logger.Info("copying %s", opts.JarPath)
		if err := checkJar(opts.JarPath); err != nil {
			return err
		}
		if err := util.CopyFile(opts.JarPath, jar); err != nil {
			return fmt.Errorf("copying tla2tools.jar: %w", err)
		}
	} else if err := i.download(ctx, jar); err != nil {
		return err
	}

	cfg := config.Default()
	cfg.Toolchain.TLA2Tools = jar
	if err := config.Save(i.Dir, cfg); err != nil {
		return fmt.Errorf("writing configuration: %w", err)
	}
	fmt.Fprintf(i.Out, "setup complete in `%s`\n", i.Dir)
	return nil
}

// Update downloads the jar again into the configured location.
func (i *Installer) Update(ctx context.Context, cfg *config.Config) error {
	if cfg == nil || !cfg.Exists {
		return errors.ErrNotSetUp
	}
	dst := cfg.Toolchain.TLA2Tools
	if dst == "" {
		dst = i.JarPath()
	}
	if err := i.download(ctx, dst); err != nil {
		return err
	}
	if cfg.Toolchain.TLA2Tools != dst {
		cfg.Toolchain.TLA2Tools = dst
		if err := config.Save(i.Dir, cfg); err != nil {
			return fmt.Errorf("writing configuration: %w", err)
		}
	}
	fmt.Fprintf(i.Out, "updated `%s`\n", dst)
	return nil
}

// Uninstall removes the user directory. Without yes it only reports what
// would be removed.
func (i *Installer) Uninstall(yes bool) error {
	if filepath.Base(filepath.Clean(i.Dir)) != config.DirName {
		return fmt.Errorf("refusing to remove `%s`: not a matla directory", i.Dir)
	}
	if _, err := os.Stat(i.Dir); os.IsNotExist(err) {
		fmt.Fprintf(i.Out, "nothing to uninstall, `%s` does not exist\n", i.Dir)
		return nil
	}
	if !yes {
		fmt.Fprintf(i.Out, "this would remove `%s`, run again with --yes to proceed\n", i.Dir)
		return nil
	}
	if err := os.RemoveAll(i.Dir); err != nil {
		return fmt.Errorf("removing %s: %w", i.Dir, err)
	}
	fmt.Fprintf(i.Out, "removed `%s`\n", i.Dir)
	return nil
}

// ── download ─────────────────────────────────────────────────────────

// download fetches i.URL into dst, retrying transient failures. dst is
// only replaced once a complete jar has been received.
func (i *Installer) download(ctx context.Context, dst string) error {
	i.Logger.Info("downloading %s", i.URL)
	var data []byte
	err := i.Backoff.Do(ctx, func(attempt int) error {
		i.Logger.Debug("download attempt %d", attempt)
		body, err := i.fetch(ctx)
		if err != nil {
			return err
		}
		data = body
		return nil
	})
	if err != nil {
		return fmt.Errorf("downloading tla2tools.jar: %w", err)
	}
	if !bytes.HasPrefix(data, jarMagic) {
		return fmt.Errorf("downloaded file from %s is not a jar", i.URL)
	}
	i.Logger.Verbose("received %d bytes", len(data))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dst), err)
	}
	return util.WriteFileAtomic(dst, data, 0o644)
}

func (i *Installer) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.URL, nil)
	if err != nil {
		return nil, retry.Permanent(err)
	}
	resp, err := i.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, retry.Permanent(ctx.Err())
		}
		return nil, errors.Wrap("download", i.URL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, &errors.NetworkError{Op: "status", Addr: i.URL, Err: fmt.Errorf("%s", resp.Status), Retryable: true}
	case resp.StatusCode >= 400:
		return nil, retry.Permanent(&errors.NetworkError{Op: "status", Addr: i.URL, Err: fmt.Errorf("%s", resp.Status)})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errors.NetworkError{Op: "download", Addr: i.URL, Err: err, Retryable: true}
	}
	return body, nil
}

func checkJar(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	head := make([]byte, len(jarMagic))
	if _, err := io.ReadFull(f, head); err != nil || !bytes.Equal(head, jarMagic) {
		return fmt.Errorf("%s is not a jar", path)
	}
	return nil
}
