// Command regiongc-tune watches a GrowthPolicy tuning file, validating and
// reloading it on every change and logging the active growth factor. It
// holds no region and applies the policy to none; it is a thin driver over
// internal/region.GrowthPolicy: the policy decision stays in the library,
// this only loads and reloads it.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/fsnotify/fsnotify"

	"github.com/orizon-lang/regiongc/internal/cli"
	"github.com/orizon-lang/regiongc/internal/region"
)

// supportedSchema bounds the tuning file's schema_version field the same
// way the package manager bounds a dependency range: a file written for
// a schema shape this binary doesn't understand should be rejected, not
// partially applied.
var supportedSchema = mustConstraint(">=1.0.0, <2.0.0")

func mustConstraint(expr string) *semver.Constraints {
	c, err := semver.NewConstraint(expr)
	if err != nil {
		panic(err)
	}

	return c
}

// tuningFile is the on-disk shape an operator edits.
type tuningFile struct {
	SchemaVersion string  `json:"schema_version"`
	GrowthFactor  float64 `json:"growth_factor"`
}

func loadPolicy(path string, logger *cli.Logger) (region.GrowthPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return region.GrowthPolicy{}, fmt.Errorf("reading tuning file: %w", err)
	}

	var tf tuningFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return region.GrowthPolicy{}, fmt.Errorf("parsing tuning file: %w", err)
	}

	sv, err := semver.NewVersion(tf.SchemaVersion)
	if err != nil {
		return region.GrowthPolicy{}, fmt.Errorf("invalid schema_version %q: %w", tf.SchemaVersion, err)
	}

	if !supportedSchema.Check(sv) {
		return region.GrowthPolicy{}, fmt.Errorf("tuning file schema %s is not in the supported range %s", sv, supportedSchema)
	}

	logger.Debug("loaded growth_factor=%.2f from schema %s", tf.GrowthFactor, sv)

	return region.GrowthPolicy{Factor: tf.GrowthFactor}, nil
}

func main() {
	path := flag.String("config", "", "path to a GrowthPolicy tuning file (JSON)")
	verbose := flag.Bool("verbose", false, "log each reload")
	flag.Parse()

	if *path == "" {
		cli.ExitWithError("--config is required")
	}

	logger := cli.NewLogger(*verbose, *verbose)

	policy, err := loadPolicy(*path, logger)
	if err != nil {
		cli.ExitWithError("%v", err)
	}

	logger.Info("active growth policy: factor=%.2f", policy.Factor)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		cli.ExitWithError("starting watcher: %v", err)
	}
	defer watcher.Close()

	if err := watcher.Add(*path); err != nil {
		cli.ExitWithError("watching %s: %v", *path, err)
	}

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}

			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			next, err := loadPolicy(*path, logger)
			if err != nil {
				logger.Warn("reload failed, keeping previous policy: %v", err)
				continue
			}

			policy = next
			logger.Info("reloaded growth policy: factor=%.2f", policy.Factor)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}

			logger.Error("watcher error: %v", err)
		}
	}
}
