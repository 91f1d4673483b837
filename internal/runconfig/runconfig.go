// Package runconfig loads YAML manifests describing batches of
// timestamped benchmark runs, used to sweep settings (temperature,
// token limits) against one model and keep each sweep's results under
// a distinct display name.
package runconfig

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-livebench/internal/domain"
)

var manifestValidator = validator.New()

// displayNameTimeLayout stamps run display names as MM-dd-HH-mm.
const displayNameTimeLayout = "01-02-15-04"

// Manifest describes a sweep: one model, one benchmark, several runs
// with varying sampling settings.
type Manifest struct {
	// Model is the provider-side model identifier shared by all runs.
	Model string `yaml:"model" validate:"required"`

	// Feature labels what the sweep varies, e.g. "temperature". It
	// becomes part of each run's display name.
	Feature string `yaml:"feature" validate:"required"`

	// BenchName selects the benchmark subset, e.g.
	// "live_bench/instruction_following".
	BenchName string `yaml:"bench_name" validate:"required"`

	// APIBase optionally points every run at a custom
	// OpenAI-compatible endpoint.
	APIBase string `yaml:"api_base"`

	// Runs are executed in order, each under its own display name.
	Runs []RunSpec `yaml:"runs" validate:"required,min=1,dive"`
}

// RunSpec is one entry in a sweep.
type RunSpec struct {
	// Temperature forces a sampling temperature for this run. Nil
	// leaves per-question temperatures in effect.
	Temperature *float64 `yaml:"temperature"`

	// MaxTokens overrides the response length cap. Zero keeps the
	// CLI default.
	MaxTokens int `yaml:"max_tokens" validate:"min=0"`
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := manifestValidator.Struct(m); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfiguration, err)
	}
	return &m, nil
}

// DisplayName computes the run's model display name,
// {model}-{MM-dd-HH-mm}-{feature}-{tempX|default}, so repeated sweeps
// never collide in the answer directory.
func (m *Manifest) DisplayName(run RunSpec, now time.Time) string {
	tempStr := "default"
	if run.Temperature != nil {
		tempStr = fmt.Sprintf("temp%g", *run.Temperature)
	}
	return fmt.Sprintf("%s-%s-%s-%s", m.Model, now.Format(displayNameTimeLayout), m.Feature, tempStr)
}
