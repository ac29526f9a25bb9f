package docxmerge

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Options configures a generation run.
type Options struct {
	// ImageDir is the folder searched for images referenced by the dataset.
	// Empty disables image substitution.
	ImageDir string `yaml:"image_dir"`

	// ImageWidthInches is the display width of the main respondent image.
	ImageWidthInches float64 `yaml:"image_width_inches"`

	// RosterImageWidthInches is the display width of per-record images in
	// the affected-structure roster.
	RosterImageWidthInches float64 `yaml:"roster_image_width_inches"`

	// Workers caps the worker pool. Zero picks min(4, NumCPU).
	Workers int `yaml:"workers"`

	// InlineRankedNeeds also substitutes the ranked multiselect expansion
	// into plain paragraphs, in addition to its roster table.
	InlineRankedNeeds *bool `yaml:"inline_ranked_needs"`

	// ArchiveName is the name of the output archive.
	ArchiveName string `yaml:"archive_name"`
}

// DefaultOptions returns default generation options.
func DefaultOptions() Options {
	return Options{
		ImageWidthInches:       1.0,
		RosterImageWidthInches: 1.5,
		ArchiveName:            "Generated_Documents.zip",
	}
}

// ShouldInlineRankedNeeds returns whether the ranked multiselect expansion
// is substituted inline as well as into its roster table.
func (o Options) ShouldInlineRankedNeeds() bool {
	if o.InlineRankedNeeds != nil {
		return *o.InlineRankedNeeds
	}
	return true
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ImageWidthInches <= 0 {
		o.ImageWidthInches = d.ImageWidthInches
	}
	if o.RosterImageWidthInches <= 0 {
		o.RosterImageWidthInches = d.RosterImageWidthInches
	}
	if o.ArchiveName == "" {
		o.ArchiveName = d.ArchiveName
	}
	return o
}

// LoadOptionsFile reads options from a YAML settings file.
func LoadOptionsFile(path string) (Options, error) {
	opts := DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("failed to read settings file: %w", err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}
	return opts.withDefaults(), nil
}
