// Package tapefile reads and writes tape documents: YAML files describing a
// tape and its clips outside the catalog database. The export and inspect
// commands accept these so a tape can be rendered without a running daemon.
package tapefile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/tapedeck/internal/models"
)

// Document is the on-disk form of a tape.
type Document struct {
	Name        string             `yaml:"name"`
	Orientation models.Orientation `yaml:"orientation,omitempty"`
	ScaleMode   models.ScaleMode   `yaml:"scale_mode,omitempty"`
	Transition  TransitionDoc      `yaml:"transition,omitempty"`
	Clips       []ClipDoc          `yaml:"clips"`
}

// TransitionDoc is the tape-wide transition setting.
type TransitionDoc struct {
	Style    models.TransitionStyle `yaml:"style,omitempty"`
	Duration models.Duration        `yaml:"duration,omitempty"`
}

// ClipDoc is the on-disk form of one clip.
type ClipDoc struct {
	Kind      models.MediaKind `yaml:"kind"`
	Path      string           `yaml:"path,omitempty"`
	URL       string           `yaml:"url,omitempty"`
	Duration  models.Duration  `yaml:"duration,omitempty"`
	TrimStart models.Duration  `yaml:"trim_start,omitempty"`
	TrimEnd   models.Duration  `yaml:"trim_end,omitempty"`
	Rotation  int              `yaml:"rotation,omitempty"`
	Scale     models.ScaleMode `yaml:"scale,omitempty"`
}

// Load reads a tape document and converts it to a validated tape model.
// The tape and its clips get fresh ULIDs; identity is per-load, which keeps
// the derived boundary style sequence stable for the run but not across runs.
func Load(path string) (*models.Tape, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tape document: %w", err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing tape document %s: %w", path, err)
	}
	return doc.Tape()
}

// Save writes a tape model as a tape document.
func Save(path string, tape *models.Tape) error {
	data, err := yaml.Marshal(FromTape(tape))
	if err != nil {
		return fmt.Errorf("marshaling tape document: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing tape document: %w", err)
	}
	return nil
}

// Tape converts the document to a validated tape model.
func (d *Document) Tape() (*models.Tape, error) {
	tape := &models.Tape{
		Name:               d.Name,
		Orientation:        d.Orientation,
		ScaleMode:          d.ScaleMode,
		TransitionStyle:    d.Transition.Style,
		TransitionDuration: d.Transition.Duration,
	}
	tape.ID = models.NewULID()
	if tape.Orientation == "" {
		tape.Orientation = models.OrientationLandscape
	}
	if tape.ScaleMode == models.ScaleModeInherit {
		tape.ScaleMode = models.ScaleModeFit
	}
	if tape.TransitionStyle == "" {
		tape.TransitionStyle = models.TransitionNone
	}
	if err := tape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tape document: %w", err)
	}

	tape.Clips = make([]models.Clip, len(d.Clips))
	for i, cd := range d.Clips {
		clip := models.Clip{
			TapeID:        tape.ID,
			Position:      i,
			Kind:          cd.Kind,
			SourcePath:    cd.Path,
			AssetURL:      cd.URL,
			MediaDuration: cd.Duration,
			TrimStart:     cd.TrimStart,
			TrimEnd:       cd.TrimEnd,
			Rotation:      cd.Rotation,
			ScaleOverride: cd.Scale,
		}
		clip.ID = models.NewULID()
		if err := clip.Validate(); err != nil {
			return nil, fmt.Errorf("invalid clip %d: %w", i, err)
		}
		tape.Clips[i] = clip
	}
	return tape, nil
}

// FromTape converts a tape model to its document form.
func FromTape(tape *models.Tape) *Document {
	doc := &Document{
		Name:        tape.Name,
		Orientation: tape.Orientation,
		ScaleMode:   tape.ScaleMode,
		Transition: TransitionDoc{
			Style:    tape.TransitionStyle,
			Duration: tape.TransitionDuration,
		},
		Clips: make([]ClipDoc, len(tape.Clips)),
	}
	for i := range tape.Clips {
		c := &tape.Clips[i]
		doc.Clips[i] = ClipDoc{
			Kind:      c.Kind,
			Path:      c.SourcePath,
			URL:       c.AssetURL,
			Duration:  c.MediaDuration,
			TrimStart: c.TrimStart,
			TrimEnd:   c.TrimEnd,
			Rotation:  c.Rotation,
			Scale:     c.ScaleOverride,
		}
	}
	return doc
}
