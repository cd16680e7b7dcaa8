// Package modca builds MO:DCA documents: the begin/end envelopes of
// documents, page groups, pages and overlays, the data objects placed
// on them, and the resource groups that let repeated objects be encoded
// once and included by name.
package modca

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wudi/afpkit/codec"
	"github.com/wudi/afpkit/field"
	"github.com/wudi/afpkit/ptoca"
	"github.com/wudi/afpkit/resources"
)

var (
	// ErrDataStreamComplete is returned by every call made after
	// EndDocument.
	ErrDataStreamComplete = errors.New("data stream already complete")
	// ErrContainerEnded is returned by content calls on an ended page,
	// overlay, page group or document.
	ErrContainerEnded = errors.New("container already ended")
	ErrNoDocument     = errors.New("no document started")
	ErrNoPage         = errors.New("no current page")
	ErrPageOpen       = errors.New("a page is still open")
)

// DefaultResolution is the page resolution in dots per inch.
const DefaultResolution = 240

// Config controls how a DataStream encodes documents.
type Config struct {
	InterchangeSet resources.InterchangeSet `yaml:"interchange_set"`
	// Encoding is the code page used for names and tag values.
	Encoding string `yaml:"encoding"`
	// ResourceLevel is where data objects are kept when the caller does
	// not ask for a level. Unset means print-file; Inline embeds every
	// object in its page.
	ResourceLevel resources.Level `yaml:"resource_level"`
	// ExternalResourceGroup is the file receiving External level objects.
	ExternalResourceGroup string `yaml:"external_resource_group"`
	// MaxTextRecordSize bounds one PTX field, header included.
	MaxTextRecordSize int `yaml:"max_text_record_size"`
	// SpoolToFile keeps the document in a temporary file instead of
	// memory until the print-file resource group has been written.
	SpoolToFile bool   `yaml:"spool_to_file"`
	SpoolDir    string `yaml:"spool_dir"`
	// DeduplicateContent shares objects without a URI when their bytes
	// are identical.
	DeduplicateContent bool `yaml:"deduplicate_content"`
	// PageSegments wraps print-file and external images in page segments
	// included with IPS.
	PageSegments bool `yaml:"page_segments"`
	Resolution   int  `yaml:"resolution"`
}

// DefaultConfig returns the settings used for zero fields of a Config.
func DefaultConfig() Config {
	return Config{
		InterchangeSet:    resources.IS2,
		Encoding:          codec.DefaultEncoding,
		ResourceLevel:     resources.PrintFile,
		MaxTextRecordSize: ptoca.DefaultMaxRecordSize,
		Resolution:        DefaultResolution,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.InterchangeSet == 0 {
		c.InterchangeSet = d.InterchangeSet
	}
	if c.ResourceLevel == resources.Unset {
		c.ResourceLevel = d.ResourceLevel
	}
	if c.Encoding == "" {
		c.Encoding = d.Encoding
	}
	if c.MaxTextRecordSize == 0 {
		c.MaxTextRecordSize = d.MaxTextRecordSize
	}
	if c.Resolution == 0 {
		c.Resolution = d.Resolution
	}
	return c
}

// Validate reports settings that cannot be encoded.
func (c Config) Validate() error {
	var problems []string
	if c.InterchangeSet < resources.IS1 || c.InterchangeSet > resources.IS3 {
		problems = append(problems, fmt.Sprintf("interchange set %d", int(c.InterchangeSet)))
	}
	if c.MaxTextRecordSize != 0 && (c.MaxTextRecordSize < 64 || c.MaxTextRecordSize > field.MaxLength+1) {
		problems = append(problems, fmt.Sprintf("max text record size %d", c.MaxTextRecordSize))
	}
	if c.Resolution < 0 || c.Resolution > 3276 {
		problems = append(problems, fmt.Sprintf("resolution %d", c.Resolution))
	}
	if c.ResourceLevel == resources.External && c.ExternalResourceGroup == "" {
		problems = append(problems, "external resource level without external_resource_group")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ObjectArea places a data object on a page. Positions and sizes are in
// units of the resolution, which is in dots per inch.
type ObjectArea struct {
	X, Y          int
	Width, Height int
	Rotation      int
	XRes, YRes    int
}

func (a ObjectArea) unitsX() int { return resolutionUnits(a.XRes) }
func (a ObjectArea) unitsY() int { return resolutionUnits(a.YRes) }

// resolutionUnits converts dots per inch to units per ten inches.
func resolutionUnits(dpi int) int {
	if dpi <= 0 {
		dpi = DefaultResolution
	}
	return dpi * 10
}
