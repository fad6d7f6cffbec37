package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mrsinham/ircost/internal/util"
)

// ErrUnknownFormat is returned by Lookup for unsupported formats.
var ErrUnknownFormat = errors.New("unknown report format")

// Backend renders a Document into one output format. Back ends write only to
// the given writer.
type Backend interface {
	Name() string
	ContentType() string
	Extension() string
	Render(w io.Writer, doc Document) error
}

// Options configure the back ends.
type Options struct {
	// FontPath points to a UTF-8 TrueType font for the PDF back end. Without
	// it the core Helvetica font is used, which only covers Latin text.
	FontPath string `yaml:"font_path"`
	// Created stamps the document. Zero means now.
	Created time.Time `yaml:"-"`
	// Tags override DICOM attributes of the archived report.
	Tags util.ParsedTags `yaml:"-"`
}

// Formats lists the supported format names, default first.
func Formats() []string {
	return []string{"pdf", "txt", "png", "dcm"}
}

// Lookup returns the back end for a format name. Empty selects PDF.
func Lookup(format string, opts Options) (Backend, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), ".")) {
	case "", "pdf":
		return &PDF{Page: A4, FontPath: opts.FontPath, Created: opts.Created}, nil
	case "txt", "text":
		return Text{}, nil
	case "png":
		return &PNG{Page: A4}, nil
	case "dcm", "dicom":
		return &DICOM{Page: A4, Created: opts.Created, Tags: opts.Tags}, nil
	default:
		return nil, fmt.Errorf("%w: %s (valid: %s)", ErrUnknownFormat, format, strings.Join(Formats(), ", "))
	}
}

// Filename is the download name for a back end's output.
func Filename(b Backend) string {
	return "summary." + b.Extension()
}

// WriteFile renders doc into a new file at path. A partly written file is
// removed on error.
func WriteFile(path string, b Backend, doc Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	if err := b.Render(f, doc); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("rendering %s report: %w", b.Name(), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing report file: %w", err)
	}
	return nil
}
