// Package document wraps the pdfcpu engine behind the small set of structural
// operations the PDF tools need: load a document from bytes, copy pages into a
// new document, concatenate documents and serialise with write options.
package document

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ValidationMode controls how strictly the engine validates loaded documents.
type ValidationMode string

const (
	ValidationRelaxed ValidationMode = "relaxed"
	ValidationStrict  ValidationMode = "strict"
)

var (
	modeMu         sync.RWMutex
	validationMode = ValidationRelaxed
)

func init() {
	// Keep pdfcpu from creating a configuration directory in the user's home.
	api.DisableConfigDir()
}

// ParseValidationMode converts a configuration string into a ValidationMode.
func ParseValidationMode(s string) (ValidationMode, error) {
	switch ValidationMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ValidationRelaxed:
		return ValidationRelaxed, nil
	case ValidationStrict:
		return ValidationStrict, nil
	default:
		return "", fmt.Errorf("unknown validation mode %q (expected relaxed or strict)", s)
	}
}

// SetValidationMode sets the validation mode used by NewConfiguration.
func SetValidationMode(mode ValidationMode) {
	modeMu.Lock()
	defer modeMu.Unlock()
	validationMode = mode
}

// GetValidationMode returns the current validation mode.
func GetValidationMode() ValidationMode {
	modeMu.RLock()
	defer modeMu.RUnlock()
	return validationMode
}

// NewConfiguration returns a fresh engine configuration. pdfcpu mutates the
// configuration it is handed, so every load, merge and write gets its own.
func NewConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	if GetValidationMode() == ValidationStrict {
		conf.ValidationMode = model.ValidationStrict
	} else {
		conf.ValidationMode = model.ValidationRelaxed
	}
	return conf
}

// Document is a loaded PDF. It is owned by a single request and must not be
// shared between goroutines.
type Document struct {
	Name string

	raw []byte
	ctx *model.Context
}

// Load parses data into a Document. The name is only used for error messages
// and output metadata.
func Load(name string, data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%s is empty", name)
	}

	ctx, err := api.ReadContext(bytes.NewReader(data), NewConfiguration())
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to validate %s: %w", name, err)
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to count pages of %s: %w", name, err)
	}

	return &Document{Name: name, raw: data, ctx: ctx}, nil
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

// Size returns the length in bytes of the data the document was loaded from.
// Documents derived with Extract report zero.
func (d *Document) Size() int {
	return len(d.raw)
}

// Metadata returns selected document information dictionary entries.
func (d *Document) Metadata() Metadata {
	return Metadata{
		Title:    d.ctx.Title,
		Author:   d.ctx.Author,
		Producer: d.ctx.Producer,
	}
}

// Metadata holds document information dictionary entries.
type Metadata struct {
	Title    string `json:"title,omitempty"`
	Author   string `json:"author,omitempty"`
	Producer string `json:"producer,omitempty"`
}

// PageSizes returns the media box dimensions of every page in page order.
func (d *Document) PageSizes() ([]types.Dim, error) {
	if d.raw == nil {
		return nil, fmt.Errorf("page sizes are only available for loaded documents")
	}
	return api.PageDims(bytes.NewReader(d.raw), NewConfiguration())
}

// Extract copies the selected pages, in selection order, into a new document.
func (d *Document) Extract(sel PageSelection) (*Document, error) {
	if sel.Len() == 0 {
		return nil, fmt.Errorf("no pages selected from %s", d.Name)
	}
	if last := sel.Indices()[sel.Len()-1]; last >= d.PageCount() {
		return nil, fmt.Errorf("page index %d out of range for %s (%d pages)", last, d.Name, d.PageCount())
	}

	ctx, err := pdfcpu.ExtractPages(d.ctx, sel.PageNumbers(), false)
	if err != nil {
		return nil, fmt.Errorf("failed to extract pages %s from %s: %w", sel, d.Name, err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to count extracted pages: %w", err)
	}

	return &Document{Name: d.Name, ctx: ctx}, nil
}

// WriteOptions control serialisation.
type WriteOptions struct {
	// ObjectStreams packs non-stream objects into object streams and writes
	// an xref stream instead of a classic xref table.
	ObjectStreams bool

	// RequestFieldAppearances asks viewers to regenerate form field
	// appearances by setting NeedAppearances on the interactive form.
	// Documents without an interactive form are unaffected.
	RequestFieldAppearances bool
}

// DefaultWriteOptions mirror the engine defaults used for merge and split output.
func DefaultWriteOptions() WriteOptions {
	return WriteOptions{ObjectStreams: true}
}

// Write serialises the document to w.
func (d *Document) Write(w io.Writer, opts WriteOptions) error {
	d.ctx.Configuration.WriteObjectStream = opts.ObjectStreams
	d.ctx.Configuration.WriteXRefStream = opts.ObjectStreams

	if opts.RequestFieldAppearances {
		if err := d.requestFieldAppearances(); err != nil {
			return fmt.Errorf("failed to update interactive form of %s: %w", d.Name, err)
		}
	}

	if err := api.WriteContext(d.ctx, w); err != nil {
		return fmt.Errorf("failed to write %s: %w", d.Name, err)
	}
	return nil
}

// Bytes serialises the document with opts and returns the result.
func (d *Document) Bytes(opts WriteOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Write(&buf, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// HasForm reports whether the document has an interactive form.
func (d *Document) HasForm() bool {
	form, err := d.form()
	return err == nil && form != nil
}

// NeedsAppearances reports whether the interactive form asks viewers to
// regenerate field appearances.
func (d *Document) NeedsAppearances() bool {
	form, err := d.form()
	if err != nil || form == nil {
		return false
	}
	v := form.BooleanEntry("NeedAppearances")
	return v != nil && *v
}

func (d *Document) form() (types.Dict, error) {
	root, err := d.ctx.Catalog()
	if err != nil {
		return nil, err
	}

	obj, found := root.Find("AcroForm")
	if !found || obj == nil {
		return nil, nil
	}

	return d.ctx.DereferenceDict(obj)
}

func (d *Document) requestFieldAppearances() error {
	form, err := d.form()
	if err != nil {
		return err
	}
	if form == nil {
		return nil
	}

	form["NeedAppearances"] = types.Boolean(true)
	return nil
}

// Merge concatenates every page of docs, in order, and writes the result to w.
// Every document must have been produced by Load.
func Merge(docs []*Document, w io.Writer) error {
	if len(docs) == 0 {
		return fmt.Errorf("nothing to merge")
	}

	readers := make([]io.ReadSeeker, 0, len(docs))
	for _, d := range docs {
		if d.raw == nil {
			return fmt.Errorf("%s has no source data to merge from", d.Name)
		}
		readers = append(readers, bytes.NewReader(d.raw))
	}

	if err := api.MergeRaw(readers, w, false, NewConfiguration()); err != nil {
		return fmt.Errorf("failed to merge %d documents: %w", len(docs), err)
	}
	return nil
}
