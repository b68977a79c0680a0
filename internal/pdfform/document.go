// Package pdfform walks a PDF template's page/annotation tree to discover
// fillable AcroForm fields and to write normalized record values into them.
package pdfform

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

const outputDirPerm = 0o750

// Document is a loaded PDF form template. The underlying pdfcpu context is
// mutated in place by Fill and handed off to Save; the input file itself is
// never modified.
type Document struct {
	ctx  *model.Context
	path string
}

// Open loads a PDF template into a page/annotation tree.
func Open(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF file: %w", err)
	}
	defer file.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(file, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}

	return &Document{ctx: ctx, path: path}, nil
}

// Path returns the path the document was loaded from.
func (d *Document) Path() string {
	return d.path
}

// PageCount returns the number of pages in the template.
func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

// Save persists the (possibly mutated) document to outPath, creating the
// output directory if needed. The form's NeedAppearances flag is set so any
// viewer regenerates field appearances on open.
func (d *Document) Save(outPath string) error {
	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, outputDirPerm); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}

	if err := d.markNeedAppearances(); err != nil {
		return err
	}

	if err := api.WriteContextFile(d.ctx, outPath); err != nil {
		return fmt.Errorf("failed to write PDF to %s: %w", outPath, err)
	}
	return nil
}

// markNeedAppearances sets AcroForm/NeedAppearances in the document catalog.
func (d *Document) markNeedAppearances() error {
	rootDict, err := d.ctx.Catalog()
	if err != nil {
		return fmt.Errorf("failed to get catalog: %w", err)
	}

	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		// Template without an interactive form; nothing to flag.
		return nil
	}
	acroFormDict, err := d.ctx.DereferenceDict(acroFormObj)
	if err != nil {
		return fmt.Errorf("failed to dereference AcroForm: %w", err)
	}
	if acroFormDict != nil {
		acroFormDict["NeedAppearances"] = types.Boolean(true)
	}
	return nil
}
