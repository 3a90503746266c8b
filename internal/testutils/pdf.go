package testutils

import (
	"bytes"
	"fmt"
	"strings"
)

// PDFOptions describe a generated fixture document.
type PDFOptions struct {
	// Widths holds one MediaBox width per page. Pages are 792pt high.
	Widths []float64
	Title  string
	Author string
	// Form adds an interactive form with one text field on the first page.
	Form bool
}

// NPagePDF returns a valid document with n pages of widths 100, 110, 120, ...
// so page order can be observed from the page dimensions.
func NPagePDF(n int) []byte {
	return BuildPDF(PDFOptions{Widths: Widths(100, n)})
}

// Widths returns n distinct widths starting at start in steps of 10.
func Widths(start float64, n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = start + float64(i)*10
	}
	return w
}

// BuildPDF writes a minimal but structurally complete PDF with a classic
// cross-reference table.
func BuildPDF(opts PDFOptions) []byte {
	n := len(opts.Widths)

	// 1 catalog, 2 page tree, then a page and content stream per page,
	// then an optional info dictionary.
	var objects []string

	// The form field, when present, follows the pages.
	field := 3 + 2*n

	catalog := "<< /Type /Catalog /Pages 2 0 R"
	if opts.Form {
		catalog += fmt.Sprintf(" /AcroForm << /Fields [%d 0 R] /DA (/Helv 0 Tf 0 g) >>", field)
	}
	catalog += " >>"
	objects = append(objects, catalog)

	kids := make([]string, n)
	for i := range n {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n))

	for i, w := range opts.Widths {
		content := fmt.Sprintf("0 0 m %g 400 l S", w)
		annots := ""
		if opts.Form && i == 0 {
			annots = fmt.Sprintf(" /Annots [%d 0 R]", field)
		}
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g 792] /Resources << >> /Contents %d 0 R%s >>", w, 4+2*i, annots),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	if opts.Form {
		objects = append(objects, "<< /Type /Annot /Subtype /Widget /FT /Tx /T (name) /F 4 /Rect [10 10 90 40] /P 3 0 R /DA (/Helv 12 Tf 0 g) >>")
	}

	infoRef := ""
	if opts.Title != "" || opts.Author != "" {
		var info strings.Builder
		info.WriteString("<<")
		if opts.Title != "" {
			fmt.Fprintf(&info, " /Title (%s)", opts.Title)
		}
		if opts.Author != "" {
			fmt.Fprintf(&info, " /Author (%s)", opts.Author)
		}
		info.WriteString(" >>")
		objects = append(objects, info.String())
		infoRef = fmt.Sprintf(" /Info %d 0 R", len(objects))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R%s >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, infoRef, xref)

	return buf.Bytes()
}
