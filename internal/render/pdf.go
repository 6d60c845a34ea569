package render

import (
    "bytes"
    "fmt"

    "github.com/jung-kurt/gofpdf"
)

// PDF writes the page as a printable A4 document to outPath. Cropped menu
// images are embedded scaled to the text width.
func PDF(p Page, outPath string) error {
    pdf := gofpdf.New("P", "mm", "A4", "")
    // Core fonts are cp1252; translate so å, ä and ö survive.
    tr := pdf.UnicodeTranslatorFromDescriptor("")
    pdf.SetTitle(p.Title(), true)
    pdf.AddPage()

    pdf.SetFont("Helvetica", "B", 16)
    pdf.CellFormat(0, 10, tr(p.Title()), "", 1, "C", false, 0, "")
    pdf.SetFont("Helvetica", "", 11)
    pdf.CellFormat(0, 6, tr(p.DayLabel()), "", 1, "C", false, 0, "")
    pdf.Ln(4)

    left, _, right, _ := pdf.GetMargins()
    pageW, _ := pdf.GetPageSize()
    width := pageW - left - right

    for i, c := range p.Cards {
        pdf.SetFont("Helvetica", "B", 13)
        pdf.CellFormat(0, 8, tr(c.Name), "", 1, "L", false, 0, "")
        if c.URL != "" {
            pdf.SetFont("Helvetica", "", 8)
            pdf.WriteLinkString(4, c.URL, c.URL)
            pdf.Ln(5)
        }
        pdf.SetFont("Helvetica", "", 11)
        if !c.Available() {
            pdf.SetFont("Helvetica", "I", 11)
            pdf.SetTextColor(0x77, 0x77, 0x77)
            pdf.MultiCell(0, 5, tr(Placeholder), "", "L", false)
            pdf.SetTextColor(0, 0, 0)
            pdf.SetFont("Helvetica", "", 11)
        }
        for _, it := range c.Items {
            pdf.MultiCell(0, 5, tr("• "+it), "", "L", false)
        }
        if len(c.ImagePNG) > 0 {
            name := fmt.Sprintf("card-%d", i)
            opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
            pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(c.ImagePNG))
            pdf.ImageOptions(name, left, pdf.GetY()+2, width, 0, true, opts, 0, "")
        }
        pdf.Ln(6)
    }

    return pdf.OutputFileAndClose(outPath)
}
