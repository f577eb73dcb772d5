package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Generator is an interface so handlers can be tested with a mock.
type Generator interface {
	GenerateLeadReport(data LeadReportData) (string, error)
	GenerateSummaryReport(data SummaryReportData) (string, error)
}

type DocumentGenerator struct {
	RootDir  string // storage root, e.g. "./files"
	fontName string
}

type StageLine struct {
	Title       string
	Track       string
	Completed   bool
	CompletedBy string
	CompletedAt *time.Time
}

type LeadReportData struct {
	LeadID    int
	LeadName  string
	Address   string
	Types     []string
	Status    string
	Birddog   string
	Stages    []StageLine
	Completed int
	Total     int
	CreatedAt time.Time
	Filename  string // base name only; generated when empty
}

type SummaryLine struct {
	Label string
	Value string
}

type SummaryReportData struct {
	Title       string
	GeneratedAt time.Time
	Sections    map[string][]SummaryLine
	Order       []string // section render order
	Filename    string
}

func NewDocumentGenerator(rootDir string) *DocumentGenerator {
	return &DocumentGenerator{
		RootDir:  filepath.Clean(rootDir),
		fontName: "Helvetica",
	}
}

func (g *DocumentGenerator) GenerateLeadReport(data LeadReportData) (string, error) {
	filename := data.Filename
	if filename == "" {
		filename = fmt.Sprintf("lead_report_%d.pdf", data.LeadID)
	}
	absPath, err := g.ensureTarget(filename)
	if err != nil {
		return "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Lead Report #%d", data.LeadID), false)
	pdf.SetAuthor("Dealfi", false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	g.pageFooter(pdf)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 18)
	pdf.CellFormat(0, 10, "LEAD PROGRESS REPORT", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 12)
	sub := fmt.Sprintf("No. DF-%06d   %s", data.LeadID, data.CreatedAt.Format("01/02/2006"))
	pdf.CellFormat(0, 7, sub, "", 1, "C", false, 0, "")
	g.hr(pdf)
	pdf.Ln(3)

	g.sectionTitle(pdf, "Lead")
	g.kvLine(pdf, "Name", data.LeadName)
	g.kvLine(pdf, "Address", data.Address)
	g.kvLine(pdf, "Types", joinComma(data.Types))
	g.kvLine(pdf, "Status", data.Status)
	g.kvLine(pdf, "Submitted by", data.Birddog)
	pdf.Ln(2)
	g.hr(pdf)

	g.sectionTitle(pdf, "Progress")
	pct := 0
	if data.Total > 0 {
		pct = data.Completed * 100 / data.Total
	}
	g.kvLine(pdf, "Stages complete", fmt.Sprintf("%d of %d (%d%%)", data.Completed, data.Total, pct))
	pdf.Ln(2)
	g.hr(pdf)

	g.sectionTitle(pdf, "Stage checklist")
	pdf.SetFont(g.fontName, "", 10)
	for _, st := range data.Stages {
		mark := "[ ]"
		detail := ""
		if st.Completed {
			mark = "[x]"
			if st.CompletedBy != "" {
				detail = " - " + st.CompletedBy
			}
			if st.CompletedAt != nil {
				detail += " on " + st.CompletedAt.Format("01/02/2006")
			}
		}
		line := fmt.Sprintf("%s  %s (%s)%s", mark, st.Title, st.Track, detail)
		pdf.MultiCell(0, 6, line, "", "L", false)
	}

	if err := pdf.OutputFileAndClose(absPath); err != nil {
		return "", err
	}
	return "/" + filepath.ToSlash(filepath.Base(absPath)), nil
}

func (g *DocumentGenerator) GenerateSummaryReport(data SummaryReportData) (string, error) {
	filename := data.Filename
	if filename == "" {
		filename = fmt.Sprintf("summary_%s.pdf", data.GeneratedAt.Format("20060102"))
	}
	absPath, err := g.ensureTarget(filename)
	if err != nil {
		return "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(data.Title, false)
	pdf.SetAuthor("Dealfi", false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	g.pageFooter(pdf)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 16)
	pdf.CellFormat(0, 10, data.Title, "", 1, "C", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 7, "Generated "+data.GeneratedAt.Format("01/02/2006 15:04"), "", 1, "C", false, 0, "")
	g.hr(pdf)
	pdf.Ln(3)

	for _, name := range data.Order {
		lines, ok := data.Sections[name]
		if !ok {
			continue
		}
		g.sectionTitle(pdf, name)
		for _, l := range lines {
			g.kvLine(pdf, l.Label, l.Value)
		}
		pdf.Ln(2)
		g.hr(pdf)
	}

	if err := pdf.OutputFileAndClose(absPath); err != nil {
		return "", err
	}
	return "/" + filepath.ToSlash(filepath.Base(absPath)), nil
}

// ===== helpers =====

func (g *DocumentGenerator) ensureTarget(filename string) (string, error) {
	if err := os.MkdirAll(g.RootDir, 0o755); err != nil {
		return "", fmt.Errorf("create files dir: %w", err)
	}
	filename = filepath.Base(filename) // no path traversal
	return filepath.Join(g.RootDir, filename), nil
}

func (g *DocumentGenerator) sectionTitle(pdf *gofpdf.Fpdf, s string) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 7, s, "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
}

func (g *DocumentGenerator) kvLine(pdf *gofpdf.Fpdf, key, val string) {
	pdf.SetFont(g.fontName, "B", 11)
	pdf.CellFormat(45, 6, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, val, "", 1, "L", false, 0, "")
}

func (g *DocumentGenerator) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(20, y, 190, y)
	pdf.SetY(y + 2)
}

func (g *DocumentGenerator) pageFooter(pdf *gofpdf.Fpdf) {
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(g.fontName, "", 10)
		pdf.CellFormat(0, 10,
			fmt.Sprintf("Page %d/{nb}", pdf.PageNo()),
			"", 0, "C", false, 0, "",
		)
	})
}

func joinComma(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}
