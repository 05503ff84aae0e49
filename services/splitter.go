package services

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	"github.com/lu4p/cat/docxtxt"
	"github.com/xuri/excelize/v2"

	"rag-chat-platform/models"
)

// Extensions the splitter accepts. Anything else is ErrUnsupportedFileType.
var supportedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".pptx": true,
	".xlsx": true,
	".html": true,
}

// idCharset strips everything the index backend cannot take in a key.
var idCharset = regexp.MustCompile(`[^0-9a-zA-Z_-]`)

// slideTextRun matches <a:t>text</a:t> runs inside pptx slide XML.
var slideTextRun = regexp.MustCompile(`<a:t[^>]*>([^<]*)</a:t>`)

// PassageID derives the deterministic index key for one page of one source
// file. Equal inputs always produce equal IDs; that is what makes
// re-ingestion overwrite instead of duplicate.
func PassageID(sourceFile string, page int) string {
	base := strings.TrimSuffix(filepath.Base(sourceFile), filepath.Ext(sourceFile))
	return fmt.Sprintf("%s-%d", idCharset.ReplaceAllString(base, "_"), page)
}

// PageBlobName is the name of the per-page text artifact in the corpus store.
func PageBlobName(sourceFile string, page int) string {
	base := strings.TrimSuffix(filepath.Base(sourceFile), filepath.Ext(sourceFile))
	return fmt.Sprintf("%s-%d.txt", base, page)
}

// SourcePageName labels a page for citations, e.g. "Benefit_Options.pdf#2".
func SourcePageName(sourceFile string, page int) string {
	return fmt.Sprintf("%s#%d", filepath.Base(sourceFile), page)
}

// DocumentSplitter extracts per-page plain text from raw documents.
type DocumentSplitter struct{}

func NewDocumentSplitter() *DocumentSplitter {
	return &DocumentSplitter{}
}

// ExtractPages returns the ordered per-page text of the document. Page
// numbers start at 0. Documents with no extractable text yield an empty
// sequence, which is valid.
func (s *DocumentSplitter) ExtractPages(data []byte, fileName string) ([]models.Page, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if !supportedExtensions[ext] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, ext)
	}

	switch ext {
	case ".pdf":
		return s.extractPDF(data)
	case ".docx":
		return s.extractDOCX(data)
	case ".pptx":
		return s.extractPPTX(data)
	case ".xlsx":
		return s.extractXLSX(data)
	case ".html":
		return s.extractHTML(data)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, ext)
}

func (s *DocumentSplitter) extractPDF(data []byte) ([]models.Page, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	var pages []models.Page
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Pages that cannot be decoded still occupy their slot so the
			// page numbering stays aligned with the source document.
			text = ""
		}
		pages = append(pages, models.Page{Number: i - 1, Text: normalizeText(text)})
	}
	return pages, nil
}

func (s *DocumentSplitter) extractDOCX(data []byte) ([]models.Page, error) {
	text, err := docxtxt.BytesToStr(data)
	if err != nil {
		return nil, fmt.Errorf("failed to read docx: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return []models.Page{{Number: 0, Text: normalizeText(text)}}, nil
}

// extractPPTX pulls the <a:t> text runs out of each slide. One page per
// slide, ordered by slide number.
func (s *DocumentSplitter) extractPPTX(data []byte) ([]models.Page, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to read pptx: %w", err)
	}

	slideNumber := regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)
	slides := map[int]string{}
	maxSlide := 0
	for _, f := range zr.File {
		m := slideNumber.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n := 0
		fmt.Sscanf(m[1], "%d", &n)
		rc, err := f.Open()
		if err != nil {
			continue
		}
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(rc)
		rc.Close()

		var parts []string
		for _, run := range slideTextRun.FindAllStringSubmatch(buf.String(), -1) {
			if t := strings.TrimSpace(run[1]); t != "" {
				parts = append(parts, t)
			}
		}
		slides[n] = strings.Join(parts, " ")
		if n > maxSlide {
			maxSlide = n
		}
	}

	var pages []models.Page
	for n := 1; n <= maxSlide; n++ {
		if text, ok := slides[n]; ok {
			pages = append(pages, models.Page{Number: n - 1, Text: text})
		}
	}
	return pages, nil
}

// extractXLSX emits one page per sheet.
func (s *DocumentSplitter) extractXLSX(data []byte) ([]models.Page, error) {
	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read xlsx: %w", err)
	}
	defer book.Close()

	var pages []models.Page
	for i, sheet := range book.GetSheetList() {
		rows, err := book.GetRows(sheet)
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, " "))
			if line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, models.Page{Number: i, Text: strings.Join(lines, "\n")})
	}
	return pages, nil
}

func (s *DocumentSplitter) extractHTML(data []byte) ([]models.Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	doc.Find("script, style, noscript").Remove()
	text := normalizeText(doc.Find("body").Text())
	if text == "" {
		return nil, nil
	}
	return []models.Page{{Number: 0, Text: text}}, nil
}

func normalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
