// Package statement assembles the per-page detectors into one extraction
// pass over a whole document: page selection, layout inheritance, stitching
// and diagnostics.
package statement

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/insightdelivered/statement-extractor/internal/anchor"
	"github.com/insightdelivered/statement-extractor/internal/config"
	"github.com/insightdelivered/statement-extractor/internal/layout"
	"github.com/insightdelivered/statement-extractor/internal/lexicon"
	"github.com/insightdelivered/statement-extractor/internal/logging"
	"github.com/insightdelivered/statement-extractor/internal/models"
	"github.com/insightdelivered/statement-extractor/internal/parser"
	"github.com/insightdelivered/statement-extractor/internal/slicer"
)

// Options restrict and label one extraction.
type Options struct {
	// Pages are 1-based page numbers to process; empty means all pages.
	Pages []int
	// Bank overrides the detected bank family.
	Bank string
	// DocumentID labels the document and, together with its content,
	// namespaces record ids. When empty an id is derived from the content.
	DocumentID string
}

// Engine runs the geometric extraction. It keeps no state between calls
// and is safe for concurrent use.
type Engine struct {
	h config.Heuristics
}

// NewEngine builds an Engine from heuristics.
func NewEngine(h config.Heuristics) *Engine {
	return &Engine{h: h}
}

// pass holds the collaborators configured for one document.
type pass struct {
	h        config.Heuristics
	analyzer *layout.Analyzer
	finder   *anchor.Finder
	slicer   *slicer.Slicer
}

func (e *Engine) newPass(bank string) pass {
	h := e.h.ForBank(bank)
	lex := lexicon.New(h.Keywords)
	return pass{
		h:        h,
		analyzer: layout.NewAnalyzerWithLexicon(h, lex),
		finder:   anchor.NewFinder(h),
		slicer:   slicer.New(h, lex),
	}
}

// Extract runs the pipeline over doc. It fails only when opts select pages
// the document does not have; ambiguous content degrades and is reported
// in the diagnostics.
func (e *Engine) Extract(doc models.Document, opts Options) (*models.StatementInfo, error) {
	start := time.Now()

	pages, err := selectPages(doc, opts.Pages)
	if err != nil {
		return nil, err
	}

	info := &models.StatementInfo{Transactions: []models.TransactionRecord{}}
	if len(pages) > 0 {
		cover := parser.ReadCover(pages[0].Text())
		info.Bank = cover.Bank
		info.RFC = cover.RFC
		info.CLABE = cover.CLABE
		info.AccountNumber = cover.AccountNumber
		info.Period = cover.Period
	}
	if opts.Bank != "" {
		info.Bank = opts.Bank
	}

	docID, ns := documentNamespace(doc, opts.DocumentID)
	info.DocumentID = docID
	log := logging.Logger().With(slog.String("doc", docID))

	p := e.newPass(info.Bank)

	geoms := make([]models.PageGeometry, len(pages))
	for i, pg := range pages {
		geoms[i] = p.analyzer.Geometry(pg, i == 0)
	}
	layouts := p.resolveLayouts(pages, geoms, log)

	stitched := stitch(pages, geoms)
	anchors := p.finder.Find(stitched, p.dateWall(geoms))

	byPage := make(map[int]models.ColumnLayout, len(pages))
	for i, pg := range pages {
		byPage[pg.Number] = layouts[i]
	}
	res := p.slicer.Slice(slicer.Input{
		Anchors: anchors,
		Tokens:  stitched,
		Layout:  func(page int) models.ColumnLayout { return byPage[page] },
		ID: func(page, seq int) string {
			return uuid.NewSHA1(ns, []byte("p"+strconv.Itoa(page)+"/"+strconv.Itoa(seq))).String()
		},
	})
	if res.Records != nil {
		info.Transactions = res.Records
	}

	info.Diagnostics = diagnose(pages, geoms, layouts, anchors, res)
	info.Diagnostics.Latency = time.Since(start)
	log.Debug("extraction finished",
		slog.Int("pages", info.Diagnostics.PagesProcessed),
		slog.Int("transactions", info.Diagnostics.TransactionCount),
		slog.Int("dropped", len(res.Dropped)),
		slog.Duration("latency", info.Diagnostics.Latency))
	return info, nil
}

// selectPages returns the requested pages in document order.
func selectPages(doc models.Document, want []int) ([]models.Page, error) {
	if len(want) == 0 {
		return doc.Pages, nil
	}
	byNumber := make(map[int]models.Page, len(doc.Pages))
	for _, p := range doc.Pages {
		byNumber[p.Number] = p
	}
	out := make([]models.Page, 0, len(want))
	seen := map[int]bool{}
	for _, n := range want {
		p, ok := byNumber[n]
		if !ok {
			return nil, fmt.Errorf("%w: page %d not in document with %d pages", ErrPageRange, n, len(doc.Pages))
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, p)
	}
	return out, nil
}

// resolveLayouts gives every page a layout: its own explicit header when it
// has one, else the nearest prior explicit layout, else the document layout
// taken from the early sample (then any later page), else proportional
// zones.
func (p pass) resolveLayouts(pages []models.Page, geoms []models.PageGeometry, log *slog.Logger) []models.ColumnLayout {
	explicit := make([]models.ColumnLayout, len(pages))
	found := make([]bool, len(pages))
	for i, pg := range pages {
		explicit[i], found[i] = p.analyzer.Columns(pg, geoms[i])
	}

	docIdx := firstFound(found, 0, min(p.h.Columns.SampleSize, len(found)))
	if docIdx < 0 {
		if docIdx = firstFound(found, p.h.Columns.SampleSize, len(found)); docIdx >= 0 {
			log.Debug("document layout found outside early sample", slog.Int("page", pages[docIdx].Number))
		}
	}

	out := make([]models.ColumnLayout, len(pages))
	last := -1
	for i, pg := range pages {
		switch {
		case found[i]:
			out[i] = explicit[i]
			last = i
		case last >= 0:
			out[i] = explicit[last].Inherit()
			log.Debug("layout inherited", slog.Int("page", pg.Number), slog.Int("from", pages[last].Number))
		case docIdx >= 0:
			out[i] = explicit[docIdx].Inherit()
			log.Debug("layout inherited from document sample", slog.Int("page", pg.Number), slog.Int("from", pages[docIdx].Number))
		default:
			out[i] = p.analyzer.Proportional(pg.Width)
			log.Debug("layout proportional", slog.Int("page", pg.Number))
		}
	}
	return out
}

// firstFound returns the first index in [from, to) with a detected layout,
// or -1.
func firstFound(found []bool, from, to int) int {
	for i := max(from, 0); i < to; i++ {
		if found[i] {
			return i
		}
	}
	return -1
}

// dateWall bounds the anchor margin using the first page whose header names
// a date column, else the first page's width.
func (p pass) dateWall(geoms []models.PageGeometry) float64 {
	if len(geoms) == 0 {
		return 0
	}
	for _, g := range geoms {
		if g.DateHeaderX >= 0 {
			return p.finder.DateWall(g)
		}
	}
	return p.finder.DateWall(geoms[0])
}

// stitch keeps each page's tokens inside its content window and shifts them
// down by the heights of the pages before it.
func stitch(pages []models.Page, geoms []models.PageGeometry) []models.PlacedToken {
	var out []models.PlacedToken
	offset := 0.0
	for i, pg := range pages {
		g := geoms[i]
		for _, t := range pg.Tokens {
			if !g.Contains(t.Y0) {
				continue
			}
			out = append(out, models.PlacedToken{Token: t.Shift(offset), Page: pg.Number})
		}
		offset += pg.Height
	}
	return out
}

// documentNamespace returns the document id and the UUID namespace record
// ids are derived from. A UUID id is used as the namespace as given; any
// other id is combined with the content hash, so two documents sharing a
// file name still get distinct record ids.
func documentNamespace(doc models.Document, id string) (string, uuid.UUID) {
	if u, err := uuid.Parse(id); id != "" && err == nil {
		return id, u
	}
	content := contentNamespace(doc)
	if id == "" {
		return content.String(), content
	}
	return id, uuid.NewSHA1(content, []byte(id))
}

// contentNamespace hashes the page sizes and every token of doc.
func contentNamespace(doc models.Document) uuid.UUID {
	var b strings.Builder
	for _, p := range doc.Pages {
		fmt.Fprintf(&b, "page %d %gx%g\n", p.Number, p.Width, p.Height)
		for _, t := range p.Tokens {
			fmt.Fprintf(&b, "%g %g %g %g %s\n", t.X0, t.Y0, t.X1, t.Y1, t.Text)
		}
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(b.String()))
}

func diagnose(pages []models.Page, geoms []models.PageGeometry, layouts []models.ColumnLayout, anchors []models.AnchorCandidate, res slicer.Result) models.Diagnostics {
	d := models.Diagnostics{
		PagesProcessed:   len(pages),
		TransactionCount: len(res.Records),
		Dropped:          res.Dropped,
		Pages:            make([]models.PageDiagnostics, len(pages)),
	}
	idx := make(map[int]int, len(pages))
	for i, pg := range pages {
		idx[pg.Number] = i
		d.Pages[i] = models.PageDiagnostics{Page: geoms[i], Layout: layouts[i]}
	}
	for _, a := range anchors {
		d.Pages[idx[a.Page]].Anchors++
	}
	for _, r := range res.Records {
		d.Pages[idx[r.Page]].Records++
	}
	for _, s := range res.Dropped {
		d.Pages[idx[s.Page]].Dropped++
	}

	for i, pg := range pages {
		if !geoms[i].HeaderFound {
			d.Alert(fmt.Sprintf("page %d: table header not found, body starts at proportional offset", pg.Number))
		}
		if layouts[i].Provenance == models.ProvenanceProportional {
			d.Alert(fmt.Sprintf("page %d: no column headers, using proportional zones", pg.Number))
		}
	}
	if n := len(res.Dropped); n > 0 {
		d.Alert(fmt.Sprintf("%d slices dropped", n))
	}
	if len(pages) > 0 && len(res.Records) == 0 {
		d.Alert("no transactions extracted")
	}
	return d
}
