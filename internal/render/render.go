// Package render formats comparison results for the terminal.
package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/NamanBalaji/tdiff/internal/descriptor"
	"github.com/NamanBalaji/tdiff/internal/engine"
	"github.com/NamanBalaji/tdiff/internal/reconcile"
	"github.com/NamanBalaji/tdiff/internal/repository"
)

// Options controls table output.
type Options struct {
	Style      string // rounded, light, bold, double or default
	Color      bool
	HumanSizes bool
}

var mismatchColor = text.Colors{text.FgRed}

// SizeText formats a byte count, as IEC units when human is set.
func SizeText(n int64, human bool) string {
	if !human || n < 0 {
		return strconv.FormatInt(n, 10)
	}
	return humanize.IBytes(uint64(n))
}

// Table renders the rows of a report: a size column followed by index,
// fingerprint and path columns for each manifest. Cells that differ
// from the row's canonical file are highlighted when color is on.
func Table(r *engine.Report, opts Options) string {
	if len(r.Manifests) == 0 {
		return ""
	}

	tw := newWriter(opts)

	top := table.Row{""}
	header := table.Row{"Size"}
	for i, m := range r.Manifests {
		title := fmt.Sprintf("[%d] %s", i+1, m.Source)
		top = append(top, title, title, title)
		header = append(header, "Idx", "Fingerprint", "Path")
	}
	tw.AppendHeader(top, table.RowConfig{AutoMerge: true})
	tw.AppendHeader(header)

	for _, row := range r.Rows {
		out := table.Row{SizeText(row.Size, opts.HumanSizes)}
		for _, c := range row.Cells {
			out = append(out, cellColumns(c, opts.Color)...)
		}
		tw.AppendRow(out)
	}

	configs := []table.ColumnConfig{{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft}}
	for i := range r.Manifests {
		base := 2 + i*3
		configs = append(configs,
			table.ColumnConfig{Number: base, Align: text.AlignRight, AlignHeader: text.AlignLeft},
			table.ColumnConfig{Number: base + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
			table.ColumnConfig{Number: base + 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		)
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func cellColumns(c engine.Cell, color bool) []interface{} {
	if !c.Present {
		return []interface{}{"", "", ""}
	}

	index := strconv.Itoa(c.Index)
	if c.Index == descriptor.SingleFileIndex {
		index = "-"
	}
	fp := fmt.Sprintf("%08x", c.Fingerprint)
	path := c.Path

	if color {
		if c.Flags.Has(reconcile.FingerprintMismatch) {
			fp = mismatchColor.Sprint(fp)
		}
		if c.Flags.Has(reconcile.PathMismatch) {
			path = mismatchColor.Sprint(path)
		}
	} else if c.Flags != 0 {
		// Without color the flag is the only marker.
		path += " (" + c.Flags.String() + ")"
	}

	return []interface{}{index, fp, path}
}

// Summary lists the manifests of a report and the inputs that failed.
func Summary(r *engine.Report, opts Options) string {
	var b strings.Builder

	if len(r.Manifests) > 0 {
		tw := newWriter(opts)
		tw.AppendHeader(table.Row{"#", "Source", "Name", "Files", "Size", "Hash", "Known"})
		for i, m := range r.Manifests {
			known := ""
			if m.Known {
				known = "yes"
			}
			tw.AppendRow(table.Row{i + 1, m.Source, m.Name, m.FileCount, SizeText(m.TotalSize, opts.HumanSizes), m.Hash, known})
		}
		b.WriteString(tw.Render())
		b.WriteString("\n")
	}

	b.WriteString(Failures(r))

	fmt.Fprintf(&b, "%d rows, %d with differences\n", len(r.Rows), r.Mismatches())

	return b.String()
}

// Failures lists the inputs that could not be compared, one per line.
func Failures(r *engine.Report) string {
	if len(r.Failures) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Failed:\n")
	for _, f := range r.Failures {
		fmt.Fprintf(&b, "  %v\n", f)
	}
	return b.String()
}

// Inspection renders a single manifest and its file descriptors.
func Inspection(insp *engine.Inspection, opts Options) string {
	m := insp.Manifest

	var b strings.Builder
	fmt.Fprintf(&b, "Name:         %s\n", m.Name)
	fmt.Fprintf(&b, "Identity:     %s (%s)\n", insp.Hash, insp.HashAlg)
	fmt.Fprintf(&b, "Info hash:    %x\n", insp.InfoHash)
	fmt.Fprintf(&b, "Magnet:       %s\n", insp.Magnet())
	fmt.Fprintf(&b, "Piece length: %s\n", SizeText(m.PieceLength, opts.HumanSizes))
	fmt.Fprintf(&b, "Pieces:       %d\n", m.PieceCount())
	fmt.Fprintf(&b, "Total size:   %s\n", SizeText(m.TotalSize(), opts.HumanSizes))
	if m.CreatedBy != "" {
		fmt.Fprintf(&b, "Created by:   %s\n", m.CreatedBy)
	}
	if m.Comment != "" {
		fmt.Fprintf(&b, "Comment:      %s\n", m.Comment)
	}

	tw := newWriter(opts)
	tw.AppendHeader(table.Row{"Idx", "Size", "Fingerprint", "Key", "Path"})
	for _, f := range insp.Files {
		index := strconv.Itoa(f.Index)
		if f.Index == descriptor.SingleFileIndex {
			index = "-"
		}
		tw.AppendRow(table.Row{index, SizeText(f.Size, opts.HumanSizes), fmt.Sprintf("%08x", f.Fingerprint), f.KeyName, f.FullPath})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignRight},
	})
	b.WriteString(tw.Render())
	b.WriteString("\n")

	return b.String()
}

// Catalog lists stored manifests.
func Catalog(records []*repository.ManifestRecord, opts Options) string {
	tw := newWriter(opts)
	tw.AppendHeader(table.Row{"Hash", "Name", "Files", "Size", "Added"})
	for _, rec := range records {
		tw.AppendRow(table.Row{
			rec.Hash,
			rec.Name,
			len(rec.Files),
			SizeText(rec.TotalSize, opts.HumanSizes),
			humanize.Time(rec.AddedAt),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	return tw.Render()
}

// ManifestRecord renders one stored manifest and its files.
func ManifestRecord(rec *repository.ManifestRecord, opts Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name:         %s\n", rec.Name)
	fmt.Fprintf(&b, "Identity:     %s (%s)\n", rec.Hash, rec.HashAlg)
	fmt.Fprintf(&b, "Info hash:    %s\n", rec.InfoHash)
	fmt.Fprintf(&b, "Source:       %s\n", rec.Source)
	fmt.Fprintf(&b, "Added:        %s\n", rec.AddedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Total size:   %s\n", SizeText(rec.TotalSize, opts.HumanSizes))
	if rec.RawSize > 0 {
		fmt.Fprintf(&b, "Stored bytes: %s\n", SizeText(int64(rec.RawSize), opts.HumanSizes))
	}

	tw := newWriter(opts)
	tw.AppendHeader(table.Row{"Idx", "Size", "Fingerprint", "Path"})
	for _, f := range rec.Files {
		tw.AppendRow(table.Row{f.Index, SizeText(f.Size, opts.HumanSizes), fmt.Sprintf("%08x", f.Fingerprint), f.Path})
	}
	b.WriteString(tw.Render())
	b.WriteString("\n")

	return b.String()
}

// Reports lists saved comparison reports.
func Reports(reports []*engine.Report, opts Options) string {
	tw := newWriter(opts)
	tw.AppendHeader(table.Row{"ID", "Created", "Manifests", "Failed", "Rows", "Differences"})
	for _, r := range reports {
		tw.AppendRow(table.Row{
			r.ID.String(),
			humanize.Time(r.CreatedAt),
			len(r.Manifests),
			len(r.Failures),
			len(r.Rows),
			r.Mismatches(),
		})
	}
	return tw.Render()
}

func newWriter(opts Options) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(style(opts.Style))
	return tw
}

func style(name string) table.Style {
	switch name {
	case "light":
		return table.StyleLight
	case "bold":
		return table.StyleBold
	case "double":
		return table.StyleDouble
	case "default":
		return table.StyleDefault
	default:
		return table.StyleRounded
	}
}
