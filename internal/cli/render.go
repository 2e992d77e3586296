package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"
	"github.com/okian/cyclingdb/internal/adapters/csvio"
	service "github.com/okian/cyclingdb/internal/app"
	"github.com/okian/cyclingdb/internal/domain/rider"
	"github.com/okian/cyclingdb/internal/domain/stats"
)

// Output formats.
const (
	FormatTable = "table"
	FormatCSV   = "csv"
	FormatJSON  = "json"
)

// Formats lists the supported output formats.
var Formats = []string{FormatTable, FormatCSV, FormatJSON}

const (
	defaultMaxCellWidth = 24
	ellipsis            = "…"
)

// DefaultStats are the rating columns shown in tables.
var DefaultStats = []rider.StatCode{rider.Eval, rider.FL, rider.MO, rider.HL, rider.CS, rider.TT, rider.SP}

// Renderer writes results in one of the supported formats.
type Renderer struct {
	theme        Theme
	stats        []rider.StatCode
	maxCellWidth int
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTheme sets the table theme.
func WithTheme(t Theme) Option {
	return func(r *Renderer) { r.theme = t }
}

// WithStats selects the rating columns.
func WithStats(codes []rider.StatCode) Option {
	return func(r *Renderer) {
		if len(codes) > 0 {
			r.stats = codes
		}
	}
}

// WithMaxCellWidth truncates wider text cells.
func WithMaxCellWidth(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.maxCellWidth = n
		}
	}
}

// NewRenderer returns a Renderer.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{theme: DefaultTheme(), stats: DefaultStats, maxCellWidth: defaultMaxCellWidth}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ValidFormat reports whether f is a supported format.
func ValidFormat(f string) bool {
	for _, v := range Formats {
		if f == v {
			return true
		}
	}
	return false
}

// Result writes a search result.
func (r *Renderer) Result(w io.Writer, format string, res service.Result) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res) //nolint:wrapcheck // encoder error is descriptive
	case FormatCSV:
		return csvio.Export(w, res.Riders) //nolint:wrapcheck // already wrapped
	case FormatTable, "":
		if _, err := fmt.Fprintln(w, r.Table(res.Riders)); err != nil {
			return fmt.Errorf("write table: %w", err)
		}
		_, err := fmt.Fprintln(w, r.theme.Muted.Render(SummaryLine(res)))
		return err //nolint:wrapcheck // terminal write
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// Table renders rows as a bordered table.
func (r *Renderer) Table(rows []rider.Rider) string {
	headers := []string{"#", "Name", "Team", "Nat", "Age", "Spec"}
	for _, c := range r.stats {
		headers = append(headers, string(c))
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(r.theme.Border).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.theme.Header
			}
			return r.theme.Cell
		})

	for i, rd := range rows {
		cells := []string{
			fmt.Sprint(i + 1),
			r.fit(rd.Name),
			r.fit(rd.Team),
			r.fit(rd.Nationality),
			orDash(rd.Age.String()),
			orDash(string(rd.Specialization)),
		}
		for _, c := range r.stats {
			cells = append(cells, orDash(rd.Value(rider.Column(c))))
		}
		t.Row(cells...)
	}
	return t.String()
}

// fit truncates s to the maximum cell width in terminal cells.
func (r *Renderer) fit(s string) string {
	return runewidth.Truncate(s, r.maxCellWidth, ellipsis)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// SummaryLine describes a page of results.
func SummaryLine(res service.Result) string {
	shown := len(res.Riders)
	return fmt.Sprintf("showing %d-%d of %d riders (%d total) | teams: %d | nationalities: %d | avg age: %s",
		min(res.Offset+1, res.Offset+shown), res.Offset+shown, res.Total, res.Overall.Count,
		res.Summary.Teams, res.Summary.Nationalities, res.Summary.AverageAgeString())
}

// Stats writes the overall summary and the filter options.
func (r *Renderer) Stats(w io.Writer, format string, sum stats.Summary, opts stats.FilterOptions) error {
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		//nolint:wrapcheck // encoder error is descriptive
		return enc.Encode(struct {
			Summary stats.Summary       `json:"summary"`
			Options stats.FilterOptions `json:"filters"`
		}{sum, opts})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %d\n", r.theme.Accent.Render("riders:"), sum.Count)
	fmt.Fprintf(&b, "%s %d\n", r.theme.Accent.Render("teams:"), sum.Teams)
	fmt.Fprintf(&b, "%s %d\n", r.theme.Accent.Render("nationalities:"), sum.Nationalities)
	fmt.Fprintf(&b, "%s %s\n", r.theme.Accent.Render("average age:"), sum.AverageAgeString())
	if opts.Age.Valid {
		fmt.Fprintf(&b, "%s %d-%d\n", r.theme.Accent.Render("age range:"), opts.Age.Min, opts.Age.Max)
	}
	specs := make([]string, len(opts.Specializations))
	for i, s := range opts.Specializations {
		specs[i] = string(s)
	}
	fmt.Fprintf(&b, "%s %s\n", r.theme.Accent.Render("specializations:"), strings.Join(specs, ", "))

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(r.theme.Border).
		Headers("Stat", "Label", "Min", "Max").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.theme.Header
			}
			return r.theme.Cell
		})
	for _, c := range rider.StatCodes {
		bounds, ok := opts.Ratings[c]
		if !ok || !bounds.Valid {
			continue
		}
		t.Row(string(c), c.Label(), fmt.Sprint(bounds.Min), fmt.Sprint(bounds.Max))
	}
	b.WriteString(t.String())
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err //nolint:wrapcheck // terminal write
}
