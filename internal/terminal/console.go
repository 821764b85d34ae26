package terminal

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"health-companion/internal/alert"
	"health-companion/internal/domain"
	"health-companion/internal/gauge"
	"health-companion/internal/usecase"
)

const gaugeBarWidth = 30

var (
	_ usecase.ChatView   = (*Console)(nil)
	_ usecase.ReportView = (*Console)(nil)
	_ alert.Overlay      = (*Console)(nil)
)

// Console draws the chat, report and alert regions on a line-oriented
// terminal. All methods are safe for concurrent use.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	colors bool

	live         map[string]struct{}
	uploadHidden bool
	loading      bool
	scrollLocked bool
	overlay      *alert.View
}

type Option func(*Console)

// WithColors toggles ANSI colors. Off by default.
func WithColors(enabled bool) Option {
	return func(c *Console) {
		c.colors = enabled
	}
}

func New(out io.Writer, opts ...Option) *Console {
	c := &Console{out: out, live: map[string]struct{}{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Console) paint(colors text.Colors, s string) string {
	if !c.colors {
		return s
	}
	return colors.Sprint(s)
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.out, s)
}

// ---- chat ----

func (c *Console) AppendBubble(sender domain.Sender, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch sender {
	case domain.SenderUser:
		c.println(c.paint(text.Colors{text.FgCyan, text.Bold}, "you> ") + msg)
	default:
		c.println(c.paint(text.Colors{text.FgGreen, text.Bold}, "bot> ") + msg)
	}
}

// ClearInput is a no-op: the line editor already consumed the input.
func (c *Console) ClearInput() {}

func (c *Console) ShowTyping(handle string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.live[handle] = struct{}{}
	c.println(c.paint(text.Colors{text.Faint}, fmt.Sprintf("… typing [%s]", handle)))
}

func (c *Console) RemoveTyping(handle string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.live, handle)
}

// LiveTyping returns the placeholders that are still shown, sorted.
func (c *Console) LiveTyping() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.live))
	for h := range c.live {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

// ---- reports ----

func (c *Console) Notify(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.println(c.paint(text.Colors{text.FgYellow}, "! "+message))
}

func (c *Console) SetUploadVisible(visible bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uploadHidden = !visible
}

func (c *Console) SetLoading(loading bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = loading
	if loading {
		c.println(c.paint(text.Colors{text.Faint}, "Analyzing reports…"))
	}
}

// UploadVisible reports whether a new batch may be submitted.
func (c *Console) UploadVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.uploadHidden
}

func (c *Console) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *Console) RenderReports(cards []usecase.ReportCard) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := newTable()
	header := table.Row{"#", "Report", "Risk", "Score"}
	if len(cards) > 0 {
		for _, v := range cards[0].Values {
			header = append(header, v.Label)
		}
	}
	t.AppendHeader(header)
	for _, card := range cards {
		row := table.Row{
			card.Index,
			card.Filename,
			c.paint(levelColors(card.Level), string(card.Level)),
			card.ScoreText,
		}
		for _, v := range card.Values {
			row = append(row, v.Text)
		}
		t.AppendRow(row)
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	c.println(t.Render())
}

func (c *Console) RenderTrends(section usecase.TrendSection) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.println(section.Title)
	if o := section.Overall; o != nil {
		c.println(c.paint(framingColors(o.Framing), o.Heading))
		c.println("  " + o.Transition)
	}
	if len(section.Lines) == 0 {
		return
	}
	t := newTable()
	t.AppendHeader(table.Row{"Biomarker", "Trend", "Direction"})
	for _, line := range section.Lines {
		t.AppendRow(table.Row{
			line.Label,
			line.Text,
			c.paint(directionColors(line.Direction), string(line.Direction)),
		})
	}
	c.println(t.Render())
}

func (c *Console) RenderGauge(spec gauge.VisualSpec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.println("Risk " + c.paint(hexColors(spec.Color), spec.Bar(gaugeBarWidth)))
}

// ---- emergency overlay ----

func (c *Console) ShowOverlay(v alert.View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overlay = &v

	t := table.NewWriter()
	t.SetStyle(table.StyleDouble)
	t.SetTitle(c.paint(text.Colors{text.FgHiRed, text.Bold}, "🚨 "+v.Headline))
	t.AppendRow(table.Row{"", c.paint(text.Colors{text.Bold}, v.Subheading)})
	t.AppendRow(table.Row{"Risk Score", fmt.Sprintf("%d/100", v.Score)})
	t.AppendRow(table.Row{"", v.Message})
	t.AppendSeparator()
	for _, ct := range v.Contacts {
		t.AppendRow(table.Row{ct.Service, strings.Join(ct.Numbers, " / ")})
	}
	t.AppendRow(table.Row{"Hospital", v.HospitalSearchURL})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, WidthMax: 72}})
	c.println(t.Render())
	c.println(c.paint(text.Colors{text.Faint}, "type /dismiss to close this alert"))
}

// RemoveOverlay forgets the drawn alert. It prints nothing: the alert is
// either being replaced or the caller reports the dismissal.
func (c *Console) RemoveOverlay() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overlay = nil
}

// SetScrollLocked only records the lock state.
func (c *Console) SetScrollLocked(locked bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scrollLocked = locked
}

func (c *Console) ScrollLocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scrollLocked
}

// Overlay returns the alert currently drawn, if any.
func (c *Console) Overlay() (alert.View, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.overlay == nil {
		return alert.View{}, false
	}
	return *c.overlay, true
}

// ---- standalone listings ----

func (c *Console) PrintContacts(contacts []alert.Contact) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := newTable()
	t.AppendHeader(table.Row{"Service", "Numbers"})
	for _, ct := range contacts {
		t.AppendRow(table.Row{ct.Service, strings.Join(ct.Numbers, " / ")})
	}
	t.AppendFooter(table.Row{"Hospital", alert.HospitalSearchURL})
	c.println(t.Render())
}

func (c *Console) PrintAlerts(records []domain.AlertRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(records) == 0 {
		c.println("no alerts recorded")
		return
	}
	t := newTable()
	t.AppendHeader(table.Row{"Raised", "Score", "Source", "Files", "Acknowledged"})
	for _, rec := range records {
		ack := "-"
		if rec.AcknowledgedAt != nil {
			ack = rec.AcknowledgedAt.Local().Format(time.DateTime)
		}
		t.AppendRow(table.Row{
			rec.RaisedAt.Local().Format(time.DateTime),
			rec.Score,
			string(rec.Source),
			strings.Join(rec.Filenames, ", "),
			ack,
		})
	}
	c.println(t.Render())
}

// newTable is the light style with header and footer text left as written.
func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	return t
}

func levelColors(l domain.RiskLevel) text.Colors {
	return hexColors(gauge.ColorFor(l))
}

func hexColors(hex string) text.Colors {
	switch hex {
	case gauge.ColorLow:
		return text.Colors{text.FgGreen}
	case gauge.ColorHigh:
		return text.Colors{text.FgRed, text.Bold}
	default:
		return text.Colors{text.FgYellow}
	}
}

func framingColors(f usecase.Framing) text.Colors {
	switch f {
	case usecase.FramingPositive:
		return text.Colors{text.FgGreen, text.Bold}
	case usecase.FramingNegative:
		return text.Colors{text.FgRed, text.Bold}
	default:
		return text.Colors{text.FgYellow, text.Bold}
	}
}

func directionColors(d domain.Direction) text.Colors {
	switch d {
	case domain.Improving:
		return text.Colors{text.FgGreen}
	case domain.Worsening:
		return text.Colors{text.FgRed}
	default:
		return text.Colors{text.FgYellow}
	}
}
