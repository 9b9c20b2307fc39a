package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/and161185/ohmylink/internal/errs"
	"github.com/and161185/ohmylink/internal/model"
	"github.com/and161185/ohmylink/internal/reconcile"
	"github.com/and161185/ohmylink/internal/save"
)

// view renders editor state. Styles come from a renderer bound to the output so
// colours are dropped when it is not a terminal.
type view struct {
	title lipgloss.Style
	muted lipgloss.Style
	ok    lipgloss.Style
	warn  lipgloss.Style
	bad   lipgloss.Style
	op    map[reconcile.OpType]lipgloss.Style
}

func newView(w io.Writer) view {
	r := lipgloss.NewRenderer(w)
	fg := func(c string) lipgloss.Style { return r.NewStyle().Foreground(lipgloss.Color(c)) }
	return view{
		title: r.NewStyle().Bold(true),
		muted: r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "245"}),
		ok:    fg("2"),
		warn:  fg("3"),
		bad:   fg("1").Bold(true),
		op: map[reconcile.OpType]lipgloss.Style{
			reconcile.OpCreate:  fg("2"),
			reconcile.OpUpdate:  fg("4"),
			reconcile.OpDelete:  fg("1"),
			reconcile.OpReorder: fg("5"),
			reconcile.OpScalar:  fg("6"),
		},
	}
}

func (v view) plan(p reconcile.Plan) string {
	if p.Empty() {
		return v.ok.Render("no unsaved changes")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", v.title.Render(fmt.Sprintf("%d unsaved change(s)", p.Len())))
	for _, op := range p.Ops {
		fmt.Fprintf(&b, "  %s %s\n", v.op[op.Type].Render(fmt.Sprintf("%-7s", op.Type)), strings.TrimPrefix(op.String(), string(op.Type)+" "))
	}
	for _, k := range p.Deferred {
		fmt.Fprintf(&b, "  %s\n", v.muted.Render(fmt.Sprintf("%s order is sent after new records are created", k)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (v view) profile(p model.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", v.title.Render(p.DisplayName), v.muted.Render("/"+p.Slug))
	if p.Bio != "" {
		fmt.Fprintf(&b, "%s\n", p.Bio)
	}
	bg := p.Background.Row()
	fmt.Fprintf(&b, "%s layout=%s theme=%s texture=%s background=%s pattern=%s\n",
		v.muted.Render("style"), p.Layout, p.ThemeID, p.CardTexture, bg.Type, p.Pattern.Type)
	fmt.Fprintf(&b, "%s\n", v.title.Render("links"))
	for i, l := range p.Links {
		fmt.Fprintf(&b, "  #%d %-24s %s %s\n", i, l.Title, l.URL, v.muted.Render(l.ID))
	}
	fmt.Fprintf(&b, "%s\n", v.title.Render("socials"))
	for i, s := range p.Socials {
		fmt.Fprintf(&b, "  #%d %-10s %s %s\n", i, s.Platform, s.URL, v.muted.Render(s.ID))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (v view) result(r save.Result) string {
	switch r.Status {
	case save.StatusNoop:
		return v.ok.Render("nothing to save")
	case save.StatusSuccess:
		return v.ok.Render(fmt.Sprintf("saved %d change(s) in %s", len(r.Applied), r.Duration.Round(time.Millisecond)))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", v.bad.Render(fmt.Sprintf("%d of %d change(s) failed; your edits are kept, run \"save\" to retry",
		len(r.Failed), len(r.Applied)+len(r.Failed))))
	for _, f := range r.Failed {
		fmt.Fprintf(&b, "  %s %s\n", v.warn.Render(f.Op.String()), f.Err)
		if errors.Is(f.Err, errs.ErrRecordGone) {
			fmt.Fprintf(&b, "    %s\n", v.muted.Render(fmt.Sprintf("deleted elsewhere; run \"%s rm %s\" or add it again", f.Op.Kind, f.Op.ID)))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
