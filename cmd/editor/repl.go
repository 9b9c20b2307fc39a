package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-shellwords"
	"go.uber.org/zap"

	"github.com/and161185/ohmylink/internal/editor"
	"github.com/and161185/ohmylink/internal/errs"
	"github.com/and161185/ohmylink/internal/model"
)

const helpText = `commands:
  show                                  print the draft
  pending                               list unsaved changes
  save                                  send unsaved changes
  discard                               drop unsaved changes
  set <group>.<field> <value>           e.g. set profile.bio "hi there"
  link add <title> <url> [field=value]  append a link
  link set <ref> field=value...         edit a link (ref is an id or #index)
  link mv <ref> <index>                 move a link
  link rm <ref>                         remove a link
  social add|set|mv|rm ...              same for socials (add takes <platform> <url>)
  help                                  this text
  quit                                  leave (asks again when there are unsaved changes)`

var errQuit = errors.New("quit")

// repl reads editor commands line by line.
type repl struct {
	sess  *editor.Session
	guard *editor.Guard
	view  view
	out   io.Writer
	log   *zap.Logger
}

func newREPL(sess *editor.Session, guard *editor.Guard, out io.Writer, log *zap.Logger) *repl {
	return &repl{sess: sess, guard: guard, view: newView(out), out: out, log: log}
}

// run returns nil on quit or end of input, and ctx.Err() when ctx ends first.
func (r *repl) run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(r.out, r.prompt())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(r.out)
				return nil
			}
			err := r.exec(ctx, line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				r.report(err)
			}
		}
	}
}

func (r *repl) prompt() string {
	if r.sess.Dirty() {
		return "ohmylink* > "
	}
	return "ohmylink > "
}

func (r *repl) report(err error) {
	var ve *errs.ValidationError
	switch {
	case errors.As(err, &ve):
		fmt.Fprintln(r.out, r.view.warn.Render("rejected: "+ve.Error()))
	default:
		fmt.Fprintln(r.out, r.view.bad.Render("error: "+err.Error()))
	}
}

func (r *repl) exec(ctx context.Context, line string) error {
	args, err := splitArgs(line)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}
	r.log.Debug("command", zap.Strings("args", args))
	switch cmd, rest := args[0], args[1:]; cmd {
	case "help", "?":
		fmt.Fprintln(r.out, helpText)
	case "show":
		fmt.Fprintln(r.out, r.view.profile(r.sess.Draft()))
	case "pending", "status":
		fmt.Fprintln(r.out, r.view.plan(r.sess.Pending()))
	case "save":
		res, err := r.sess.Save(ctx)
		fmt.Fprintln(r.out, r.view.result(res))
		return err
	case "discard":
		if err := r.sess.Discard(ctx); err != nil {
			return err
		}
		fmt.Fprintln(r.out, r.view.ok.Render("changes discarded"))
	case "set":
		return r.setScalar(ctx, rest)
	case "link":
		return r.record(ctx, model.KindLink, rest)
	case "social":
		return r.record(ctx, model.KindSocial, rest)
	case "quit", "exit", "q":
		if r.guard.TryLeave() {
			return errQuit
		}
	default:
		return fmt.Errorf("unknown command %q (try \"help\")", cmd)
	}
	return nil
}

func (r *repl) setScalar(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: set <group>.<field> <value>")
	}
	group, field, ok := strings.Cut(args[0], ".")
	g := model.ScalarGroup(group)
	if !ok || !g.Valid() {
		return fmt.Errorf("unknown setting %q", args[0])
	}
	cur, ok := model.GroupFields(r.sess.Draft(), g)[field]
	if !ok {
		return fmt.Errorf("unknown setting %q", args[0])
	}
	v, err := parseLike(cur, args[1])
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	return r.sess.Edit(ctx, func(p *model.Profile) error {
		return model.ApplyGroup(p, g, model.Fields{field: v})
	})
}

func (r *repl) record(ctx context.Context, kind model.RecordKind, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s add|set|mv|rm ...", kind)
	}
	sub, args := args[0], args[1:]
	if sub == "add" {
		return r.addRecord(ctx, kind, args)
	}
	if len(args) == 0 {
		return fmt.Errorf("usage: %s %s <ref> ...", kind, sub)
	}
	id, err := r.resolveRef(kind, args[0])
	if err != nil {
		return err
	}
	args = args[1:]

	switch sub {
	case "rm":
		return r.sess.Edit(ctx, func(p *model.Profile) error {
			if kind == model.KindLink {
				return p.RemoveLink(id)
			}
			return p.RemoveSocial(id)
		})
	case "mv":
		if len(args) != 1 {
			return fmt.Errorf("usage: %s mv <ref> <index>", kind)
		}
		to, err := strconv.Atoi(strings.TrimPrefix(args[0], "#"))
		if err != nil {
			return fmt.Errorf("bad index %q", args[0])
		}
		return r.sess.Edit(ctx, func(p *model.Profile) error {
			if kind == model.KindLink {
				return p.MoveLink(id, to)
			}
			return p.MoveSocial(id, to)
		})
	case "set":
		cur := r.currentFields(kind, id)
		f, err := parseAssignments(cur, args)
		if err != nil {
			return err
		}
		if len(f) == 0 {
			return fmt.Errorf("usage: %s set <ref> field=value...", kind)
		}
		return r.sess.Edit(ctx, func(p *model.Profile) error {
			if kind == model.KindLink {
				return p.UpdateLink(id, f)
			}
			return p.UpdateSocial(id, f)
		})
	default:
		return fmt.Errorf("unknown %s command %q", kind, sub)
	}
}

func (r *repl) addRecord(ctx context.Context, kind model.RecordKind, args []string) error {
	if len(args) < 2 {
		if kind == model.KindLink {
			return errors.New("usage: link add <title> <url> [field=value...]")
		}
		return errors.New("usage: social add <platform> <url>")
	}
	var id string
	if kind == model.KindLink {
		l := model.Link{Title: args[0], URL: args[1]}
		extra, err := parseAssignments(l.RecordFields(), args[2:])
		if err != nil {
			return err
		}
		if err := l.Apply(extra); err != nil {
			return err
		}
		err = r.sess.Edit(ctx, func(p *model.Profile) error { id = p.AddLink(l); return nil })
		if err != nil {
			return err
		}
	} else {
		if len(args) != 2 {
			return errors.New("usage: social add <platform> <url>")
		}
		s := model.Social{Platform: args[0], URL: args[1]}
		if err := r.sess.Edit(ctx, func(p *model.Profile) error { id = p.AddSocial(s); return nil }); err != nil {
			return err
		}
	}
	fmt.Fprintln(r.out, r.view.muted.Render(fmt.Sprintf("added %s %s", kind, id)))
	return nil
}

// resolveRef accepts a record id or "#<index>".
func (r *repl) resolveRef(kind model.RecordKind, ref string) (string, error) {
	d := r.sess.Draft()
	ids := make([]string, 0)
	if kind == model.KindLink {
		for _, l := range d.Links {
			ids = append(ids, l.ID)
		}
	} else {
		for _, s := range d.Socials {
			ids = append(ids, s.ID)
		}
	}
	if n, ok := strings.CutPrefix(ref, "#"); ok {
		i, err := strconv.Atoi(n)
		if err != nil || i < 0 || i >= len(ids) {
			return "", fmt.Errorf("no %s at %s", kind, ref)
		}
		return ids[i], nil
	}
	for _, id := range ids {
		if id == ref {
			return id, nil
		}
	}
	return "", fmt.Errorf("%s %s: %w", kind, ref, errs.ErrNotFound)
}

func (r *repl) currentFields(kind model.RecordKind, id string) model.Fields {
	d := r.sess.Draft()
	if kind == model.KindLink {
		if i := d.LinkIndex(id); i >= 0 {
			return d.Links[i].RecordFields()
		}
		return model.Link{}.RecordFields()
	}
	if i := d.SocialIndex(id); i >= 0 {
		return d.Socials[i].RecordFields()
	}
	return model.Social{}.RecordFields()
}

// parseAssignments turns field=value words into Fields typed after cur.
func parseAssignments(cur model.Fields, words []string) (model.Fields, error) {
	f := model.Fields{}
	for _, w := range words {
		k, v, ok := strings.Cut(w, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected field=value, got %q", w)
		}
		like, known := cur[k]
		if !known {
			return nil, fmt.Errorf("unknown field %q", k)
		}
		val, err := parseLike(like, v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		f[k] = val
	}
	return f, nil
}

// parseLike parses s into the dynamic type of like.
func parseLike(like any, s string) (any, error) {
	switch like.(type) {
	case bool:
		return strconv.ParseBool(s)
	case int:
		return strconv.Atoi(s)
	default:
		return s, nil
	}
}

// splitArgs splits a command line the way a shell would, without expanding anything.
// Unquoted shell operators are rejected rather than silently ending the line.
func splitArgs(line string) ([]string, error) {
	p := shellwords.NewParser()
	args, err := p.Parse(line)
	if err != nil {
		return nil, fmt.Errorf("%w (unbalanced quotes or brackets?)", err)
	}
	if p.Position >= 0 {
		return nil, errors.New("quote values containing ; & | < >")
	}
	if len(args) == 0 {
		return nil, nil
	}
	return args, nil
}
