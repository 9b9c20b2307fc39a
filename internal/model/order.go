package model

import (
	"fmt"

	"github.com/and161185/ohmylink/internal/errs"
)

func renumberLinks(ls []Link) {
	for i := range ls {
		ls[i].Position = i
	}
}

func renumberSocials(ss []Social) {
	for i := range ss {
		ss[i].Position = i
	}
}

// move relocates s[from] to index to, shifting the elements in between.
func move[T any](s []T, from, to int) {
	v := s[from]
	if from < to {
		copy(s[from:to], s[from+1:to+1])
	} else {
		copy(s[to+1:from+1], s[to:from])
	}
	s[to] = v
}

// LinkIndex returns the index of the link with id, or -1.
func (p Profile) LinkIndex(id string) int {
	for i, l := range p.Links {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// SocialIndex returns the index of the social with id, or -1.
func (p Profile) SocialIndex(id string) int {
	for i, s := range p.Socials {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// AddLink appends l with a fresh temporary id and returns that id.
func (p *Profile) AddLink(l Link) string {
	l.ID = NewTempID()
	p.Links = append(p.Links, l)
	renumberLinks(p.Links)
	return l.ID
}

// UpdateLink applies field changes to the link with id.
func (p *Profile) UpdateLink(id string, f Fields) error {
	i := p.LinkIndex(id)
	if i < 0 {
		return fmt.Errorf("link %s: %w", id, errs.ErrNotFound)
	}
	l := p.Links[i]
	if err := l.Apply(f); err != nil {
		return err
	}
	p.Links[i] = l
	return nil
}

// RemoveLink drops the link with id and closes the gap.
func (p *Profile) RemoveLink(id string) error {
	i := p.LinkIndex(id)
	if i < 0 {
		return fmt.Errorf("link %s: %w", id, errs.ErrNotFound)
	}
	p.Links = append(p.Links[:i], p.Links[i+1:]...)
	renumberLinks(p.Links)
	return nil
}

// MoveLink moves the link with id to index to.
func (p *Profile) MoveLink(id string, to int) error {
	i := p.LinkIndex(id)
	if i < 0 {
		return fmt.Errorf("link %s: %w", id, errs.ErrNotFound)
	}
	if to < 0 || to >= len(p.Links) {
		ve := &errs.ValidationError{}
		ve.Add("position", fmt.Sprintf("must be within 0..%d", len(p.Links)-1))
		return ve
	}
	move(p.Links, i, to)
	renumberLinks(p.Links)
	return nil
}

// AddSocial appends s with a fresh temporary id and returns that id.
func (p *Profile) AddSocial(s Social) string {
	s.ID = NewTempID()
	p.Socials = append(p.Socials, s)
	renumberSocials(p.Socials)
	return s.ID
}

// UpdateSocial applies field changes to the social with id.
func (p *Profile) UpdateSocial(id string, f Fields) error {
	i := p.SocialIndex(id)
	if i < 0 {
		return fmt.Errorf("social %s: %w", id, errs.ErrNotFound)
	}
	s := p.Socials[i]
	if err := s.Apply(f); err != nil {
		return err
	}
	p.Socials[i] = s
	return nil
}

// RemoveSocial drops the social with id and closes the gap.
func (p *Profile) RemoveSocial(id string) error {
	i := p.SocialIndex(id)
	if i < 0 {
		return fmt.Errorf("social %s: %w", id, errs.ErrNotFound)
	}
	p.Socials = append(p.Socials[:i], p.Socials[i+1:]...)
	renumberSocials(p.Socials)
	return nil
}

// MoveSocial moves the social with id to index to.
func (p *Profile) MoveSocial(id string, to int) error {
	i := p.SocialIndex(id)
	if i < 0 {
		return fmt.Errorf("social %s: %w", id, errs.ErrNotFound)
	}
	if to < 0 || to >= len(p.Socials) {
		ve := &errs.ValidationError{}
		ve.Add("position", fmt.Sprintf("must be within 0..%d", len(p.Socials)-1))
		return ve
	}
	move(p.Socials, i, to)
	renumberSocials(p.Socials)
	return nil
}

// ReplaceIDs rewrites child ids using m (old -> new). Unknown ids are left alone.
func (p *Profile) ReplaceIDs(m map[string]string) {
	for i := range p.Links {
		if n, ok := m[p.Links[i].ID]; ok {
			p.Links[i].ID = n
		}
	}
	for i := range p.Socials {
		if n, ok := m[p.Socials[i].ID]; ok {
			p.Socials[i].ID = n
		}
	}
}

// DropMissing removes records that carry a server id unknown to known and
// renumbers what is left. Temporary ids are kept. It returns the dropped ids.
func (p *Profile) DropMissing(known Profile) []string {
	var dropped []string
	links := make(map[string]bool, len(known.Links))
	for _, l := range known.Links {
		links[l.ID] = true
	}
	keptLinks := p.Links[:0]
	for _, l := range p.Links {
		if IsTempID(l.ID) || links[l.ID] {
			keptLinks = append(keptLinks, l)
			continue
		}
		dropped = append(dropped, l.ID)
	}
	p.Links = keptLinks
	renumberLinks(p.Links)

	socials := make(map[string]bool, len(known.Socials))
	for _, s := range known.Socials {
		socials[s.ID] = true
	}
	keptSocials := p.Socials[:0]
	for _, s := range p.Socials {
		if IsTempID(s.ID) || socials[s.ID] {
			keptSocials = append(keptSocials, s)
			continue
		}
		dropped = append(dropped, s.ID)
	}
	p.Socials = keptSocials
	renumberSocials(p.Socials)
	return dropped
}
