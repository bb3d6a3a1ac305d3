package client

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SelectorChain is an ordered list of CSS selectors tried until one matches.
type SelectorChain []string

// Find returns the matches of the first selector that yields a non-empty result within root.
func (c SelectorChain) Find(root *goquery.Selection) *goquery.Selection {
	for _, sel := range c {
		if found := root.Find(sel); found.Length() > 0 {
			return found
		}
	}
	return root.Find("__no_match__")
}

// FindMatching is like Find but only counts elements accepted by keep.
func (c SelectorChain) FindMatching(root *goquery.Selection, keep func(*goquery.Selection) bool) *goquery.Selection {
	for _, sel := range c {
		found := root.Find(sel).FilterFunction(func(_ int, s *goquery.Selection) bool {
			return keep(s)
		})
		if found.Length() > 0 {
			return found
		}
	}
	return root.Find("__no_match__")
}

// FirstText returns the collapsed text of the first element, across the chain, that has any text.
func (c SelectorChain) FirstText(root *goquery.Selection) string {
	for _, sel := range c {
		var text string
		root.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text = CollapseSpace(s.Text())
			return text == ""
		})
		if text != "" {
			return text
		}
	}
	return ""
}

// AttrSelector reads a value from an attribute, or from the element text when Attr is empty.
type AttrSelector struct {
	Selector string
	Attr     string
}

// AttrChain is an ordered list of value sources.
type AttrChain []AttrSelector

// Values yields every non-empty candidate value in chain order. The root element itself is
// included when it matches a selector, so data attributes on containers are honored.
func (c AttrChain) Values(root *goquery.Selection) []string {
	var out []string
	for _, src := range c {
		matches := root.Filter(src.Selector).AddSelection(root.Find(src.Selector))
		matches.Each(func(_ int, s *goquery.Selection) {
			var v string
			if src.Attr == "" {
				v = CollapseSpace(s.Text())
			} else {
				v, _ = s.Attr(src.Attr)
				v = strings.TrimSpace(v)
			}
			if v != "" {
				out = append(out, v)
			}
		})
	}
	return out
}

// First returns the first non-empty candidate value.
func (c AttrChain) First(root *goquery.Selection) string {
	for _, v := range c.Values(root) {
		return v
	}
	return ""
}

// CollapseSpace trims s and collapses internal whitespace runs to single spaces.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
