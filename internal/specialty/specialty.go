// Package specialty groups free-text specialty strings into a fixed set of
// curated categories by substring matching.
package specialty

import (
	"provider-finder/internal/models"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Category is a display label and the lowercase needles that select it.
type Category struct {
	Label   string
	Needles []string
}

// table is the curated grouping, in display order. Needles are matched
// against the lowercased text padded with one space on each side, so
// " pt" only hits "pt" at the start of a word. It is a heuristic: short
// needles like "ent" and "ct" also hit inside longer words.
var table = []Category{
	{"Chiro", []string{"chiro"}},
	{"PT", []string{"physical therapy", "physio", " pt ", " pt", "(pt)"}},
	{"Ortho", []string{"ortho", "orthop"}},
	{"Neuro", []string{"neuro"}},
	{"Spine", []string{"spine", "spinal"}},
	{"Foot/Ankle", []string{"foot", "ankle", "podiat"}},
	{"Hand Surgeon", []string{"hand surgeon", "hand & wrist", "upper extremity", "hand"}},
	{"Post-Concussion", []string{"post-concussion", "concuss", "tbi"}},
	{"Heart", []string{"cardio", "heart"}},
	{"Pain Management", []string{"pain management", "pain med", "interventional pain", "pm&r", "physiat"}},
	{"MRI/Imaging", []string{"mri", "radiology", "imaging", "x-ray", "ct"}},
	{"ENT", []string{"ent", "otolaryng"}},
	{"Ophthalmology", []string{"ophthalm", "eye"}},
	{"Dental/Oral", []string{"dental", "oral", "maxillofacial"}},
	{"Primary Care", []string{"primary care", "internal medicine", "family medicine"}},
	{"Urgent Care", []string{"urgent care"}},
	{"Neurosurgery", []string{"neurosurg"}},
	{"Plastic/Reconstructive", []string{"plastic", "reconstructive"}},
	{"Psych/Behavioral", []string{"psychiat", "psychology", "behavioral"}},
}

var known = func() map[string]bool {
	m := make(map[string]bool, len(table))
	for _, c := range table {
		m[c.Label] = true
	}
	return m
}()

// Table returns a copy of the category table in display order.
func Table() []Category {
	out := make([]Category, len(table))
	for i, c := range table {
		out[i] = Category{Label: c.Label, Needles: append([]string(nil), c.Needles...)}
	}
	return out
}

// Labels lists every category label in table order.
func Labels() []string {
	out := make([]string, len(table))
	for i, c := range table {
		out[i] = c.Label
	}
	return out
}

// Known reports whether label names a category.
func Known(label string) bool {
	return known[label]
}

// Fold lowercases NFKC-normalised text. A Caser is stateful, so each call
// gets its own.
func Fold(text string) string {
	return cases.Lower(language.Und).String(norm.NFKC.String(text))
}

func prepare(text string) string {
	return " " + Fold(text) + " "
}

// CategoriesFor returns the sorted labels whose needles occur in text.
func CategoriesFor(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	s := prepare(text)
	var out []string
	for _, c := range table {
		for _, n := range c.Needles {
			if strings.Contains(s, n) {
				out = append(out, c.Label)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// Matches reports whether text falls in at least one of the selected labels.
func Matches(text string, selected map[string]bool) bool {
	if len(selected) == 0 {
		return false
	}
	for _, label := range CategoriesFor(text) {
		if selected[label] {
			return true
		}
	}
	return false
}

// AvailableCategories returns the sorted labels that match at least one
// provider in records.
func AvailableCategories(records []models.Provider) []string {
	found := make(map[string]bool)
	for _, p := range records {
		for _, label := range CategoriesFor(p.Specialty) {
			found[label] = true
		}
	}
	out := make([]string, 0, len(found))
	for label := range found {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}
