package usecase

import (
	"strings"

	"github.com/grocerygrid/backend/internal/domain"
	"github.com/tidwall/gjson"
)

// allergenShape enumerates the allergen encodings found across source exports
type allergenShape int

const (
	allergensAbsent      allergenShape = iota
	allergensFlatList                  // ["Mléko", "Lepek"]
	allergensCategoryMap               // {"Obsahuje": [...], "Neobsahuje": [...]}
	allergensBucketed                  // {"contains": [...], "may_contain": [...], "free_from": [...]}
)

// Keys of the canonical bucketed shape, in both spellings seen in exports
var (
	containsKeys   = []string{"contains"}
	mayContainKeys = []string{"may_contain", "mayContain"}
	freeFromKeys   = []string{"free_from", "freeFrom"}
)

// Category labels (folded) whose entries are allergens the product does not contain
var freeFromLabels = []string{"neobsahuje", "does not contain", "free from", "free_from", "freefrom"}

func classifyAllergens(r gjson.Result) allergenShape {
	switch {
	case r.IsArray():
		return allergensFlatList
	case r.IsObject():
		for _, group := range [][]string{containsKeys, mayContainKeys, freeFromKeys} {
			for _, key := range group {
				if r.Get(key).Exists() {
					return allergensBucketed
				}
			}
		}
		return allergensCategoryMap
	default:
		return allergensAbsent
	}
}

// normalizeAllergens converts any known allergen shape into the three buckets
func normalizeAllergens(r gjson.Result) domain.Allergens {
	contains := newTermSet()
	mayContain := newTermSet()
	freeFrom := newTermSet()

	switch classifyAllergens(r) {
	case allergensFlatList:
		contains.addAll(r)

	case allergensCategoryMap:
		r.ForEach(func(label, entries gjson.Result) bool {
			if !entries.IsArray() {
				return true
			}
			if isFreeFromLabel(label.String()) {
				freeFrom.addAll(entries)
			} else {
				contains.addAll(entries)
			}
			return true
		})

	case allergensBucketed:
		for _, key := range containsKeys {
			contains.addAll(r.Get(key))
		}
		for _, key := range mayContainKeys {
			mayContain.addAll(r.Get(key))
		}
		for _, key := range freeFromKeys {
			freeFrom.addAll(r.Get(key))
		}
	}

	return domain.Allergens{
		Contains:   contains.terms,
		MayContain: mayContain.terms,
		FreeFrom:   freeFrom.terms,
	}
}

func isFreeFromLabel(label string) bool {
	folded := FoldText(strings.TrimSpace(label))
	for _, l := range freeFromLabels {
		if strings.Contains(folded, l) {
			return true
		}
	}
	return false
}

// termSet keeps insertion order and drops exact duplicates
type termSet struct {
	terms []string
	seen  map[string]bool
}

func newTermSet() *termSet {
	return &termSet{terms: []string{}, seen: make(map[string]bool)}
}

func (s *termSet) add(term string) {
	term = strings.TrimSpace(term)
	if term == "" || s.seen[term] {
		return
	}
	s.seen[term] = true
	s.terms = append(s.terms, term)
}

func (s *termSet) addAll(list gjson.Result) {
	if !list.IsArray() {
		return
	}
	for _, item := range list.Array() {
		if item.Type == gjson.String {
			s.add(item.Str)
		}
	}
}
