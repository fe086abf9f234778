package model

import (
	"fmt"
	"sort"
	"strings"
)

// CategoryVersion is bumped whenever the canonical enumeration changes.
const CategoryVersion = 3

// Category is a canonical participation category.
type Category string

// Canonical categories.
const (
	CatMen                  Category = "HYROX_MEN"
	CatWomen                Category = "HYROX_WOMEN"
	CatMenWithAdaptive      Category = "HYROX_MEN_WITH_ADAPTIVE"
	CatWomenWithAdaptive    Category = "HYROX_WOMEN_WITH_ADAPTIVE"
	CatProMen               Category = "HYROX_PRO_MEN"
	CatProWomen             Category = "HYROX_PRO_WOMEN"
	CatMenAdaptive          Category = "HYROX_MEN_ADAPTIVE"
	CatWomenAdaptive        Category = "HYROX_WOMEN_ADAPTIVE"
	CatDoublesMen           Category = "HYROX_DOUBLES_MEN"
	CatDoublesWomen         Category = "HYROX_DOUBLES_WOMEN"
	CatDoublesMixed         Category = "HYROX_DOUBLES_MIXED"
	CatProDoublesMen        Category = "HYROX_PRO_DOUBLES_MEN"
	CatProDoublesWomen      Category = "HYROX_PRO_DOUBLES_WOMEN"
	CatMensRelay            Category = "HYROX_MENS_RELAY"
	CatWomensRelay          Category = "HYROX_WOMENS_RELAY"
	CatMixedRelay           Category = "HYROX_MIXED_RELAY"
	CatMensCorporateRelay   Category = "HYROX_MENS_CORPORATE_RELAY"
	CatWomensCorporateRelay Category = "HYROX_WOMENS_CORPORATE_RELAY"
	CatMixedCorporateRelay  Category = "HYROX_MIXED_CORPORATE_RELAY"
	CatSpectator            Category = "SPECTATOR"
	CatExtra                Category = "EXTRA"
	CatUnclassified         Category = "UNCLASSIFIED"
)

// Family groups categories by unit shape.
type Family string

// Families.
const (
	FamilySingle         Family = "single"
	FamilyDouble         Family = "double"
	FamilyRelay          Family = "relay"
	FamilyCorporateRelay Family = "corporate_relay"
	FamilySpectator      Family = "spectator"
	FamilyExcluded       Family = "excluded"
	FamilyUnclassified   Family = "unclassified"
)

// RequiredMembers is the unit size for the family.
func (f Family) RequiredMembers() int {
	switch f {
	case FamilyDouble:
		return 2
	case FamilyRelay, FamilyCorporateRelay:
		return 4
	case FamilyExcluded:
		return 0
	default:
		return 1
	}
}

// Athletic reports whether units of the family carry ages and age buckets.
func (f Family) Athletic() bool {
	switch f {
	case FamilySingle, FamilyDouble, FamilyRelay, FamilyCorporateRelay:
		return true
	}
	return false
}

type categoryInfo struct {
	family   Family
	priority int
}

// Fallback display priority: singles, doubles, relays, spectators, the rest.
var categories = map[Category]categoryInfo{
	CatMen:                  {FamilySingle, 1},
	CatWomen:                {FamilySingle, 2},
	CatMenWithAdaptive:      {FamilySingle, 3},
	CatWomenWithAdaptive:    {FamilySingle, 4},
	CatProMen:               {FamilySingle, 5},
	CatProWomen:             {FamilySingle, 6},
	CatMenAdaptive:          {FamilySingle, 7},
	CatWomenAdaptive:        {FamilySingle, 8},
	CatDoublesMen:           {FamilyDouble, 10},
	CatDoublesWomen:         {FamilyDouble, 11},
	CatDoublesMixed:         {FamilyDouble, 12},
	CatProDoublesMen:        {FamilyDouble, 13},
	CatProDoublesWomen:      {FamilyDouble, 14},
	CatMensRelay:            {FamilyRelay, 20},
	CatWomensRelay:          {FamilyRelay, 21},
	CatMixedRelay:           {FamilyRelay, 22},
	CatMensCorporateRelay:   {FamilyCorporateRelay, 23},
	CatWomensCorporateRelay: {FamilyCorporateRelay, 24},
	CatMixedCorporateRelay:  {FamilyCorporateRelay, 25},
	CatSpectator:            {FamilySpectator, 30},
	CatExtra:                {FamilyExcluded, 98},
	CatUnclassified:         {FamilyUnclassified, 99},
}

// Categories returns every canonical category in fallback display order.
func Categories() []Category {
	out := make([]Category, 0, len(categories))
	for c := range categories {
		out = append(out, c)
	}
	sortCategories(out)
	return out
}

func sortCategories(cs []Category) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].Priority() < cs[j].Priority() })
}

// Valid reports whether c is part of the enumeration.
func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

// Family returns the unit family of the category.
func (c Category) Family() Family {
	if info, ok := categories[c]; ok {
		return info.family
	}
	return FamilyUnclassified
}

// Priority is the fallback display rank.
func (c Category) Priority() int {
	if info, ok := categories[c]; ok {
		return info.priority
	}
	return categories[CatUnclassified].priority
}

// RequiredMembers is the unit size for the category.
func (c Category) RequiredMembers() int { return c.Family().RequiredMembers() }

// DisplayName renders the category the way reports print it.
func (c Category) DisplayName() string {
	return strings.ReplaceAll(string(c), "_", " ")
}

// ParseCategory accepts the tag ("HYROX_MEN") or display ("Hyrox Men") form.
func ParseCategory(s string) (Category, error) {
	v := strings.ToUpper(strings.Join(strings.Fields(s), "_"))
	c := Category(v)
	if !c.Valid() {
		return "", fmt.Errorf("%q: %w", s, ErrUnknownCategory)
	}
	return c, nil
}
