package classify

import (
	"github.com/okian/tally/internal/domain/model"
)

// Rule precedence groups, highest first.
const (
	PrecedenceCorporateRelay = 10
	PrecedenceRelay          = 20
	PrecedencePro            = 30
	PrecedenceStandard       = 40
	PrecedenceDoubles        = 50
	PrecedenceHint           = 60
)

// Rule is one entry of the ordered cascade. Match must be pure.
type Rule interface {
	Name() string
	Precedence() int
	Match(in *Input) (model.Category, bool)
}

// gendered maps a (mixed, women, men) triple to categories. An empty slot
// means the rule has no category for that qualifier.
type gendered struct {
	mixed, women, men model.Category
}

// pick resolves the gender qualifier in the fixed order mixed, women, men.
func (g gendered) pick(n name) (model.Category, bool) {
	switch {
	case g.mixed != "" && n.has(mixedWords...):
		return g.mixed, true
	case g.women != "" && n.has(womenWords...):
		return g.women, true
	case g.men != "" && n.has(menWords...):
		return g.men, true
	}
	return "", false
}

// CorporateRelayRule matches gender-qualified corporate relay names.
type CorporateRelayRule struct{}

var corporateRelay = gendered{
	mixed: model.CatMixedCorporateRelay,
	women: model.CatWomensCorporateRelay,
	men:   model.CatMensCorporateRelay,
}

func (CorporateRelayRule) Name() string    { return "corporate_relay" }
func (CorporateRelayRule) Precedence() int { return PrecedenceCorporateRelay }

func (CorporateRelayRule) Match(in *Input) (model.Category, bool) {
	if !in.name.has(relayWords...) {
		return "", false
	}
	if !in.name.has(corporateWords...) && in.Hint != model.HintCorporateRelay {
		return "", false
	}
	return corporateRelay.pick(in.name)
}

// RelayRule matches non-corporate relay names.
type RelayRule struct{}

var relay = gendered{
	mixed: model.CatMixedRelay,
	women: model.CatWomensRelay,
	men:   model.CatMensRelay,
}

func (RelayRule) Name() string    { return "relay" }
func (RelayRule) Precedence() int { return PrecedenceRelay }

func (RelayRule) Match(in *Input) (model.Category, bool) {
	if !in.name.has(relayWords...) {
		return "", false
	}
	return relay.pick(in.name)
}

// ProRule matches pro doubles before pro singles. "HYROX WOMEN PRO DOUBLES"
// must land here rather than in the generic doubles rule.
type ProRule struct{}

var (
	proDoubles = gendered{women: model.CatProDoublesWomen, men: model.CatProDoublesMen}
	proSingles = gendered{women: model.CatProWomen, men: model.CatProMen}
)

func (ProRule) Name() string    { return "pro" }
func (ProRule) Precedence() int { return PrecedencePro }

func (ProRule) Match(in *Input) (model.Category, bool) {
	if !in.name.has(proWords...) || in.name.has(relayWords...) {
		return "", false
	}
	if in.name.has(doublesWords...) {
		if in.name.has(mixedWords...) {
			return "", false
		}
		return proDoubles.pick(in.name)
	}
	return proSingles.pick(in.name)
}

// StandardRule handles men/women singles, including adaptive names. Adaptive
// and standard athletes merge into the plain category only on Sunday when the
// region excludes adaptive on Sunday; otherwise they land in the
// adaptive-inclusive category.
type StandardRule struct{}

var (
	standardMerged    = gendered{women: model.CatWomen, men: model.CatMen}
	standardInclusive = gendered{women: model.CatWomenWithAdaptive, men: model.CatMenWithAdaptive}
)

func (StandardRule) Name() string    { return "standard" }
func (StandardRule) Precedence() int { return PrecedenceStandard }

func (StandardRule) Match(in *Input) (model.Category, bool) {
	if in.Hint != model.HintSingle {
		return "", false
	}
	if in.name.has(relayWords...) || in.name.has(doublesWords...) || in.name.has(extraWords...) {
		return "", false
	}
	if in.Ctx.ExcludeAdaptiveSunday && in.Day == model.DaySunday {
		return standardMerged.pick(in.name)
	}
	return standardInclusive.pick(in.name)
}

// DoublesRule matches non-pro doubles names.
type DoublesRule struct{}

var doubles = gendered{
	mixed: model.CatDoublesMixed,
	women: model.CatDoublesWomen,
	men:   model.CatDoublesMen,
}

func (DoublesRule) Name() string    { return "doubles" }
func (DoublesRule) Precedence() int { return PrecedenceDoubles }

func (DoublesRule) Match(in *Input) (model.Category, bool) {
	if !in.name.has(doublesWords...) {
		return "", false
	}
	return doubles.pick(in.name)
}

// HintRule falls back to the sales API hint for spectators and extras.
type HintRule struct{}

func (HintRule) Name() string    { return "hint" }
func (HintRule) Precedence() int { return PrecedenceHint }

func (HintRule) Match(in *Input) (model.Category, bool) {
	switch {
	case in.Hint == model.HintSpectator || in.name.has(spectatorWords...):
		return model.CatSpectator, true
	case in.Hint == model.HintExtra || in.name.has(extraWords...):
		return model.CatExtra, true
	}
	return "", false
}

// DefaultRules is the production rule table.
func DefaultRules() []Rule {
	return []Rule{
		CorporateRelayRule{},
		RelayRule{},
		ProRule{},
		StandardRule{},
		DoublesRule{},
		HintRule{},
	}
}
