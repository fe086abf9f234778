// Package classify maps free-text ticket names to canonical categories.
//
// Rules are evaluated as an ordered, first-match-wins cascade. Several rules
// can match the same name; the table order decides which one wins.
package classify

import (
	"sort"

	"github.com/okian/tally/internal/domain/model"
)

// Context carries per-region flags. It is passed by value into every call.
type Context struct {
	ExcludeAdaptiveSunday bool
}

// Input is the normalized view of a ticket a Rule matches against.
type Input struct {
	Raw  string
	Hint model.CategoryHint
	Day  model.EventDay
	Ctx  Context

	name name
}

// NewInput normalizes a ticket name for matching.
func NewInput(raw string, hint model.CategoryHint, day model.EventDay, ctx Context) *Input {
	return &Input{Raw: raw, Hint: hint, Day: day, Ctx: ctx, name: parseName(raw)}
}

// Result is the outcome of a classification.
type Result struct {
	Category model.Category
	Rule     string
	Adaptive bool
}

// Unclassified reports whether no rule matched.
func (r Result) Unclassified() bool { return r.Category == model.CatUnclassified }

// Classifier dispatches over an ordered rule table.
type Classifier struct {
	rules []Rule
}

// Option applies a configuration option to the Classifier.
type Option func(*Classifier)

// WithRules replaces the rule table. Rules are ordered by precedence; equal
// precedence keeps the given order.
func WithRules(rules ...Rule) Option {
	return func(c *Classifier) {
		if len(rules) > 0 {
			c.rules = append([]Rule(nil), rules...)
		}
	}
}

// New builds a Classifier with the default rule table.
func New(opts ...Option) *Classifier {
	c := &Classifier{rules: DefaultRules()}
	for _, opt := range opts {
		opt(c)
	}
	sort.SliceStable(c.rules, func(i, j int) bool {
		return c.rules[i].Precedence() < c.rules[j].Precedence()
	})
	return c
}

// Rules returns the rule names in evaluation order.
func (c *Classifier) Rules() []string {
	names := make([]string, len(c.rules))
	for i, r := range c.rules {
		names[i] = r.Name()
	}
	return names
}

// Classify maps a raw name plus context to exactly one category.
func (c *Classifier) Classify(raw string, hint model.CategoryHint, day model.EventDay, ctx Context) Result {
	in := NewInput(raw, hint, day, ctx)
	adaptive := in.name.has(adaptiveWords...)
	for _, r := range c.rules {
		if cat, ok := r.Match(in); ok {
			return Result{Category: cat, Rule: r.Name(), Adaptive: adaptive && cat.Family() == model.FamilySingle}
		}
	}
	return Result{Category: model.CatUnclassified, Adaptive: adaptive}
}

// Ticket classifies a raw ticket and resolves its seat role.
func (c *Classifier) Ticket(t model.RawTicket, ctx Context) model.ClassifiedTicket {
	res := c.Classify(t.RawName, t.CategoryHint, t.EventDay, ctx)
	role := model.RoleMain
	if IsMemberName(t.RawName) {
		role = model.RoleMember
	}
	return model.ClassifiedTicket{
		RawTicket: t,
		Category:  res.Category,
		Adaptive:  res.Adaptive,
		Role:      role,
	}
}

// AdaptiveCategory returns the adaptive breakdown category for an adaptive
// single, or false when the ticket is not part of the breakdown.
func AdaptiveCategory(t model.ClassifiedTicket) (model.Category, bool) {
	if !t.Adaptive {
		return "", false
	}
	switch t.Category {
	case model.CatMen, model.CatMenWithAdaptive:
		return model.CatMenAdaptive, true
	case model.CatWomen, model.CatWomenWithAdaptive:
		return model.CatWomenAdaptive, true
	}
	return "", false
}
