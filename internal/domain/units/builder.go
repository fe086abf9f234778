// Package units reassembles classified ticket rows into participant units and
// validates their completeness.
package units

import (
	"sort"
	"strings"

	"github.com/okian/tally/internal/domain/model"
)

// Builder turns one transaction partition into units. It holds no state
// between calls and is safe for concurrent use.
type Builder struct{}

// NewBuilder returns a Builder.
func NewBuilder() *Builder { return &Builder{} }

// group is a set of tickets that pair among themselves.
type group struct {
	family  model.Family
	cat     model.Category
	day     model.EventDay
	tickets []model.ClassifiedTicket
}

// Build returns the units of a partition. Every non-excluded ticket ends up
// in exactly one unit. Units are returned in a deterministic order.
func (b *Builder) Build(p model.Partition) []model.Unit {
	if strings.TrimSpace(p.Key) == "" {
		return b.loose(p.Tickets)
	}

	var out []model.Unit
	for _, g := range groupTickets(p.Tickets) {
		switch g.family {
		case model.FamilyDouble, model.FamilyRelay, model.FamilyCorporateRelay:
			out = append(out, pair(p.Key, g)...)
		default:
			for _, t := range g.tickets {
				out = append(out, unitOf(p.Key, t.Category, t.EventDay, []model.ClassifiedTicket{t}))
			}
		}
	}
	return out
}

// loose builds one unit per ticket for rows without a transaction id.
func (b *Builder) loose(tickets []model.ClassifiedTicket) []model.Unit {
	sorted := append([]model.ClassifiedTicket(nil), tickets...)
	sortTickets(sorted)
	out := make([]model.Unit, 0, len(sorted))
	for _, t := range sorted {
		if t.Category.Family() == model.FamilyExcluded {
			continue
		}
		out = append(out, unitOf("", t.Category, t.EventDay, []model.ClassifiedTicket{t}))
	}
	return out
}

// groupTickets splits a partition into pairing groups: doubles by day,
// relays by category and day, everything else per ticket family and day.
func groupTickets(tickets []model.ClassifiedTicket) []*group {
	index := make(map[string]*group)
	var groups []*group
	for _, t := range tickets {
		fam := t.Category.Family()
		if fam == model.FamilyExcluded {
			continue
		}
		var cat model.Category
		if fam == model.FamilyRelay || fam == model.FamilyCorporateRelay {
			cat = t.Category
		}
		key := string(fam) + "\x00" + string(cat) + "\x00" + string(t.EventDay)
		g, ok := index[key]
		if !ok {
			g = &group{family: fam, cat: cat, day: t.EventDay}
			index[key] = g
			groups = append(groups, g)
		}
		g.tickets = append(g.tickets, t)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.day != b.day {
			return a.day.Order() < b.day.Order()
		}
		if a.family != b.family {
			return a.family < b.family
		}
		return a.cat < b.cat
	})
	for _, g := range groups {
		sortTickets(g.tickets)
	}
	return groups
}

// pair matches MAIN seats with MEMBER seats positionally. A MAIN takes
// required-1 members; members left over are chunked into MAIN-less units.
func pair(txn string, g *group) []model.Unit {
	var mains, members []model.ClassifiedTicket
	for _, t := range g.tickets {
		if t.Role == model.RoleMember {
			members = append(members, t)
		} else {
			mains = append(mains, t)
		}
	}

	size := g.family.RequiredMembers()
	per := size - 1
	var out []model.Unit
	next := 0
	for _, m := range mains {
		end := next + per
		if end > len(members) {
			end = len(members)
		}
		seats := append([]model.ClassifiedTicket{m}, members[next:end]...)
		next = end
		out = append(out, unitOf(txn, m.Category, g.day, seats))
	}
	for next < len(members) {
		end := next + size
		if end > len(members) {
			end = len(members)
		}
		seats := append([]model.ClassifiedTicket(nil), members[next:end]...)
		next = end
		out = append(out, unitOf(txn, seats[0].Category, g.day, seats))
	}
	return out
}

func unitOf(txn string, cat model.Category, day model.EventDay, seats []model.ClassifiedTicket) model.Unit {
	u := model.Unit{
		TransactionID:   txn,
		Category:        cat,
		EventDay:        day,
		RequiredMembers: cat.RequiredMembers(),
		RawName:         seats[0].RawName,
		Members:         seats,
	}
	for _, s := range seats {
		if s.Role == model.RoleMain {
			u.RawName = s.RawName
			u.Adaptive = s.Adaptive
			break
		}
	}
	return u
}

// sortTickets orders by raw name, then ticket id.
func sortTickets(ts []model.ClassifiedTicket) {
	sort.SliceStable(ts, func(i, j int) bool {
		if ts[i].RawName != ts[j].RawName {
			return ts[i].RawName < ts[j].RawName
		}
		return ts[i].TicketID < ts[j].TicketID
	})
}
