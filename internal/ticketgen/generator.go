// Package ticketgen produces synthetic ticket snapshots for fixtures and load
// runs.
package ticketgen

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/tally/internal/domain/model"
)

// Age bounds of generated athletes.
const (
	minAge = 16
	maxAge = 78
)

// Config controls the generated purchase mix.
type Config struct {
	// Purchases is the number of transactions to generate.
	Purchases int
	// Seed makes output reproducible. Equal seeds give equal snapshots.
	Seed uint64
	// Days are the event days purchases are spread over.
	Days []model.EventDay
	// IncompleteRate is the share of team purchases missing one member seat.
	IncompleteRate float64
	// DuplicateRate is the share of tickets emitted twice.
	DuplicateRate float64
	// MissingAgeRate is the share of athlete seats without an age.
	MissingAgeRate float64
}

// DefaultConfig returns a mix resembling a weekend event.
func DefaultConfig() Config {
	return Config{
		Purchases:      1000,
		Seed:           1,
		Days:           []model.EventDay{model.DayFriday, model.DaySaturday, model.DaySunday},
		IncompleteRate: 0.05,
		DuplicateRate:  0.01,
		MissingAgeRate: 0.02,
	}
}

// Stats summarizes a generated snapshot.
type Stats struct {
	Purchases  int
	Tickets    int
	Duplicates int
	// Dropped counts member seats left out of incomplete team purchases.
	Dropped int
	Extras  int
	// ByFamily counts purchases per unit family.
	ByFamily map[model.Family]int
}

// product is one sellable ticket type.
type product struct {
	name   string
	hint   model.CategoryHint
	family model.Family
	// genders of the seats in order; empty means any.
	genders []model.Gender
	weight  int
}

var (
	male   = model.GenderMale
	female = model.GenderFemale
)

var products = []product{
	{"HYROX MEN", model.HintSingle, model.FamilySingle, []model.Gender{male}, 30},
	{"HYROX WOMEN", model.HintSingle, model.FamilySingle, []model.Gender{female}, 25},
	{"HYROX ADAPTIVE MEN", model.HintSingle, model.FamilySingle, []model.Gender{male}, 1},
	{"HYROX ADAPTIVE WOMEN", model.HintSingle, model.FamilySingle, []model.Gender{female}, 1},
	{"HYROX PRO MEN", model.HintSingle, model.FamilySingle, []model.Gender{male}, 6},
	{"HYROX PRO WOMEN", model.HintSingle, model.FamilySingle, []model.Gender{female}, 4},
	{"HYROX DOUBLES MEN", model.HintDouble, model.FamilyDouble, []model.Gender{male, male}, 8},
	{"HYROX DOUBLES WOMEN", model.HintDouble, model.FamilyDouble, []model.Gender{female, female}, 6},
	{"HYROX DOUBLES MIXED", model.HintDouble, model.FamilyDouble, []model.Gender{male, female}, 8},
	{"HYROX PRO DOUBLES MEN", model.HintDouble, model.FamilyDouble, []model.Gender{male, male}, 2},
	{"HYROX WOMEN PRO DOUBLES", model.HintDouble, model.FamilyDouble, []model.Gender{female, female}, 1},
	{"HYROX MENS RELAY", model.HintRelay, model.FamilyRelay, []model.Gender{male, male, male, male}, 3},
	{"HYROX WOMENS RELAY", model.HintRelay, model.FamilyRelay, []model.Gender{female, female, female, female}, 3},
	{"HYROX MIXED RELAY", model.HintRelay, model.FamilyRelay, []model.Gender{male, male, female, female}, 4},
	{"HYROX MIXED CORPORATE RELAY", model.HintCorporateRelay, model.FamilyCorporateRelay, []model.Gender{male, female, male, female}, 2},
	{"Spectator", model.HintSpectator, model.FamilySpectator, nil, 10},
	{"Sportograf Photo Package", model.HintExtra, model.FamilyExcluded, nil, 3},
}

// Generator builds snapshots from a seeded random source.
type Generator struct {
	cfg   Config
	src   *rand.ChaCha8
	rng   *rand.Rand
	total int
}

// New returns a Generator for cfg. Zero fields take DefaultConfig values.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.Purchases <= 0 {
		cfg.Purchases = def.Purchases
	}
	if len(cfg.Days) == 0 {
		cfg.Days = def.Days
	}
	var seed [32]byte
	for i := 0; i < 8; i++ {
		seed[i] = byte(cfg.Seed >> (8 * i))
	}
	src := rand.NewChaCha8(seed)
	g := &Generator{cfg: cfg, src: src, rng: rand.New(src)}
	for _, p := range products {
		g.total += p.weight
	}
	return g
}

// Generate returns the tickets of cfg.Purchases transactions.
func (g *Generator) Generate(ctx context.Context) ([]model.RawTicket, Stats, error) {
	stats := Stats{ByFamily: make(map[model.Family]int)}
	var out []model.RawTicket
	for i := 0; i < g.cfg.Purchases; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
		}
		p := g.pick()
		seats, dropped := g.purchase(p)
		stats.Purchases++
		stats.Dropped += dropped
		stats.ByFamily[p.family]++
		for _, t := range seats {
			out = append(out, t)
			if p.hint == model.HintExtra {
				stats.Extras++
			}
			if g.rng.Float64() < g.cfg.DuplicateRate {
				out = append(out, t)
				stats.Duplicates++
			}
		}
	}
	stats.Tickets = len(out)
	return out, stats, nil
}

func (g *Generator) pick() product {
	n := g.rng.IntN(g.total)
	for _, p := range products {
		if n < p.weight {
			return p
		}
		n -= p.weight
	}
	return products[0]
}

func (g *Generator) id() string {
	id, err := uuid.NewRandomFromReader(g.src)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// purchase emits the seats of one transaction and how many were dropped.
func (g *Generator) purchase(p product) ([]model.RawTicket, int) {
	day := g.cfg.Days[g.rng.IntN(len(g.cfg.Days))]
	txn := g.id()
	base := p.name + " | " + dayName(day)

	seats := len(p.genders)
	if seats == 0 {
		seats = 1
	}
	dropped := 0
	if seats > 1 && g.rng.Float64() < g.cfg.IncompleteRate {
		dropped = 1
	}

	out := make([]model.RawTicket, 0, seats)
	for i := 0; i < seats-dropped; i++ {
		name := base
		if i > 0 {
			name = base + " | " + memberSuffix(p.family, i)
		}
		t := model.RawTicket{
			TicketID:      g.id(),
			TransactionID: txn,
			RawName:       name,
			CategoryHint:  p.hint,
			EventDay:      day,
		}
		if p.hint == model.HintExtra {
			t.EventDay = model.DayNone
		}
		if len(p.genders) > 0 {
			t.Gender = p.genders[i]
			if g.rng.Float64() >= g.cfg.MissingAgeRate {
				t.Age = model.IntPtr(minAge + g.rng.IntN(maxAge-minAge+1))
			}
		}
		out = append(out, t)
	}
	return out, dropped
}

func memberSuffix(f model.Family, seat int) string {
	if f == model.FamilyDouble {
		return fmt.Sprintf("Athlete %d", seat+1)
	}
	return "Team Member"
}

func dayName(d model.EventDay) string {
	s := string(d)
	if s == "" {
		return ""
	}
	return s[:1] + strings.ToLower(s[1:])
}

// WriteJSONL writes one ticket per line.
func WriteJSONL(w io.Writer, tickets []model.RawTicket) error {
	enc := json.NewEncoder(w)
	for _, t := range tickets {
		if err := enc.Encode(t); err != nil {
			return fmt.Errorf("encode ticket %s: %w", t.TicketID, err)
		}
	}
	return nil
}
