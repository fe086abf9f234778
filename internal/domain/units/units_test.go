package units_test

import (
	"fmt"
	"testing"

	"github.com/okian/tally/internal/domain/classify"
	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/internal/domain/units"
	. "github.com/smartystreets/goconvey/convey"
)

type seat struct {
	id, name string
	hint     model.CategoryHint
	day      model.EventDay
	age      int
	gender   model.Gender
}

func partition(txn string, seats ...seat) model.Partition {
	c := classify.New()
	p := model.Partition{Key: txn}
	for _, s := range seats {
		raw := model.RawTicket{
			TicketID:      s.id,
			TransactionID: txn,
			RawName:       s.name,
			CategoryHint:  s.hint,
			EventDay:      s.day,
			Gender:        s.gender,
		}
		if s.age > 0 {
			raw.Age = model.IntPtr(s.age)
		}
		p.Tickets = append(p.Tickets, c.Ticket(raw, classify.Context{}))
	}
	return p
}

func finished(p model.Partition) []model.Unit {
	us := units.NewBuilder().Build(p)
	for i := range us {
		units.Finish(&us[i])
	}
	return us
}

func consumed(us []model.Unit) map[string]int {
	seen := map[string]int{}
	for _, u := range us {
		for _, id := range u.TicketIDs() {
			seen[id]++
		}
	}
	return seen
}

func TestBuildSingle(t *testing.T) {
	Convey("Given a single ticket aged 34", t, func() {
		us := finished(partition("tx-1", seat{"t1", "Hyrox Men | Saturday", model.HintSingle, model.DaySaturday, 34, model.GenderMale}))

		Convey("Then one complete single unit lands in 30-34", func() {
			So(us, ShouldHaveLength, 1)
			So(us[0].Category, ShouldEqual, model.CatMenWithAdaptive)
			So(us[0].RequiredMembers, ShouldEqual, 1)
			So(us[0].Incomplete, ShouldBeFalse)
			So(us[0].Bucket, ShouldEqual, "30-34")
		})
	})
}

func TestBuildDoubles(t *testing.T) {
	Convey("Given two doubles purchases in one transaction", t, func() {
		p := partition("tx-2",
			seat{"a", "HYROX DOUBLES MIXED", model.HintDouble, model.DaySaturday, 29, model.GenderMale},
			seat{"b", "HYROX DOUBLES MIXED | ATHLETE 2", model.HintDouble, model.DaySaturday, 30, model.GenderFemale},
			seat{"c", "HYROX DOUBLES MIXED", model.HintDouble, model.DaySaturday, 41, model.GenderMale},
			seat{"d", "HYROX DOUBLES MIXED | ATHLETE 2", model.HintDouble, model.DaySaturday, 43, model.GenderMale},
		)
		us := finished(p)

		Convey("Then MAINs pair positionally with MEMBERs", func() {
			So(us, ShouldHaveLength, 2)
			So(us[0].TicketIDs(), ShouldResemble, []string{"a", "b"})
			So(us[1].TicketIDs(), ShouldResemble, []string{"c", "d"})
		})

		Convey("Then the 29/30 pair is complete at age 29", func() {
			So(us[0].Incomplete, ShouldBeFalse)
			So(*us[0].RepresentativeAge, ShouldEqual, 29)
			So(us[0].Bucket, ShouldEqual, "U29")
		})

		Convey("Then two males in a mixed pair fail the gender ratio", func() {
			So(us[1].Incomplete, ShouldBeTrue)
			So(us[1].Reasons, ShouldResemble, []model.Reason{model.ReasonGenderRatio})
		})
	})

	Convey("Given doubles on different days in one transaction", t, func() {
		p := partition("tx-3",
			seat{"a", "HYROX DOUBLES MEN", model.HintDouble, model.DaySunday, 30, model.GenderMale},
			seat{"b", "HYROX DOUBLES MEN | ATHLETE 2", model.HintDouble, model.DaySaturday, 30, model.GenderMale},
		)
		us := finished(p)

		Convey("Then seats never pair across days", func() {
			So(us, ShouldHaveLength, 2)
			So(us[0].EventDay, ShouldEqual, model.DaySaturday)
			So(us[0].Reasons, ShouldContain, model.ReasonMissingMain)
			So(us[0].Reasons, ShouldContain, model.ReasonMemberCount)
			So(us[1].EventDay, ShouldEqual, model.DaySunday)
			So(us[1].Reasons, ShouldResemble, []model.Reason{model.ReasonMemberCount})
		})
	})
}

func TestBuildRelay(t *testing.T) {
	Convey("Given a relay MAIN with two of three members", t, func() {
		p := partition("tx-4",
			seat{"m", "HYROX MIXED RELAY", model.HintRelay, model.DaySunday, 35, model.GenderMale},
			seat{"x", "HYROX MIXED RELAY | ATHLETE 2", model.HintRelay, model.DaySunday, 36, model.GenderFemale},
			seat{"y", "HYROX MIXED RELAY | ATHLETE 3", model.HintRelay, model.DaySunday, 37, model.GenderFemale},
		)
		us := finished(p)

		Convey("Then one incomplete unit still requires four heads", func() {
			So(us, ShouldHaveLength, 1)
			So(us[0].Incomplete, ShouldBeTrue)
			So(us[0].RequiredMembers, ShouldEqual, 4)
			So(us[0].Reasons, ShouldContain, model.ReasonMemberCount)
			So(us[0].Reasons, ShouldContain, model.ReasonGenderRatio)
			So(us[0].Bucket, ShouldEqual, "Incomplete")
		})
	})

	Convey("Given a full mixed relay of two men and two women", t, func() {
		us := finished(partition("tx-4a",
			seat{"m", "HYROX MIXED RELAY", model.HintRelay, model.DaySunday, 35, model.GenderMale},
			seat{"x", "HYROX MIXED RELAY | TEAM MEMBER", model.HintRelay, model.DaySunday, 36, model.GenderMale},
			seat{"y", "HYROX MIXED RELAY | TEAM MEMBER", model.HintRelay, model.DaySunday, 37, model.GenderFemale},
			seat{"z", "HYROX MIXED RELAY | TEAM MEMBER", model.HintRelay, model.DaySunday, 38, model.GenderFemale},
		))

		Convey("Then the unit is complete", func() {
			So(us, ShouldHaveLength, 1)
			So(us[0].Category, ShouldEqual, model.CatMixedRelay)
			So(us[0].Incomplete, ShouldBeFalse)
			So(us[0].Reasons, ShouldBeEmpty)
			So(us[0].Bucket, ShouldNotEqual, "Incomplete")
		})
	})

	Convey("Given a full mixed relay of three men and one woman", t, func() {
		us := finished(partition("tx-4b",
			seat{"m", "HYROX MIXED RELAY", model.HintRelay, model.DaySunday, 35, model.GenderMale},
			seat{"x", "HYROX MIXED RELAY | TEAM MEMBER", model.HintRelay, model.DaySunday, 36, model.GenderMale},
			seat{"y", "HYROX MIXED RELAY | TEAM MEMBER", model.HintRelay, model.DaySunday, 37, model.GenderMale},
			seat{"z", "HYROX MIXED RELAY | TEAM MEMBER", model.HintRelay, model.DaySunday, 38, model.GenderFemale},
		))

		Convey("Then only the gender ratio fails", func() {
			So(us, ShouldHaveLength, 1)
			So(us[0].Incomplete, ShouldBeTrue)
			So(us[0].Members, ShouldHaveLength, 4)
			So(us[0].Reasons, ShouldResemble, []model.Reason{model.ReasonGenderRatio})
		})
	})

	Convey("Given relays of two categories in one transaction", t, func() {
		p := partition("tx-5",
			seat{"m1", "HYROX MENS RELAY", model.HintRelay, model.DaySunday, 40, model.GenderMale},
			seat{"m2", "HYROX MENS RELAY | ATHLETE 2", model.HintRelay, model.DaySunday, 40, model.GenderMale},
			seat{"m3", "HYROX MENS RELAY | ATHLETE 3", model.HintRelay, model.DaySunday, 40, model.GenderMale},
			seat{"m4", "HYROX MENS RELAY | ATHLETE 4", model.HintRelay, model.DaySunday, 40, model.GenderMale},
			seat{"w1", "HYROX WOMENS RELAY", model.HintRelay, model.DaySunday, 30, model.GenderFemale},
			seat{"w2", "HYROX WOMENS RELAY | TEAM MEMBER", model.HintRelay, model.DaySunday, 30, model.GenderFemale},
		)
		us := finished(p)

		Convey("Then members never cross categories", func() {
			So(us, ShouldHaveLength, 2)
			So(us[0].Category, ShouldEqual, model.CatMensRelay)
			So(us[0].Incomplete, ShouldBeFalse)
			So(us[0].Bucket, ShouldEqual, "40+")
			So(us[1].Category, ShouldEqual, model.CatWomensRelay)
			So(us[1].TicketIDs(), ShouldResemble, []string{"w1", "w2"})
		})
	})

	Convey("Given relay members with no MAIN", t, func() {
		var seats []seat
		for i := 0; i < 5; i++ {
			seats = append(seats, seat{fmt.Sprintf("s%d", i), "HYROX MENS RELAY | TEAM MEMBER", model.HintRelay, model.DaySunday, 30, model.GenderMale})
		}
		us := finished(partition("tx-6", seats...))

		Convey("Then leftovers are chunked by unit size and flagged", func() {
			So(us, ShouldHaveLength, 2)
			So(us[0].Members, ShouldHaveLength, 4)
			So(us[1].Members, ShouldHaveLength, 1)
			So(us[0].Reasons, ShouldResemble, []model.Reason{model.ReasonMissingMain})
		})
	})
}

func TestBuildLoose(t *testing.T) {
	Convey("Given tickets without a transaction id", t, func() {
		us := finished(partition("",
			seat{"a", "HYROX DOUBLES MEN", model.HintDouble, model.DaySaturday, 30, model.GenderMale},
			seat{"b", "HYROX DOUBLES MEN | ATHLETE 2", model.HintDouble, model.DaySaturday, 30, model.GenderMale},
			seat{"c", "HYROX MEN", model.HintSingle, model.DaySaturday, 30, model.GenderMale},
		))

		Convey("Then every ticket is its own incomplete unit", func() {
			So(us, ShouldHaveLength, 3)
			for _, u := range us {
				So(u.Incomplete, ShouldBeTrue)
				So(u.Reasons, ShouldContain, model.ReasonMissingTransaction)
			}
			So(us[0].RequiredMembers, ShouldEqual, 2)
		})
	})
}

func TestBuildConsumption(t *testing.T) {
	Convey("Given a mixed transaction with an extra", t, func() {
		p := partition("tx-7",
			seat{"s1", "HYROX WOMEN", model.HintSingle, model.DayFriday, 28, model.GenderFemale},
			seat{"d1", "HYROX DOUBLES WOMEN", model.HintDouble, model.DayFriday, 28, model.GenderFemale},
			seat{"d2", "HYROX DOUBLES WOMEN | ATHLETE 2", model.HintDouble, model.DayFriday, 28, model.GenderFemale},
			seat{"r1", "HYROX MIXED RELAY | TEAM MEMBER", model.HintRelay, model.DaySunday, 28, model.GenderFemale},
			seat{"sp", "Spectator", model.HintSpectator, model.DaySunday, 0, ""},
			seat{"ex", "Sportograf Photo Package", model.HintExtra, model.DayNone, 0, ""},
			seat{"u1", "Merch T-Shirt", model.HintSingle, model.DayFriday, 0, ""},
		)
		us := finished(p)

		Convey("Then each non-extra ticket is consumed exactly once", func() {
			seen := consumed(us)
			So(seen, ShouldHaveLength, 6)
			for _, n := range seen {
				So(n, ShouldEqual, 1)
			}
			So(seen, ShouldNotContainKey, "ex")
		})

		Convey("Then spectators are complete without an age", func() {
			for _, u := range us {
				if u.Category == model.CatSpectator {
					So(u.Incomplete, ShouldBeFalse)
					So(u.Bucket, ShouldBeEmpty)
				}
			}
		})

		Convey("Then unclassified tickets become flagged units", func() {
			var found bool
			for _, u := range us {
				if u.Category == model.CatUnclassified {
					found = true
					So(u.Reasons, ShouldContain, model.ReasonUnclassified)
				}
			}
			So(found, ShouldBeTrue)
		})
	})
}

func TestValidateAge(t *testing.T) {
	Convey("Given a single with an impossible age", t, func() {
		u := model.Unit{
			TransactionID:   "tx",
			Category:        model.CatWomenWithAdaptive,
			RequiredMembers: 1,
			Members:         []model.ClassifiedTicket{{RawTicket: model.RawTicket{TicketID: "a", Age: model.IntPtr(1200)}}},
		}
		incomplete, reasons := units.Validate(&u)
		So(incomplete, ShouldBeTrue)
		So(reasons, ShouldResemble, []model.Reason{model.ReasonAgeOutOfRange})
	})

	Convey("Given a single with no age", t, func() {
		u := model.Unit{
			TransactionID:   "tx",
			Category:        model.CatWomenWithAdaptive,
			RequiredMembers: 1,
			Members:         []model.ClassifiedTicket{{RawTicket: model.RawTicket{TicketID: "a"}}},
		}
		incomplete, reasons := units.Validate(&u)
		So(incomplete, ShouldBeTrue)
		So(reasons, ShouldResemble, []model.Reason{model.ReasonMissingAge})
	})
}
