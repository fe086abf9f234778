package summary

import (
	"testing"

	"github.com/okian/tally/internal/domain/ages"
	"github.com/okian/tally/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func unit(cat model.Category, day model.EventDay, incomplete bool, bucket string) *model.Unit {
	u := &model.Unit{
		TransactionID:   "tx",
		Category:        cat,
		EventDay:        day,
		RequiredMembers: cat.RequiredMembers(),
		Incomplete:      incomplete,
		Bucket:          bucket,
	}
	for i := 0; i < u.RequiredMembers; i++ {
		u.Members = append(u.Members, model.ClassifiedTicket{Category: cat, Role: model.RoleMain})
	}
	return u
}

func TestTally(t *testing.T) {
	Convey("Given units across workers", t, func() {
		a := NewTally(true)
		a.Add(unit(model.CatMenWithAdaptive, model.DaySaturday, false, "30-34"))
		a.Add(unit(model.CatMixedRelay, model.DaySunday, true, ages.BucketIncomplete))

		b := NewTally(true)
		b.Add(unit(model.CatMenWithAdaptive, model.DaySaturday, true, ages.BucketIncomplete))
		b.Add(unit(model.CatExtra, model.DayNone, false, ""))

		a.Merge(b)

		Convey("Then merged counts are the sum in heads", func() {
			men, ok := a.Get(Key{model.CatMenWithAdaptive, model.DaySaturday})
			So(ok, ShouldBeTrue)
			So(men.Complete, ShouldEqual, 1)
			So(men.Incomplete, ShouldEqual, 1)
			So(men.Total, ShouldEqual, 2)
			So(men.Buckets["30-34"], ShouldEqual, 1)
			So(men.Buckets[ages.BucketTotal], ShouldEqual, 2)

			relay, _ := a.Get(Key{model.CatMixedRelay, model.DaySunday})
			So(relay.Incomplete, ShouldEqual, 4)
			So(relay.Total, ShouldEqual, 4)
		})

		Convey("Then extras are never counted", func() {
			_, ok := a.Get(Key{model.CatExtra, model.DayNone})
			So(ok, ShouldBeFalse)
			So(a.Units(), ShouldEqual, 3)
		})
	})

	Convey("Given the day breakdown is off", t, func() {
		tl := NewTally(false)
		tl.Add(unit(model.CatWomen, model.DaySaturday, false, "U24"))
		tl.Add(unit(model.CatWomen, model.DaySunday, false, "U24"))

		Convey("Then days fold into ALL", func() {
			c, ok := tl.Get(Key{model.CatWomen, model.DayAll})
			So(ok, ShouldBeTrue)
			So(c.Total, ShouldEqual, 2)
		})
	})

	Convey("Given an adaptive single", t, func() {
		tl := NewTally(true)
		u := unit(model.CatMenWithAdaptive, model.DaySaturday, false, "40-44")
		u.Members[0].Adaptive = true
		tl.Add(u)

		Convey("Then it appears in the adaptive breakdown only", func() {
			b := Finalize(tl, nil)
			So(b.Rows, ShouldHaveLength, 1)
			So(b.Adaptive, ShouldHaveLength, 1)
			So(b.Adaptive[0].Category, ShouldEqual, model.CatMenAdaptive)
		})
	})
}

func TestCapacityLookup(t *testing.T) {
	Convey("Given capacities for specific days and ALL", t, func() {
		caps := CapacityConfig{
			{model.CatMenWithAdaptive, model.DaySaturday, 200},
			{model.CatMenWithAdaptive, model.DayAll, 500},
			{model.CatWomen, model.DaySaturday, 100},
			{model.CatWomen, model.DaySunday, 150},
		}

		Convey("Then an exact day wins", func() {
			c, ok := caps.Lookup(model.CatMenWithAdaptive, model.DaySaturday)
			So(ok, ShouldBeTrue)
			So(c, ShouldEqual, 200)
		})

		Convey("Then ALL is the fallback", func() {
			c, ok := caps.Lookup(model.CatMenWithAdaptive, model.DaySunday)
			So(ok, ShouldBeTrue)
			So(c, ShouldEqual, 500)
		})

		Convey("Then the ALL day sums day entries", func() {
			c, ok := caps.Lookup(model.CatWomen, model.DayAll)
			So(ok, ShouldBeTrue)
			So(c, ShouldEqual, 250)
		})

		Convey("Then unknown keys have no capacity", func() {
			_, ok := caps.Lookup(model.CatWomen, model.DayFriday)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestFinalize(t *testing.T) {
	Convey("Given a tally and an ordered capacity list", t, func() {
		tl := NewTally(true)
		for i := 0; i < 3; i++ {
			tl.Add(unit(model.CatMenWithAdaptive, model.DaySaturday, false, "30-34"))
		}
		tl.Add(unit(model.CatDoublesMixed, model.DaySaturday, true, ages.BucketIncomplete))
		tl.Add(unit(model.CatUnclassified, model.DayFriday, true, ""))
		tl.Add(unit(model.CatSpectator, model.DaySunday, false, ""))

		caps := CapacityConfig{
			{model.CatDoublesMixed, model.DaySaturday, 60},
			{model.CatMenWithAdaptive, model.DaySaturday, 7},
			{model.CatWomenWithAdaptive, model.DaySunday, 100},
		}
		b := Finalize(tl, caps)

		Convey("Then configured keys come first in list order", func() {
			So(b.Rows, ShouldHaveLength, 5)
			So(b.Rows[0].Category, ShouldEqual, model.CatDoublesMixed)
			So(b.Rows[1].Category, ShouldEqual, model.CatMenWithAdaptive)
			So(b.Rows[2].Category, ShouldEqual, model.CatWomenWithAdaptive)
			So(b.Rows[3].Category, ShouldEqual, model.CatSpectator)
			So(b.Rows[4].Category, ShouldEqual, model.CatUnclassified)
			So(b.Rows[4].Rank, ShouldEqual, 5)
		})

		Convey("Then percentages round to one decimal", func() {
			So(*b.Rows[1].Capacity, ShouldEqual, 7)
			So(*b.Rows[1].PercentageFilled, ShouldEqual, 42.9)
			So(*b.Rows[0].PercentageFilled, ShouldEqual, 3.3)
			So(b.Rows[3].Capacity, ShouldBeNil)
			So(b.Rows[3].PercentageFilled, ShouldBeNil)
		})

		Convey("Then configured keys absent from data are zero-filled", func() {
			z := b.Rows[2]
			So(z.Total, ShouldEqual, 0)
			So(*z.PercentageFilled, ShouldEqual, 0.0)
		})

		Convey("Then complete plus incomplete equals total", func() {
			for _, r := range b.Rows {
				So(r.Complete+r.Incomplete, ShouldEqual, r.Total)
			}
		})

		Convey("Then age rows cover every bucket of athletic rows", func() {
			var men []AgeRow
			for _, a := range b.AgeGroups {
				if a.Category == model.CatMenWithAdaptive {
					men = append(men, a)
				}
			}
			So(men, ShouldHaveLength, len(ages.Buckets(model.FamilySingle)))
			for _, a := range men {
				switch a.Bucket {
				case "30-34", ages.BucketTotal:
					So(a.Count, ShouldEqual, 3)
				default:
					So(a.Count, ShouldEqual, 0)
				}
			}
		})
	})

	Convey("Given an ALL capacity with the day breakdown on", t, func() {
		tl := NewTally(true)
		tl.Add(unit(model.CatWomen, model.DaySunday, false, "U24"))
		b := Finalize(tl, CapacityConfig{{model.CatWomen, model.DayAll, 10}})

		Convey("Then no extra ALL row is zero-filled", func() {
			So(b.Rows, ShouldHaveLength, 1)
			So(b.Rows[0].EventDay, ShouldEqual, model.DaySunday)
			So(*b.Rows[0].Capacity, ShouldEqual, 10)
		})
	})

	Convey("Given the same tally twice", t, func() {
		build := func() Batch {
			tl := NewTally(true)
			tl.Add(unit(model.CatMensRelay, model.DaySunday, false, "40+"))
			tl.Add(unit(model.CatWomen, model.DaySaturday, false, "U24"))
			tl.Add(unit(model.CatMen, model.DaySaturday, false, "U24"))
			return Finalize(tl, nil)
		}

		Convey("Then fallback order is stable", func() {
			a, b := build(), build()
			So(a, ShouldResemble, b)
			So(a.Rows[0].Category, ShouldEqual, model.CatMen)
			So(a.Rows[2].Category, ShouldEqual, model.CatMensRelay)
		})
	})

	Convey("Percentage rounds half away from zero", t, func() {
		So(Percentage(1, 8), ShouldEqual, 12.5)
		So(Percentage(2, 3), ShouldEqual, 66.7)
	})
}
