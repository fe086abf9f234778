package ages

import (
	"testing"

	"github.com/okian/tally/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func members(ages ...*int) []model.ClassifiedTicket {
	out := make([]model.ClassifiedTicket, len(ages))
	for i, a := range ages {
		out[i] = model.ClassifiedTicket{RawTicket: model.RawTicket{TicketID: string(rune('a' + i)), Age: a}}
	}
	return out
}

func TestRepresentative(t *testing.T) {
	convey.Convey("Given member ages", t, func() {
		convey.Convey("When a pair is 29 and 30", func() {
			got := Representative(members(model.IntPtr(29), model.IntPtr(30)))
			convey.Convey("Then the age is floored to 29", func() {
				convey.So(*got, convey.ShouldEqual, 29)
			})
		})

		convey.Convey("When a relay is 30, 31, 33, 35", func() {
			got := Representative(members(model.IntPtr(30), model.IntPtr(31), model.IntPtr(33), model.IntPtr(35)))
			convey.So(*got, convey.ShouldEqual, 32)
		})

		convey.Convey("When any age is missing", func() {
			convey.So(Representative(members(model.IntPtr(40), nil)), convey.ShouldBeNil)
			convey.So(Representative(members(model.IntPtr(40), model.IntPtr(0))), convey.ShouldBeNil)
		})

		convey.Convey("When there are no members", func() {
			convey.So(Representative(nil), convey.ShouldBeNil)
		})
	})
}

func TestBucket(t *testing.T) {
	convey.Convey("Given the family tables", t, func() {
		cases := []struct {
			family model.Family
			age    int
			want   string
		}{
			{model.FamilySingle, 24, "U24"},
			{model.FamilySingle, 25, "25-29"},
			{model.FamilySingle, 34, "30-34"},
			{model.FamilySingle, 69, "65-69"},
			{model.FamilySingle, 70, "70+"},
			{model.FamilyDouble, 29, "U29"},
			{model.FamilyDouble, 30, "30-39"},
			{model.FamilyDouble, 75, "70+"},
			{model.FamilyRelay, 39, "U40"},
			{model.FamilyCorporateRelay, 40, "40+"},
		}
		for _, tc := range cases {
			got, ok := Bucket(tc.family, tc.age)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(got, convey.ShouldEqual, tc.want)
		}

		convey.Convey("Then ages past the table are rejected", func() {
			_, ok := Bucket(model.FamilySingle, MaxAge+1)
			convey.So(ok, convey.ShouldBeFalse)
		})

		convey.Convey("Then tables cover 0 to MaxAge without overlap", func() {
			for _, f := range []model.Family{model.FamilySingle, model.FamilyDouble, model.FamilyRelay} {
				for age := 0; age <= MaxAge; age++ {
					hits := 0
					for _, r := range Table(f) {
						if r.Contains(age) {
							hits++
						}
					}
					convey.So(hits, convey.ShouldEqual, 1)
				}
			}
		})

		convey.Convey("Then non athletic families have no table", func() {
			convey.So(Table(model.FamilySpectator), convey.ShouldBeNil)
			convey.So(Buckets(model.FamilyUnclassified), convey.ShouldBeNil)
		})

		convey.Convey("Then sentinels follow the ranges", func() {
			b := Buckets(model.FamilyRelay)
			convey.So(b, convey.ShouldResemble, []string{"U40", "40+", BucketIncomplete, BucketTotal})
			convey.So(Order(model.FamilyRelay, BucketTotal), convey.ShouldEqual, 3)
			convey.So(Order(model.FamilyRelay, "nope"), convey.ShouldEqual, -1)
		})
	})
}

func TestAssign(t *testing.T) {
	convey.Convey("Given a complete single aged 34", t, func() {
		u := &model.Unit{Category: model.CatMenWithAdaptive, Members: members(model.IntPtr(34))}
		Assign(u)
		convey.So(*u.RepresentativeAge, convey.ShouldEqual, 34)
		convey.So(u.Bucket, convey.ShouldEqual, "30-34")
	})

	convey.Convey("Given an incomplete relay", t, func() {
		u := &model.Unit{Category: model.CatMixedRelay, Incomplete: true, Members: members(model.IntPtr(44), model.IntPtr(46))}
		Assign(u)
		convey.So(*u.RepresentativeAge, convey.ShouldEqual, 45)
		convey.So(u.Bucket, convey.ShouldEqual, BucketIncomplete)
	})

	convey.Convey("Given a spectator", t, func() {
		u := &model.Unit{Category: model.CatSpectator, Members: members(nil)}
		Assign(u)
		convey.So(u.Bucket, convey.ShouldBeEmpty)
	})
}
