package model_test

import (
	"encoding/json"
	"errors"
	"testing"

	model "github.com/okian/tally/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestParseDay(t *testing.T) {
	convey.Convey("Given raw event day values", t, func() {
		convey.Convey("When parsing known spellings", func() {
			cases := map[string]model.EventDay{
				"":         model.DayNone,
				"sat":      model.DaySaturday,
				" Sunday ": model.DaySunday,
				"THURS":    model.DayThursday,
				"friday":   model.DayFriday,
				"all":      model.DayAll,
				"none":     model.DayNone,
			}
			convey.Convey("Then each resolves to its canonical day", func() {
				for in, want := range cases {
					got, err := model.ParseDay(in)
					convey.So(err, convey.ShouldBeNil)
					convey.So(got, convey.ShouldEqual, want)
				}
			})
		})

		convey.Convey("When parsing an unknown day", func() {
			_, err := model.ParseDay("monday")
			convey.Convey("Then it is rejected", func() {
				convey.So(errors.Is(err, model.ErrInvalidDay), convey.ShouldBeTrue)
			})
		})

		convey.Convey("Then days order Thursday first and ALL last", func() {
			convey.So(model.DayThursday.Order(), convey.ShouldBeLessThan, model.DaySunday.Order())
			convey.So(model.DaySunday.Order(), convey.ShouldBeLessThan, model.DayAll.Order())
		})
	})
}

func TestParseGender(t *testing.T) {
	convey.Convey("Given multilingual gender values", t, func() {
		convey.So(model.ParseGender("Female 女性"), convey.ShouldEqual, model.GenderFemale)
		convey.So(model.ParseGender("Male 남성"), convey.ShouldEqual, model.GenderMale)
		convey.So(model.ParseGender("women"), convey.ShouldEqual, model.GenderFemale)
		convey.So(model.ParseGender(""), convey.ShouldEqual, model.GenderUnknown)
		convey.So(model.ParseGender("prefer not to say"), convey.ShouldEqual, model.GenderUnknown)
	})
}

func TestRawTicketCheck(t *testing.T) {
	convey.Convey("Given raw tickets", t, func() {
		convey.Convey("When the category hint is blank", func() {
			err := model.RawTicket{TicketID: "t-9", EventDay: model.DaySaturday}.Check()
			convey.Convey("Then the failure names the ticket", func() {
				convey.So(errors.Is(err, model.ErrMissingField), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "t-9")
			})
		})

		convey.Convey("When the ticket id is blank", func() {
			err := model.RawTicket{CategoryHint: model.HintSingle}.Check()
			convey.So(errors.Is(err, model.ErrMissingField), convey.ShouldBeTrue)
		})

		convey.Convey("When the hint is unknown", func() {
			err := model.RawTicket{TicketID: "t-1", CategoryHint: "vip"}.Check()
			convey.So(errors.Is(err, model.ErrInvalidHint), convey.ShouldBeTrue)
		})

		convey.Convey("When the ticket is well formed", func() {
			err := model.RawTicket{TicketID: "t-1", CategoryHint: model.HintRelay, EventDay: model.DaySunday}.Check()
			convey.So(err, convey.ShouldBeNil)
		})

		convey.Convey("When the day is the ALL aggregate key", func() {
			err := model.RawTicket{TicketID: "t-3", CategoryHint: model.HintSingle, EventDay: model.DayAll}.Check()
			convey.So(errors.Is(err, model.ErrInvalidDay), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "t-3")
		})
	})
}

func TestRawTicketNormalize(t *testing.T) {
	convey.Convey("Given a ticket built outside the JSON decoder", t, func() {
		raw := model.RawTicket{
			TicketID:      " p1 ",
			TransactionID: " tx ",
			RawName:       "HYROX ADAPTIVE MEN",
			CategoryHint:  "Single",
			EventDay:      "sun",
			Gender:        "Male",
		}

		convey.Convey("Then hint, day, gender and ids become canonical", func() {
			got, err := raw.Normalize()
			convey.So(err, convey.ShouldBeNil)
			convey.So(got.TicketID, convey.ShouldEqual, "p1")
			convey.So(got.TransactionID, convey.ShouldEqual, "tx")
			convey.So(got.CategoryHint, convey.ShouldEqual, model.HintSingle)
			convey.So(got.EventDay, convey.ShouldEqual, model.DaySunday)
			convey.So(got.Gender, convey.ShouldEqual, model.GenderMale)
			convey.So(got.RawName, convey.ShouldEqual, raw.RawName)
		})

		convey.Convey("Then a blank day becomes NONE and corporate relay spacing is accepted", func() {
			got, err := model.RawTicket{TicketID: "p2", CategoryHint: "corporate relay"}.Normalize()
			convey.So(err, convey.ShouldBeNil)
			convey.So(got.EventDay, convey.ShouldEqual, model.DayNone)
			convey.So(got.CategoryHint, convey.ShouldEqual, model.HintCorporateRelay)
		})

		convey.Convey("Then a failure leaves the ticket as given", func() {
			bad := model.RawTicket{TicketID: "p3", CategoryHint: "vip", EventDay: "sun"}
			got, err := bad.Normalize()
			convey.So(errors.Is(err, model.ErrInvalidHint), convey.ShouldBeTrue)
			convey.So(got, convey.ShouldResemble, bad)
		})
	})
}

func TestRawTicketUnmarshal(t *testing.T) {
	convey.Convey("Given a ticket row from the sales API", t, func() {
		payload := `{"ticket_id":" t-1 ","transaction_id":"tx-1","raw_name":"HYROX MEN | Saturday",
			"category_hint":"Doubles","event_day":"sat","age":34,"gender":"Male 男"}`

		var tk model.RawTicket
		err := json.Unmarshal([]byte(payload), &tk)

		convey.Convey("Then fields are normalized", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(tk.TicketID, convey.ShouldEqual, "t-1")
			convey.So(tk.CategoryHint, convey.ShouldEqual, model.HintDouble)
			convey.So(tk.EventDay, convey.ShouldEqual, model.DaySaturday)
			convey.So(*tk.Age, convey.ShouldEqual, 34)
			convey.So(tk.Gender, convey.ShouldEqual, model.GenderMale)
		})

		convey.Convey("When the hint cannot be normalized", func() {
			var bad model.RawTicket
			_ = json.Unmarshal([]byte(`{"ticket_id":"t-2","category_hint":"vip"}`), &bad)
			convey.Convey("Then it is kept verbatim for Check to report", func() {
				convey.So(string(bad.CategoryHint), convey.ShouldEqual, "vip")
				convey.So(bad.Check(), convey.ShouldNotBeNil)
			})
		})
	})
}

func TestCategories(t *testing.T) {
	convey.Convey("Given the canonical enumeration", t, func() {
		convey.Convey("Then families carry their unit sizes", func() {
			convey.So(model.CatMen.RequiredMembers(), convey.ShouldEqual, 1)
			convey.So(model.CatDoublesMixed.RequiredMembers(), convey.ShouldEqual, 2)
			convey.So(model.CatMixedRelay.RequiredMembers(), convey.ShouldEqual, 4)
			convey.So(model.CatMensCorporateRelay.Family(), convey.ShouldEqual, model.FamilyCorporateRelay)
			convey.So(model.CatSpectator.Family().Athletic(), convey.ShouldBeFalse)
			convey.So(model.CatExtra.RequiredMembers(), convey.ShouldEqual, 0)
		})

		convey.Convey("Then display names parse back to tags", func() {
			for _, c := range model.Categories() {
				got, err := model.ParseCategory(c.DisplayName())
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldEqual, c)
			}
		})

		convey.Convey("Then fallback order puts singles before doubles before relays", func() {
			all := model.Categories()
			convey.So(all[0], convey.ShouldEqual, model.CatMen)
			convey.So(all[len(all)-1], convey.ShouldEqual, model.CatUnclassified)
			convey.So(model.CatProWomen.Priority(), convey.ShouldBeLessThan, model.CatDoublesMen.Priority())
			convey.So(model.CatProDoublesWomen.Priority(), convey.ShouldBeLessThan, model.CatMensRelay.Priority())
		})

		convey.Convey("Then unknown categories are rejected", func() {
			_, err := model.ParseCategory("HYROX KIDS")
			convey.So(errors.Is(err, model.ErrUnknownCategory), convey.ShouldBeTrue)
		})
	})
}
