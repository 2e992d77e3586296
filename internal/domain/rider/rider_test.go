package rider_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/okian/cyclingdb/internal/domain/rider"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStatCodes(t *testing.T) {
	Convey("Given the canonical stat codes", t, func() {
		Convey("Then the order is fixed", func() {
			So(rider.StatCodes, ShouldHaveLength, 14)
			So(rider.StatCodes[0], ShouldEqual, rider.Eval)
			So(rider.StatCodes[13], ShouldEqual, rider.RC)
			So(rider.TT.Index(), ShouldEqual, 7)
			So(rider.StatCode("XX").Index(), ShouldEqual, -1)
		})

		Convey("Then each code has a label", func() {
			So(rider.BA.Label(), ShouldEqual, "Baroudeur")
			So(rider.TT.Label(), ShouldEqual, "Time Trial")
		})

		Convey("When parsing codes", func() {
			c, err := rider.ParseStatCode("mo")
			So(err, ShouldBeNil)
			So(c, ShouldEqual, rider.MO)

			c, err = rider.ParseStatCode(" Overall ")
			So(err, ShouldBeNil)
			So(c, ShouldEqual, rider.Eval)

			_, err = rider.ParseStatCode("speed")
			So(errors.Is(err, rider.ErrUnknownStat), ShouldBeTrue)
		})
	})
}

func TestCanonicalColumn(t *testing.T) {
	Convey("Given raw header cells", t, func() {
		cases := map[string]rider.Column{
			"Name":           rider.ColName,
			"\ufeffName":     rider.ColName,
			` "Team" `:       rider.ColTeam,
			"AGE":            rider.ColAge,
			"Country":        rider.ColNationality,
			"Overall":        rider.Column(rider.Eval),
			"time_trial":     rider.Column(rider.TT),
			"Time Trial":     rider.Column(rider.TT),
			"speciality":     rider.ColSpecialization,
			"Specialization": rider.ColSpecialization,
			"rc":             rider.Column(rider.RC),
		}
		for raw, want := range cases {
			Convey("Then "+raw+" maps to "+string(want), func() {
				got, ok := rider.CanonicalColumn(raw)
				So(ok, ShouldBeTrue)
				So(got, ShouldEqual, want)
			})
		}

		Convey("Then unknown headers are rejected", func() {
			_, ok := rider.CanonicalColumn("Potential")
			So(ok, ShouldBeFalse)
			_, ok = rider.CanonicalColumn("  ")
			So(ok, ShouldBeFalse)
		})

		Convey("Then the canonical export order is stable", func() {
			So(rider.Columns, ShouldHaveLength, 19)
			So(rider.Columns[:5], ShouldResemble, []rider.Column{
				rider.ColName, rider.ColTeam, rider.ColNationality, rider.ColAge, rider.ColSpecialization,
			})
			So(rider.Columns[5], ShouldEqual, rider.Column(rider.Eval))
		})
	})
}

func TestSpecialization(t *testing.T) {
	Convey("Given rating maps", t, func() {
		Convey("When one code dominates", func() {
			spec := rider.DeriveSpecialization(map[rider.StatCode]int{rider.FL: 70, rider.MO: 82, rider.SP: 60, rider.Eval: 90})
			So(spec, ShouldEqual, rider.Mountain)
		})

		Convey("When two codes tie", func() {
			spec := rider.DeriveSpecialization(map[rider.StatCode]int{rider.SP: 80, rider.HL: 80, rider.TT: 79})
			So(spec, ShouldEqual, rider.Hill)
		})

		Convey("When no relevant rating is present", func() {
			So(rider.DeriveSpecialization(map[rider.StatCode]int{rider.Eval: 75}), ShouldEqual, rider.Unknown)
			So(rider.DeriveSpecialization(nil), ShouldEqual, rider.Unknown)
		})

		Convey("When parsing labels and aliases", func() {
			for raw, want := range map[string]rider.Specialization{
				"Climber":    rider.Mountain,
				"time trial": rider.TimeTrial,
				"Chrono":     rider.TimeTrial,
				"classics":   rider.Cobblestones,
				"sprinter":   rider.Sprint,
				"Puncheur":   rider.Hill,
				"rouleur":    rider.Flat,
			} {
				got, ok := rider.ParseSpecialization(raw)
				So(ok, ShouldBeTrue)
				So(got, ShouldEqual, want)
			}
			_, ok := rider.ParseSpecialization("gc")
			So(ok, ShouldBeFalse)
		})

		Convey("Then each specialization maps back to its code", func() {
			code, ok := rider.TimeTrial.StatCode()
			So(ok, ShouldBeTrue)
			So(code, ShouldEqual, rider.TT)
			_, ok = rider.Unknown.StatCode()
			So(ok, ShouldBeFalse)
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given riders", t, func() {
		valid := rider.Rider{Name: "A. Rider", Team: "TeamX", Age: rider.Int(24), Ratings: map[rider.StatCode]int{rider.MO: 80}}

		Convey("Then a complete rider is valid", func() {
			So(rider.Validate(valid), ShouldBeNil)
		})

		Convey("Then a rider with an unknown age and team is valid", func() {
			So(rider.Validate(rider.Rider{Name: "X"}), ShouldBeNil)
		})

		Convey("Then a blank name is rejected", func() {
			r := valid
			r.Name = "  "
			err := rider.Validate(r)
			So(errors.Is(err, rider.ErrValidation), ShouldBeTrue)

			var verr *rider.ValidationError
			So(errors.As(err, &verr), ShouldBeTrue)
			So(verr.Field, ShouldEqual, "Name")
		})

		Convey("Then out of range values are rejected", func() {
			r := valid
			r.Age = rider.Int(140)
			So(rider.Validate(r), ShouldNotBeNil)

			r = valid
			r.Ratings = map[rider.StatCode]int{rider.SP: 101}
			So(rider.Validate(r), ShouldNotBeNil)
		})
	})
}

func TestParseBounded(t *testing.T) {
	Convey("Given raw numeric cells", t, func() {
		So(rider.ParseBounded("72", 0, 100), ShouldResemble, rider.Int(72))
		So(rider.ParseBounded(" 72.0 ", 0, 100), ShouldResemble, rider.Int(72))
		So(rider.ParseBounded(`="72"`, 0, 100), ShouldResemble, rider.Int(72))
		So(rider.ParseBounded(`"0"`, 0, 100), ShouldResemble, rider.Int(0))
		So(rider.ParseBounded("72.5", 0, 100).Valid, ShouldBeFalse)
		So(rider.ParseBounded("n/a", 0, 100).Valid, ShouldBeFalse)
		So(rider.ParseBounded("", 0, 100).Valid, ShouldBeFalse)
		So(rider.ParseBounded("101", 0, 100).Valid, ShouldBeFalse)
		So(rider.ParseBounded("-1", 0, 100).Valid, ShouldBeFalse)
	})
}

func TestRiderJSON(t *testing.T) {
	Convey("Given a rider with a missing age", t, func() {
		r := rider.Rider{Name: "B", Team: "T", Ratings: map[rider.StatCode]int{rider.FL: 70}}

		Convey("When encoding to JSON", func() {
			b, err := json.Marshal(r)
			So(err, ShouldBeNil)
			So(string(b), ShouldContainSubstring, `"age":null`)
			So(string(b), ShouldContainSubstring, `"ratings":{"FL":70}`)

			Convey("Then decoding restores it", func() {
				var back rider.Rider
				So(json.Unmarshal(b, &back), ShouldBeNil)
				So(back, ShouldResemble, r)
			})
		})

		Convey("Then column values render as text", func() {
			So(r.Value(rider.ColAge), ShouldEqual, "")
			So(r.Value(rider.Column(rider.FL)), ShouldEqual, "70")
			So(r.Value(rider.Column(rider.MO)), ShouldEqual, "")
		})
	})
}

func TestCleanCell(t *testing.T) {
	Convey("Given cells with spreadsheet artifacts", t, func() {
		So(rider.CleanCell(`  ="Team Visma"  `), ShouldEqual, "Team Visma")
		So(rider.CleanCell(`plain`), ShouldEqual, "plain")
	})

	Convey("Given cells whose quotes and equals signs are part of the value", t, func() {
		So(rider.CleanCell(`Juan "El Toro"`), ShouldEqual, `Juan "El Toro"`)
		So(rider.CleanCell(`'t Hoen`), ShouldEqual, `'t Hoen`)
		So(rider.CleanCell(`=Team`), ShouldEqual, `=Team`)
		So(rider.CleanCell(`"quoted"`), ShouldEqual, `"quoted"`)
	})

	Convey("Given a numeric cell with a bare formula prefix", t, func() {
		So(rider.ParseBounded(`=72`, 0, 100), ShouldResemble, rider.Int(72))
	})
}
