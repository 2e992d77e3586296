package query_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/okian/cyclingdb/internal/domain/query"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseSort(t *testing.T) {
	Convey("Given sort expressions", t, func() {
		s, err := query.ParseSort("-MO")
		So(err, ShouldBeNil)
		So(*s, ShouldResemble, query.SortSpec{Field: "MO", Desc: true})

		s, err = query.ParseSort("Age")
		So(err, ShouldBeNil)
		So(*s, ShouldResemble, query.SortSpec{Field: "age"})
		So(s.String(), ShouldEqual, "age")

		s, err = query.ParseSort("-overall")
		So(err, ShouldBeNil)
		So(s.String(), ShouldEqual, "-Eval")

		s, err = query.ParseSort("")
		So(err, ShouldBeNil)
		So(s, ShouldBeNil)

		_, err = query.ParseSort("-height")
		So(errors.Is(err, query.ErrInvalidSort), ShouldBeTrue)
	})
}

func TestSort(t *testing.T) {
	Convey("Given the peloton", t, func() {
		tbl := peloton()

		Convey("When sorting a rating ascending and descending", func() {
			asc, err := query.Search(tbl, query.Criteria{}, &query.SortSpec{Field: "MO"})
			So(err, ShouldBeNil)
			desc, err := query.Search(tbl, query.Criteria{}, &query.SortSpec{Field: "MO", Desc: true})
			So(err, ShouldBeNil)

			Convey("Then ties keep load order in both directions", func() {
				So(names(asc), ShouldResemble, []string{
					"Peter Sagan", "Élie Gesbert", "Juan Ayuso", "Remco Evenepoel", "Tadej Pogačar",
					"Anonymous", "Arnaud De Lie",
				})
				So(names(desc), ShouldResemble, []string{
					"Tadej Pogačar", "Juan Ayuso", "Remco Evenepoel", "Élie Gesbert", "Peter Sagan",
					"Anonymous", "Arnaud De Lie",
				})
			})

			Convey("Then distinct values come out reversed", func() {
				distinctAsc := []string{"Peter Sagan", "Élie Gesbert", "Tadej Pogačar"}
				var fromAsc, fromDesc []string
				for _, r := range asc {
					if slices.Contains(distinctAsc, r.Name) {
						fromAsc = append(fromAsc, r.Name)
					}
				}
				for _, r := range desc {
					if slices.Contains(distinctAsc, r.Name) {
						fromDesc = append(fromDesc, r.Name)
					}
				}
				slices.Reverse(fromDesc)
				So(fromAsc, ShouldResemble, fromDesc)
			})
		})

		Convey("When sorting names", func() {
			rows, err := query.Search(tbl, query.Criteria{}, &query.SortSpec{Field: "name"})
			So(err, ShouldBeNil)

			Convey("Then accented names collate with their base letter", func() {
				So(names(rows), ShouldResemble, []string{
					"Anonymous", "Arnaud De Lie", "Élie Gesbert", "Juan Ayuso", "Peter Sagan",
					"Remco Evenepoel", "Tadej Pogačar",
				})
			})
		})

		Convey("When sorting teams descending", func() {
			rows, err := query.Search(tbl, query.Criteria{}, &query.SortSpec{Field: "team", Desc: true})
			So(err, ShouldBeNil)

			Convey("Then riders without a team come last", func() {
				So(rows[len(rows)-1].Name, ShouldEqual, "Anonymous")
				So(rows[0].Team, ShouldEqual, "UAE")
			})
		})

		Convey("When sorting by age", func() {
			rows, err := query.Search(tbl, query.Criteria{}, &query.SortSpec{Field: "age"})
			So(err, ShouldBeNil)
			So(rows[0].Name, ShouldEqual, "Juan Ayuso")
			So(rows[len(rows)-1].Name, ShouldEqual, "Anonymous")
		})

		Convey("When the sort field is unknown", func() {
			_, err := query.Search(tbl, query.Criteria{}, &query.SortSpec{Field: "height"})
			So(errors.Is(err, query.ErrInvalidSort), ShouldBeTrue)
		})

		Convey("Then the table itself is never reordered", func() {
			_, err := query.Search(tbl, query.Criteria{}, &query.SortSpec{Field: "name", Desc: true})
			So(err, ShouldBeNil)
			So(tbl.At(0).Name, ShouldEqual, "Peter Sagan")
		})
	})
}

func TestPage(t *testing.T) {
	Convey("Given five rows", t, func() {
		rows := peloton().Riders()[:5]

		So(names(query.Page(rows, 0, 2)), ShouldResemble, []string{"Peter Sagan", "Tadej Pogačar"})
		So(query.Page(rows, 4, 10), ShouldHaveLength, 1)
		So(query.Page(rows, 5, 10), ShouldBeEmpty)
		So(query.Page(rows, -3, 0), ShouldHaveLength, 5)
	})
}
