package dataset

import (
	"errors"
	"testing"
)

func TestFromRecordsMissingAndCompound(t *testing.T) {
	ds := FromRecords("shop", []string{"color", "tags", ""}, [][]string{
		{"red", `["a","b"]`, "x"},
		{"", `{"k":1}`},
		{"blue", "", "y"},
	})
	if got := ds.Rows(); got != 3 {
		t.Fatalf("rows = %d, want 3", got)
	}
	color := ds.Column("color")
	if color == nil || !color.Cells[1].Missing {
		t.Fatalf("empty string should be missing: %#v", color)
	}
	if tags := ds.Column("tags"); tags.Kind != KindCompound {
		t.Fatalf("tags kind = %s, want compound", tags.Kind)
	}
	unnamed := ds.Columns[2]
	if unnamed.Name != "column_3" {
		t.Fatalf("unnamed column = %q", unnamed.Name)
	}
	if !unnamed.Cells[1].Missing {
		t.Fatalf("short row should pad with missing")
	}
	if got := ds.MissingCount(); got != 3 {
		t.Fatalf("missing = %d, want 3", got)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		ds   *Dataset
		ok   bool
	}{
		{"nil", nil, false},
		{"empty", New("e"), true},
		{"ragged", &Dataset{Columns: []*Column{
			{Name: "a", Cells: []Cell{ValueCell("1")}},
			{Name: "b", Cells: []Cell{ValueCell("1"), ValueCell("2")}},
		}}, false},
		{"duplicate", &Dataset{Columns: []*Column{{Name: "a"}, {Name: "a"}}}, false},
		{"unnamed", &Dataset{Columns: []*Column{{Name: " "}}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.ds.Validate()
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok {
				var ite *InputTypeError
				if !errors.As(err, &ite) {
					t.Fatalf("want InputTypeError, got %v", err)
				}
			}
		})
	}
}

func TestCategoriesNaturalOrder(t *testing.T) {
	num := &Column{Name: "n", Kind: KindInt, Cells: []Cell{ValueCell("10"), ValueCell("2"), MissingCell(), ValueCell("2")}}
	got := labels(Categories(num))
	want := []string{"2", "10", MissingLabel}
	if !equal(got, want) {
		t.Fatalf("numeric order = %v, want %v", got, want)
	}

	ord := &Column{Name: "size", Kind: KindOrdered, Levels: []string{"S", "M", "L"},
		Cells: []Cell{ValueCell("L"), ValueCell("S"), ValueCell("XL")}}
	got = labels(Categories(ord))
	want = []string{"S", "L", "XL"}
	if !equal(got, want) {
		t.Fatalf("level order = %v, want %v", got, want)
	}

	str := &Column{Name: "s", Cells: []Cell{ValueCell("b"), ValueCell("a")}}
	if got := labels(Categories(str)); !equal(got, []string{"a", "b"}) {
		t.Fatalf("lexical order = %v", got)
	}
}

func TestMemoryUsage(t *testing.T) {
	s := &Column{Kind: KindString, Cells: []Cell{ValueCell("abcd"), MissingCell()}}
	if got, want := MemoryUsage(s), int64(columnOverhead+stringHeader+4+scalarSize); got != want {
		t.Fatalf("string usage = %d, want %d", got, want)
	}
	i := &Column{Kind: KindInt, Cells: []Cell{ValueCell("1"), ValueCell("2")}}
	if got, want := MemoryUsage(i), int64(columnOverhead+2*scalarSize); got != want {
		t.Fatalf("int usage = %d, want %d", got, want)
	}
	o := &Column{Kind: KindOrdered, Levels: []string{"lo", "hi"}, Cells: []Cell{ValueCell("lo"), ValueCell("hi"), ValueCell("lo")}}
	if got, want := MemoryUsage(o), int64(columnOverhead+3+2*stringHeader+4); got != want {
		t.Fatalf("ordered usage = %d, want %d", got, want)
	}
	ds := &Dataset{Columns: []*Column{s, i}}
	if ds.MemoryUsage() != MemoryUsage(s)+MemoryUsage(i) {
		t.Fatalf("dataset usage should sum columns")
	}
}

func labels(cells []Cell) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.String()
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
