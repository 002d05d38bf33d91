package profile

import (
	"math"
	"reflect"
	"strconv"
	"testing"

	"github.com/KaramelBytes/catprofile/internal/dataset"
)

// col builds a string column; "" is a missing cell.
func col(name string, vals ...string) *dataset.Column {
	c := &dataset.Column{Name: name, Kind: dataset.KindString, Cells: make([]dataset.Cell, len(vals))}
	for i, v := range vals {
		if v == "" {
			c.Cells[i] = dataset.MissingCell()
		} else {
			c.Cells[i] = dataset.ValueCell(v)
		}
	}
	return c
}

func colorSize() *dataset.Dataset {
	ds := dataset.New("shirts")
	ds.AddColumn(col("color", "red", "blue", "red", ""))
	ds.AddColumn(col("size", "S", "M", "S", "S"))
	return ds
}

func TestNormalizeMissing(t *testing.T) {
	ds := dataset.New("t")
	ds.AddColumn(col("a", "NA", "x", "Null", "n/a", "NaN"))
	ds.AddColumn(col("b", "y", "UNKNOWN", "None", "-", "undefined"))
	ordered := col("c", "low", "missing", "high", "low", "high")
	ordered.Kind = dataset.KindOrdered
	ordered.Levels = []string{"low", "missing", "high"}
	ds.AddColumn(ordered)

	n := NormalizeMissing(ds, []string{"unknown", " - "})
	if n != 9 {
		t.Fatalf("replaced = %d, want 9", n)
	}
	if got := ds.Column("a").MissingCount(); got != 4 {
		t.Fatalf("a missing = %d, want 4", got)
	}
	if v := ds.Column("a").Cells[1]; v.Missing || v.Value != "x" {
		t.Fatalf("non-token value changed: %+v", v)
	}
	if got := ds.Column("b").MissingCount(); got != 4 {
		t.Fatalf("b missing = %d, want 4", got)
	}
	if !reflect.DeepEqual(ordered.Levels, []string{"low", "high"}) {
		t.Fatalf("levels = %v", ordered.Levels)
	}

	before := ds.MissingCount()
	if again := NormalizeMissing(ds, []string{"unknown", "-"}); again != 0 || ds.MissingCount() != before {
		t.Fatalf("second pass replaced %d cells", again)
	}
}

func TestFilterColumns(t *testing.T) {
	wide := make([]string, 21)
	for i := range wide {
		wide[i] = "v" + strconv.Itoa(i)
	}
	pad := func(vals ...string) []string {
		out := make([]string, 21)
		copy(out, vals)
		for i := len(vals); i < 21; i++ {
			out[i] = vals[i%len(vals)]
		}
		return out
	}
	compound := col("tags", pad(`["a"]`, `["b"]`)...)
	compound.Kind = dataset.KindCompound

	ds := dataset.New("t")
	ds.AddColumn(col("wide", wide...))
	ds.AddColumn(col("ok", pad("a", "b", "")...))
	ds.AddColumn(col("empty", make([]string, 21)...))
	ds.AddColumn(compound)

	kept, rejected := FilterColumns(ds, 20)
	if got := kept.Names(); !reflect.DeepEqual(got, []string{"ok"}) {
		t.Fatalf("kept = %v", got)
	}
	if len(rejected) != 3 {
		t.Fatalf("rejections = %d, want 3", len(rejected))
	}
	want := []struct {
		column string
		reason Reason
	}{
		{"wide", ReasonTooManyCategories},
		{"empty", ReasonEmpty},
		{"tags", ReasonUnsupportedType},
	}
	for i, w := range want {
		r := rejected[i]
		if r.Column != w.column || !r.Has(w.reason) || len(r.Reasons) != 1 {
			t.Errorf("rejection %d = %+v, want %s/%s", i, r, w.column, w.reason)
		}
		if r.Message == "" {
			t.Errorf("rejection %d has no message", i)
		}
	}
	if rejected[0].Categories != 21 || rejected[0].Limit != 20 {
		t.Fatalf("wide rejection = %+v", rejected[0])
	}
	if len(kept.Columns)+len(rejected) != len(ds.Columns) {
		t.Fatalf("every column must be kept or rejected exactly once")
	}
}

func TestFilterColumnsMultipleReasons(t *testing.T) {
	vals := make([]string, 5)
	for i := range vals {
		vals[i] = "[" + strconv.Itoa(i) + "]"
	}
	c := col("lists", vals...)
	c.Kind = dataset.KindCompound
	ds := dataset.New("t")
	ds.AddColumn(c)
	_, rejected := FilterColumns(ds, 3)
	if len(rejected) != 1 {
		t.Fatalf("rejections = %d, want 1", len(rejected))
	}
	r := rejected[0]
	if !r.Has(ReasonTooManyCategories) || !r.Has(ReasonUnsupportedType) {
		t.Fatalf("reasons = %v", r.Reasons)
	}
}

func TestFilterColumnsZeroRows(t *testing.T) {
	ds := dataset.New("t")
	ds.AddColumn(col("a"))
	kept, rejected := FilterColumns(ds, 0)
	if len(kept.Columns) != 0 || len(rejected) != 1 || !rejected[0].Has(ReasonEmpty) {
		t.Fatalf("zero-row column should be rejected as empty: %+v", rejected)
	}
}

func TestDropOverLimitIsSilentAndIgnoresMissing(t *testing.T) {
	ds := dataset.New("t")
	ds.AddColumn(col("three", "a", "b", "", "c"))
	ds.AddColumn(col("four", "a", "b", "c", "d"))
	ds.AddColumn(col("empty", "", "", "", ""))
	kept := DropOverLimit(ds, 3)
	if got := kept.Names(); !reflect.DeepEqual(got, []string{"three", "empty"}) {
		t.Fatalf("kept = %v", got)
	}
}

func TestProfileColumnExample(t *testing.T) {
	ds := colorSize()
	color := ProfileColumn(ds.Column("color"))
	want := []CategoryCount{
		{Category: "red", Count: 2, Percent: 50, Width: 100},
		{Category: "blue", Count: 1, Percent: 25, Width: 50},
		{Category: "NA", Count: 1, Percent: 25, Width: 50, Missing: true},
	}
	if !reflect.DeepEqual(color.Categories, want) {
		t.Fatalf("color = %+v", color.Categories)
	}
	if color.Missing != 1 || color.Rows != 4 || color.Ordered {
		t.Fatalf("color profile = %+v", color)
	}
	if color.MostFrequent.Category != "red" || color.LeastFrequent.Category != "blue" {
		t.Fatalf("most/least = %v/%v", color.MostFrequent, color.LeastFrequent)
	}

	size := ProfileColumn(ds.Column("size"))
	if len(size.Categories) != 2 || size.Categories[0] != (CategoryCount{Category: "S", Count: 3, Percent: 75, Width: 100}) ||
		size.Categories[1].Category != "M" || size.Categories[1].Percent != 25 {
		t.Fatalf("size = %+v", size.Categories)
	}
}

func TestProfileColumnStableTiesAndTotals(t *testing.T) {
	c := col("x", "b", "a", "c", "a", "b", "c", "", "d")
	p := ProfileColumn(c)
	var order []string
	sum, pct := 0, 0.0
	for _, cc := range p.Categories {
		order = append(order, cc.Category)
		sum += cc.Count
		pct += cc.Percent
	}
	if !reflect.DeepEqual(order, []string{"b", "a", "c", "NA", "d"}) {
		t.Fatalf("order = %v", order)
	}
	if sum != c.Len() {
		t.Fatalf("counts sum = %d, want %d", sum, c.Len())
	}
	if math.Abs(pct-100) > 0.05 {
		t.Fatalf("percent sum = %v", pct)
	}
	if p.LeastFrequent.Category != "d" {
		t.Fatalf("least = %v", p.LeastFrequent)
	}
}

func TestProfileColumnEmpty(t *testing.T) {
	p := ProfileColumn(col("none"))
	if len(p.Categories) != 0 || p.MostFrequent != nil || p.Rows != 0 {
		t.Fatalf("empty profile = %+v", p)
	}
}

func TestSummarizeMemoryUnits(t *testing.T) {
	cases := []struct {
		total int64
		unit  string
	}{
		{2999, "Bytes"},
		{3000, "KB"},
		{2_900_000_000, "MB"},
		{3_000_000_000, "GB"},
		{3_000_000_000_000, "TB"},
	}
	for _, c := range cases {
		s := SummarizeMemory([]ColumnSize{{Name: "a", Bytes: c.total / 2}, {Name: "b", Bytes: c.total - c.total/2}})
		if s.Unit != c.unit {
			t.Errorf("total %d: unit = %s, want %s", c.total, s.Unit, c.unit)
		}
		if s.Total != c.total || s.Names[0] != "a" || s.Names[1] != "b" {
			t.Errorf("total %d: series = %+v", c.total, s)
		}
	}
	s := SummarizeMemory([]ColumnSize{{Name: "a", Bytes: 1_500_000_000}, {Name: "b", Bytes: 1_500_000_000}})
	if s.Values[0] != 1.5 {
		t.Fatalf("scaled = %v, want 1.5", s.Values[0])
	}
}

func TestHumanBytes(t *testing.T) {
	cases := map[int64]string{
		0:       "0.00 B",
		1024:    "1024.00 B",
		1536:    "1.50 KB",
		1 << 20: "1024.00 KB",
		3 << 30: "3.00 GB",
	}
	for in, want := range cases {
		if got := HumanBytes(in); got != want {
			t.Errorf("HumanBytes(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestCrossTabDenseAndEntries(t *testing.T) {
	ds := colorSize()
	tab := CrossTab(ds.Column("color"), ds.Column("size"))
	if r, k := tab.Shape(); r != 3 || k != 2 {
		t.Fatalf("shape = %d,%d", r, k)
	}
	if !reflect.DeepEqual(tab.RowLabels(), []string{"blue", "red", "NA"}) || !reflect.DeepEqual(tab.ColLabels(), []string{"M", "S"}) {
		t.Fatalf("labels = %v x %v", tab.RowLabels(), tab.ColLabels())
	}
	wantDense := [][]int{{1, 0}, {0, 2}, {0, 1}}
	if !reflect.DeepEqual(tab.Dense(), wantDense) {
		t.Fatalf("dense = %v", tab.Dense())
	}
	wantEntries := []CrossTabEntry{{"blue", "M", 1}, {"red", "S", 2}, {"NA", "S", 1}}
	if !reflect.DeepEqual(tab.Entries(), wantEntries) {
		t.Fatalf("entries = %v", tab.Entries())
	}
	if tab.Total() != 4 {
		t.Fatalf("total = %d", tab.Total())
	}
	tr := tab.Transpose()
	if tr.Count(1, 1) != 2 || tr.RowName != "size" || !reflect.DeepEqual(tr.ColLabels(), tab.RowLabels()) {
		t.Fatalf("transpose mismatch: %v", tr.Dense())
	}
}

func TestCramersVExample(t *testing.T) {
	ds := colorSize()
	v, err := CramersV(CrossTab(ds.Column("color"), ds.Column("size")))
	if err != nil {
		t.Fatalf("cramers: %v", err)
	}
	if math.Abs(v-math.Sqrt(0.5)) > 1e-9 {
		t.Fatalf("assoc(color,size) = %v, want %v", v, math.Sqrt(0.5))
	}
	for _, name := range []string{"color", "size"} {
		c := ds.Column(name)
		self, err := CramersV(CrossTab(c, c))
		if err != nil || self != 1 {
			t.Fatalf("assoc(%s,%s) = %v, %v", name, name, self, err)
		}
	}
}

func TestCramersVSelfIsExactlyOne(t *testing.T) {
	labels := "abcdefghijklmnopqrst"
	for r := 2; r <= len(labels); r++ {
		for n := r + 1; n <= 200; n += 7 {
			vals := make([]string, n)
			for i := range vals {
				vals[i] = labels[i%r : i%r+1]
			}
			c := col("c", vals...)
			v, err := CramersV(CrossTab(c, c))
			if err != nil || v != 1 {
				t.Fatalf("r=%d n=%d: self association = %.17g, %v", r, n, v, err)
			}
		}
	}
}

func TestCramersVNeverExceedsOne(t *testing.T) {
	labels := "abcdefgh"
	for r := 2; r <= len(labels); r++ {
		for n := 2 * r; n <= 120; n += 3 {
			a := make([]string, n)
			b := make([]string, n)
			for i := range a {
				a[i] = labels[i%r : i%r+1]
				// b follows a except for every fifth row
				j := i % r
				if i%5 == 4 {
					j = (j + 1) % r
				}
				b[i] = labels[j : j+1]
			}
			v, err := CramersV(CrossTab(col("a", a...), col("b", b...)))
			if err == nil && (v < 0 || v > 1) {
				t.Fatalf("r=%d n=%d: v = %.17g out of [0,1]", r, n, v)
			}
		}
	}
}

func TestCramersVDegenerate(t *testing.T) {
	a := col("a", "x", "x", "x")
	b := col("b", "p", "q", "p")
	v, err := CramersV(CrossTab(a, b))
	if !math.IsNaN(v) || err != ErrUndefinedAssociation {
		t.Fatalf("single-category table: v=%v err=%v", v, err)
	}
	one := col("one", "x")
	if v, _ := CramersV(CrossTab(one, one)); !math.IsNaN(v) {
		t.Fatalf("n=1 should be undefined, got %v", v)
	}
}

func TestAssociationsSymmetric(t *testing.T) {
	ds := dataset.New("t")
	ds.AddColumn(col("a", "x", "y", "x", "z", "y", "x", "z", "z"))
	ds.AddColumn(col("b", "p", "q", "p", "p", "q", "q", "p", ""))
	ds.AddColumn(col("c", "1", "2", "1", "3", "2", "1", "3", "3"))
	m := Associations(ds)
	for i := range m.Columns {
		for j := range m.Columns {
			vij, vji := m.Values[i][j], m.Values[j][i]
			if math.IsNaN(vij) != math.IsNaN(vji) || (!math.IsNaN(vij) && math.Abs(vij-vji) > 1e-12) {
				t.Fatalf("asymmetric at %d,%d: %v vs %v", i, j, vij, vji)
			}
			if !math.IsNaN(vij) && (vij < 0 || vij > 1) {
				t.Fatalf("out of range at %d,%d: %v", i, j, vij)
			}
		}
		if v := m.Values[i][i]; v != 1 {
			t.Fatalf("self association of %s = %v", m.Columns[i], v)
		}
	}
	if v, ok := m.Get("a", "c"); !ok || v != 1 {
		t.Fatalf("a and c are the same partition, got %v", v)
	}
}
