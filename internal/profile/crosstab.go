package profile

import "github.com/KaramelBytes/catprofile/internal/dataset"

// CrossTabEntry is one non-zero cell of a contingency table.
type CrossTabEntry struct {
	Row   string `json:"row" yaml:"row"`
	Col   string `json:"col" yaml:"col"`
	Count int    `json:"count" yaml:"count"`
}

// ContingencyTable holds the joint counts of two columns. Counts are stored
// sparsely; Dense and Entries are both derived from the same cells.
type ContingencyTable struct {
	RowName, ColName string
	rows, cols       []dataset.Cell
	counts           map[[2]int]int
	rowSums, colSums []int
	total            int
}

// CrossTab counts how often each category of a co-occurs with each category
// of b. Categories follow natural order with the missing marker last.
func CrossTab(a, b *dataset.Column) *ContingencyTable {
	t := &ContingencyTable{
		RowName: a.Name,
		ColName: b.Name,
		rows:    dataset.Categories(a),
		cols:    dataset.Categories(b),
		counts:  make(map[[2]int]int),
	}
	rowIdx := indexCells(t.rows)
	colIdx := indexCells(t.cols)
	t.rowSums = make([]int, len(t.rows))
	t.colSums = make([]int, len(t.cols))
	n := a.Len()
	if b.Len() < n {
		n = b.Len()
	}
	for i := 0; i < n; i++ {
		r := rowIdx[a.Cells[i].Key()]
		c := colIdx[b.Cells[i].Key()]
		t.counts[[2]int{r, c}]++
		t.rowSums[r]++
		t.colSums[c]++
		t.total++
	}
	return t
}

func indexCells(cells []dataset.Cell) map[string]int {
	idx := make(map[string]int, len(cells))
	for i, c := range cells {
		idx[c.Key()] = i
	}
	return idx
}

// Shape returns the number of row and column categories.
func (t *ContingencyTable) Shape() (r, k int) { return len(t.rows), len(t.cols) }

// Total is the number of observations.
func (t *ContingencyTable) Total() int { return t.total }

// Count returns the joint count of row category i and column category j.
func (t *ContingencyTable) Count(i, j int) int { return t.counts[[2]int{i, j}] }

// RowLabels returns the display labels of the row categories.
func (t *ContingencyTable) RowLabels() []string { return labelsOf(t.rows) }

// ColLabels returns the display labels of the column categories.
func (t *ContingencyTable) ColLabels() []string { return labelsOf(t.cols) }

func labelsOf(cells []dataset.Cell) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.String()
	}
	return out
}

// Dense returns the full grid with explicit zeros, rows by columns.
func (t *ContingencyTable) Dense() [][]int {
	grid := make([][]int, len(t.rows))
	for i := range grid {
		grid[i] = make([]int, len(t.cols))
	}
	for k, v := range t.counts {
		grid[k[0]][k[1]] = v
	}
	return grid
}

// Entries lists the non-zero cells in row-major order.
func (t *ContingencyTable) Entries() []CrossTabEntry {
	out := make([]CrossTabEntry, 0, len(t.counts))
	for i, r := range t.rows {
		for j, c := range t.cols {
			if v := t.counts[[2]int{i, j}]; v > 0 {
				out = append(out, CrossTabEntry{Row: r.String(), Col: c.String(), Count: v})
			}
		}
	}
	return out
}

// Transpose swaps the roles of the two columns.
func (t *ContingencyTable) Transpose() *ContingencyTable {
	out := &ContingencyTable{
		RowName: t.ColName,
		ColName: t.RowName,
		rows:    t.cols,
		cols:    t.rows,
		counts:  make(map[[2]int]int, len(t.counts)),
		rowSums: t.colSums,
		colSums: t.rowSums,
		total:   t.total,
	}
	for k, v := range t.counts {
		out.counts[[2]int{k[1], k[0]}] = v
	}
	return out
}
