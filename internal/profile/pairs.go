package profile

import (
	"context"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/catprofile/internal/dataset"
)

// Pairs holds the contingency table and association of every ordered column
// pair, self-pairs included.
type Pairs struct {
	Columns []string
	Matrix  *AssociationMatrix
	tables  [][]*ContingencyTable
}

// Table returns the contingency table of Columns[i] against Columns[j].
func (p *Pairs) Table(i, j int) *ContingencyTable { return p.tables[i][j] }

// ComputePairs cross-tabulates every column pair on a pool of at most
// workers goroutines (NumCPU when workers <= 0). Each unordered pair is
// counted once; the mirrored pair is its transpose, so the matrix is
// symmetric exactly.
func ComputePairs(ctx context.Context, ds *dataset.Dataset, workers int) (*Pairs, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	n := len(ds.Columns)
	p := &Pairs{
		Columns: ds.Names(),
		Matrix:  NewAssociationMatrix(ds.Names()),
		tables:  make([][]*ContingencyTable, n),
	}
	for i := range p.tables {
		p.tables[i] = make([]*ContingencyTable, n)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				t := CrossTab(ds.Columns[i], ds.Columns[j])
				v, _ := CramersV(t)
				if i == j && !math.IsNaN(v) {
					v = 1
				}
				// each goroutine owns slots (i,j) and (j,i)
				p.tables[i][j] = t
				p.Matrix.Values[i][j] = v
				if i != j {
					p.tables[j][i] = t.Transpose()
					p.Matrix.Values[j][i] = v
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return p, nil
}

// Associations computes the association matrix of ds.
func Associations(ds *dataset.Dataset) *AssociationMatrix {
	p, err := ComputePairs(context.Background(), ds, 0)
	if err != nil {
		return NewAssociationMatrix(ds.Names())
	}
	return p.Matrix
}
