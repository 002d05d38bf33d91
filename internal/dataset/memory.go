package dataset

// Byte costs used to approximate a column's in-memory footprint.
const (
	columnOverhead = 128
	scalarSize     = 8
	stringHeader   = 16
)

// MemoryUsage estimates the bytes a column occupies: element storage plus a
// fixed per-column overhead. Ordered columns store small integer codes and
// their level strings once.
func MemoryUsage(c *Column) int64 {
	if c == nil {
		return 0
	}
	total := int64(columnOverhead)
	switch c.Kind {
	case KindInt, KindFloat:
		total += int64(scalarSize * len(c.Cells))
	case KindOrdered:
		total += int64(codeWidth(len(c.Levels)) * len(c.Cells))
		for _, l := range c.Levels {
			total += int64(stringHeader + len(l))
		}
	default:
		for _, cell := range c.Cells {
			if cell.Missing {
				total += scalarSize
				continue
			}
			total += int64(stringHeader + len(cell.Value))
		}
	}
	return total
}

// MemoryUsage sums the footprint of all columns.
func (d *Dataset) MemoryUsage() int64 {
	var total int64
	for _, c := range d.Columns {
		total += MemoryUsage(c)
	}
	return total
}

func codeWidth(levels int) int {
	switch {
	case levels < 1<<7:
		return 1
	case levels < 1<<15:
		return 2
	default:
		return 4
	}
}
