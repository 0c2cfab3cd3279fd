package physics

import "math"

// SpatialGrid is a uniform grid for broad-phase queries over a bounded square area.
// Objects are inserted by position and index; positions outside the area are clamped
// to the border cells so they are still found by queries near the border.
//
// Queries walk every cell touched by the query's bounding box, so the cell size only
// affects performance, never correctness.
type SpatialGrid struct {
	minX, minY  float64
	cellSize    float64
	invCellSize float64 // 1 / cellSize (precomputed to avoid division)
	cols        int
	rows        int
	cells       []gridCell
}

// gridCell stores the indices of objects that fall within a grid cell.
// The slice is reused between ticks (reset to [:0]) to avoid allocations.
type gridCell struct {
	items []int
}

// NewSpatialGrid creates a grid covering the square [-extent, extent]².
func NewSpatialGrid(extent, cellSize float64) *SpatialGrid {
	size := int(math.Ceil(2 * extent / cellSize))
	if size < 1 {
		size = 1
	}

	return &SpatialGrid{
		minX:        -extent,
		minY:        -extent,
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cols:        size,
		rows:        size,
		cells:       make([]gridCell, size*size),
	}
}

// Clear removes all items from the grid without deallocating cell memory.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i].items = g.cells[i].items[:0]
	}
}

// Insert adds an item (identified by index) at the given position.
func (g *SpatialGrid) Insert(x, y float64, index int) {
	col, row := g.posToCell(x, y)
	idx := row*g.cols + col
	g.cells[idx].items = append(g.cells[idx].items, index)
}

// QueryRadius calls fn for each item index stored in a cell overlapping the bounding box
// of the circle (x, y, radius). Candidates still need an exact test.
// If fn returns true, iteration stops early (useful for "find first" queries).
func (g *SpatialGrid) QueryRadius(x, y, radius float64, fn func(index int) bool) {
	minCol, minRow := g.posToCell(x-radius, y-radius)
	maxCol, maxRow := g.posToCell(x+radius, y+radius)

	for row := minRow; row <= maxRow; row++ {
		rowOffset := row * g.cols
		for col := minCol; col <= maxCol; col++ {
			for _, itemIdx := range g.cells[rowOffset+col].items {
				if fn(itemIdx) {
					return
				}
			}
		}
	}
}

// posToCell converts coordinates to grid cell coordinates, clamping to the grid.
func (g *SpatialGrid) posToCell(x, y float64) (col, row int) {
	col = int(math.Floor((x - g.minX) * g.invCellSize))
	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}

	row = int(math.Floor((y - g.minY) * g.invCellSize))
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}

	return col, row
}
