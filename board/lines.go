package board

// ClearLines removes every complete row and inserts the same number of empty
// rows at the top. A row holding an indestructible cell is never cleared.
// It returns the number of cleared rows.
func (g *Grid) ClearLines() int {
	kept := make([][]Cell, 0, g.Rows)
	cleared := 0
	for _, row := range g.Cells {
		if isClearable(row) {
			cleared++
			continue
		}
		kept = append(kept, row)
	}
	if cleared == 0 {
		return 0
	}

	cells := make([][]Cell, 0, g.Rows)
	for range cleared {
		cells = append(cells, emptyRow(g.Cols))
	}
	g.Cells = append(cells, kept...)
	return cleared
}

func isClearable(row []Cell) bool {
	for _, c := range row {
		if !c.Filled || c.Indestructible {
			return false
		}
	}
	return true
}

// AddPenaltyLines appends n indestructible rows at the bottom. Normal rows
// are dropped from the top to keep the height at Rows; indestructible rows
// are never dropped, so fewer than n rows are added once the grid is made of
// penalty rows only. It returns the number of rows added and whether any
// dropped row held filled cells.
func (g *Grid) AddPenaltyLines(n int) (added int, overflow bool) {
	if n <= 0 {
		return 0, false
	}

	normal := make([][]Cell, 0, g.Rows)
	penalty := make([][]Cell, 0, g.Rows)
	for _, row := range g.Cells {
		if isIndestructible(row) {
			penalty = append(penalty, row)
		} else {
			normal = append(normal, row)
		}
	}

	added = min(n, len(normal))
	for _, row := range normal[:added] {
		if !isEmpty(row) {
			overflow = true
		}
	}

	cells := make([][]Cell, 0, g.Rows)
	cells = append(cells, normal[added:]...)
	cells = append(cells, penalty...)
	for range added {
		cells = append(cells, penaltyRow(g.Cols))
	}
	g.Cells = cells
	return added, overflow
}

func penaltyRow(cols int) []Cell {
	row := make([]Cell, cols)
	for i := range row {
		row[i] = Cell{Filled: true, Color: PenaltyColor, Indestructible: true}
	}
	return row
}
