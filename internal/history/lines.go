package history

type laneColor struct {
	lane  Lane
	color uint
}

// generateLines computes the Lines for the row of commit id from the
// connections active at that row. hasDot is false only when no connection
// touches the row (a commit with no parents and no children in range).
func generateLines(id CommitID, connections []Connection) (lines []Line, dot Dot, hasDot bool) {
	outlets := parentOutlets(id, connections)
	cached := make(map[CommitID]laneColor, len(connections))
	lines = make([]Line, 0, len(connections))
	var nextChild Lane

	for _, c := range connections {
		isParent := c.ParentID == id
		isChild := c.ChildID == id

		line := Line{ChildLane: NoLane, ParentLane: NoLane, Color: c.Color}
		if !isParent {
			line.ParentLane = outlets[c.ParentID]
		}
		if !isChild {
			line.ChildLane = nextChild
		}
		if !hasDot && (isParent || isChild) {
			dot = Dot{Lane: nextChild, Color: c.Color}
			hasDot = true
		}

		if prev, ok := cached[c.ParentID]; ok {
			// Two children converging on the same parent share a lane.
			if !isChild {
				line.ChildLane = prev.lane
				line.Color = prev.color
			} else if !isParent {
				nextChild++
			}
		} else {
			if !isChild {
				cached[c.ParentID] = laneColor{lane: nextChild, color: c.Color}
			}
			if !isParent {
				nextChild++
			}
		}
		lines = append(lines, line)
	}
	return lines, dot, hasDot
}

// parentOutlets maps each distinct parent below the row, other than the row
// itself, to its lane in first-seen order.
func parentOutlets(id CommitID, connections []Connection) map[CommitID]Lane {
	outlets := make(map[CommitID]Lane, len(connections))
	for _, c := range connections {
		if c.ParentID == id {
			continue
		}
		if _, ok := outlets[c.ParentID]; !ok {
			outlets[c.ParentID] = Lane(len(outlets))
		}
	}
	return outlets
}
