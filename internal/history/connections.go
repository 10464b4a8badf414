package history

import "slices"

// generateConnections threads the open edges through rows.
//
// It returns, for every row, the connections active at that row, along with
// the connections still open after the last row and the next unused colour.
// starting is not modified.
func generateConnections(rows []*entry, starting []Connection, nextColor uint) ([][]Connection, []Connection, uint) {
	result := make([][]Connection, 0, len(rows))
	connections := slices.Clone(starting)

	for _, e := range rows {
		id := e.id()
		parents := e.commit.ParentIDs()
		incoming := slices.IndexFunc(connections, func(c Connection) bool {
			return c.ParentID == id
		})

		if len(parents) > 0 {
			conn := Connection{ParentID: parents[0], ChildID: id}
			insertAt := len(connections)
			if incoming >= 0 {
				conn.Color = connections[incoming].Color
				insertAt = incoming + 1
			} else {
				conn.Color = nextColor
				nextColor++
			}
			connections = slices.Insert(connections, insertAt, conn)
		}
		// Merge parents always start a new edge.
		if len(parents) > 1 {
			for _, parent := range parents[1:] {
				connections = append(connections, Connection{ParentID: parent, ChildID: id, Color: nextColor})
				nextColor++
			}
		}

		result = append(result, slices.Clone(connections))
		connections = slices.DeleteFunc(connections, func(c Connection) bool {
			return c.ParentID == id
		})
	}
	return result, connections, nextColor
}
