package marching

// caseTable lists, per configuration code, the polygon points in boundary
// order. The order fixes the winding: every fan triangle faces +Y.
//
// Saddle codes 5 and 10 emit a single six-point polygon covering both
// diagonal wedges, bridging them across the cell centre.
var caseTable = [16][]Role{
	0: nil,

	// one corner
	1: {CenterBottom, BottomLeft, CenterLeft},
	2: {CenterRight, BottomRight, CenterBottom},
	4: {CenterTop, TopRight, CenterRight},
	8: {TopLeft, CenterTop, CenterLeft},

	// two corners
	3:  {CenterRight, BottomRight, BottomLeft, CenterLeft},
	6:  {CenterTop, TopRight, BottomRight, CenterBottom},
	9:  {TopLeft, CenterTop, CenterBottom, BottomLeft},
	12: {TopLeft, TopRight, CenterRight, CenterLeft},
	5:  {CenterTop, TopRight, CenterRight, CenterBottom, BottomLeft, CenterLeft},
	10: {TopLeft, CenterTop, CenterRight, BottomRight, CenterBottom, CenterLeft},

	// three corners
	7:  {CenterTop, TopRight, BottomRight, BottomLeft, CenterLeft},
	11: {TopLeft, CenterTop, CenterRight, BottomRight, BottomLeft},
	13: {TopLeft, TopRight, CenterRight, CenterBottom, BottomLeft},
	14: {TopLeft, TopRight, BottomRight, CenterBottom, CenterLeft},

	// full
	15: {TopLeft, TopRight, BottomRight, BottomLeft},
}

// CaseRoles returns the polygon roles for a configuration code, or nil for
// code 0 and codes outside 0-15.
func CaseRoles(configuration int) []Role {
	if configuration < 0 || configuration >= len(caseTable) {
		return nil
	}
	return caseTable[configuration]
}
