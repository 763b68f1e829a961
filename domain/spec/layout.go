package spec

// Lane layout constants. Each category occupies a fixed vertical lane;
// new nodes stack downward within their lane.
const (
	laneUserStory = 100
	laneFeature   = 400
	laneTechnical = 700
	laneDataModel = 1000
	laneNotes     = 1300

	laneBaseY      = 100
	laneOffsetY    = 400
	laneRowSpacing = 180
)

// LaneX returns the horizontal lane position for a category. Unknown
// categories share the feature lane.
func LaneX(c Category) float64 {
	switch c {
	case CategoryUserStory, CategoryTodo:
		return laneUserStory
	case CategoryFeature:
		return laneFeature
	case CategoryTechnical:
		return laneTechnical
	case CategoryDataModel:
		return laneDataModel
	case CategoryNotes:
		return laneNotes
	default:
		return laneFeature
	}
}

// laneBase returns the vertical starting position for a category. Todo
// and notes lanes start lower so they sit below the main rows.
func laneBase(c Category) float64 {
	if c == CategoryTodo || c == CategoryNotes {
		return laneOffsetY
	}
	return laneBaseY
}

// ComputePosition assigns a position for the next node of the given
// category, given how many nodes of that category already exist. Nodes
// stack downward within their lane at a fixed row spacing.
func ComputePosition(c Category, existing int) Position {
	return Position{
		X: LaneX(c),
		Y: laneBase(c) + float64(existing)*laneRowSpacing,
	}
}
