package spec

// Category classifies a specification node. It is fixed at creation and
// never changes for the lifetime of the node.
type Category string

const (
	CategoryUserStory Category = "userstory"
	CategoryFeature   Category = "feature"
	CategoryTechnical Category = "technical"
	CategoryDataModel Category = "datamodel"
	CategoryNotes     Category = "notes"
	CategoryTodo      Category = "todo"
)

// Categories lists every valid category in canonical left-to-right order.
func Categories() []Category {
	return []Category{
		CategoryUserStory,
		CategoryFeature,
		CategoryTechnical,
		CategoryDataModel,
		CategoryNotes,
		CategoryTodo,
	}
}

// IsValid reports whether c is one of the known categories.
func (c Category) IsValid() bool {
	switch c {
	case CategoryUserStory, CategoryFeature, CategoryTechnical,
		CategoryDataModel, CategoryNotes, CategoryTodo:
		return true
	}
	return false
}

// Glyph returns the monochrome symbol used when summarizing a node of this
// category in chat output.
func (c Category) Glyph() string {
	switch c {
	case CategoryFeature:
		return "◆"
	case CategoryTechnical:
		return "⚙"
	case CategoryDataModel:
		return "▣"
	case CategoryUserStory:
		return "◉"
	case CategoryTodo:
		return "✓"
	case CategoryNotes:
		return "📝"
	default:
		return "•"
	}
}

func (c Category) String() string {
	return string(c)
}
