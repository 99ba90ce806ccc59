package mergeinfo

// Inherit selects how mergeinfo is looked up relative to a node's
// ancestry.
type Inherit int

const (
	// InheritExplicit fetches only mergeinfo recorded on the node itself.
	InheritExplicit Inherit = iota
	// InheritInherited prefers explicit mergeinfo but walks to the
	// nearest ancestor carrying any when the node has none.
	InheritInherited
	// InheritNearestAncestor skips the node and considers only its
	// ancestors.
	InheritNearestAncestor
)
