package blueprint

import "github.com/keremk/tutopanda/internal/errkind"

// validate checks that every explicit dimension symbol used on an edge
// endpoint is actually a dimension of that endpoint's resolved node.
func (b *builder) validate(edges []Edge) error {
	for _, e := range edges {
		if err := b.validateEndpointSymbols(e.FromID); err != nil {
			return err
		}
		if err := b.validateEndpointSymbols(e.ToID); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) validateEndpointSymbols(id string) error {
	n, ok := b.nodeByID(id)
	if !ok {
		return errkind.New(errkind.UserInput, "edge endpoint %q does not resolve to a declared node", id)
	}
	for _, sym := range b.explicit[id] {
		if !containsString(n.Dimensions, sym) {
			return errkind.New(errkind.UserInput, "node %q referenced with unknown dimension symbol %q", id, sym)
		}
	}
	return nil
}
