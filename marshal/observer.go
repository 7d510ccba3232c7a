package marshal

// Node describes one tag as it is read.
type Node struct {
	// Path names the node from the root, e.g. [root consts [2]]. The slice
	// is reused by the decoder; copy it to keep it past the callback.
	Path   []string
	Offset int
	Depth  int
	Tag    Tag
}

// Observer receives decode events. Implementations must not retain Node.Path.
type Observer interface {
	ObserveHeader(h Header)
	ObserveNode(n Node)
	// ObserveCode fires once a code object and all its children are decoded.
	ObserveCode(n Node, c *Code)
}

// NopObserver discards every event.
type NopObserver struct{}

func (NopObserver) ObserveHeader(Header)    {}
func (NopObserver) ObserveNode(Node)        {}
func (NopObserver) ObserveCode(Node, *Code) {}

// MultiObserver fans events out in order.
type MultiObserver []Observer

func (m MultiObserver) ObserveHeader(h Header) {
	for _, o := range m {
		o.ObserveHeader(h)
	}
}

func (m MultiObserver) ObserveNode(n Node) {
	for _, o := range m {
		o.ObserveNode(n)
	}
}

func (m MultiObserver) ObserveCode(n Node, c *Code) {
	for _, o := range m {
		o.ObserveCode(n, c)
	}
}
