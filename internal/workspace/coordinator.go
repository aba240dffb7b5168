package workspace

// Resetter is a session store the coordinator wipes
type Resetter interface {
	Reset()
}

// Disconnector is a connection the coordinator closes
type Disconnector interface {
	Disconnect()
}

// Coordinator fans a reset out to every session of a workspace.
// It runs on login, logout and project switch so no generation state outlives its user or project.
type Coordinator struct {
	stores []Resetter
	conns  []Disconnector
}

func NewCoordinator(stores []Resetter, conns []Disconnector) *Coordinator {
	return &Coordinator{
		stores: stores,
		conns:  conns,
	}
}

// ResetAll resets every store once, then disconnects every connection once
func (c *Coordinator) ResetAll() {
	for _, s := range c.stores {
		s.Reset()
	}
	for _, conn := range c.conns {
		conn.Disconnect()
	}
}
