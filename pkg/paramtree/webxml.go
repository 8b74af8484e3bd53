// SPDX-License-Identifier: MPL-2.0

package paramtree

const (
	// BooterKey names the leaf identifying the web-framework adapter.
	BooterKey = "booter"
	// JNDIKey names the leaf listing JNDI data sources.
	JNDIKey = "jndi"

	// BooterRails selects the Rails adapter. It is also the fallback.
	BooterRails Booter = "rails"
	// BooterMerb selects the Merb adapter.
	BooterMerb Booter = "merb"
	// BooterRack selects the plain Rack adapter.
	BooterRack Booter = "rack"

	rackListener  = "org.jruby.rack.RackServletContextListener"
	merbListener  = "org.jruby.rack.merb.MerbServletContextListener"
	railsListener = "org.jruby.rack.rails.RailsServletContextListener"
)

// Booter tags which web-framework runtime adapter the descriptor configures.
type Booter string

// String returns the string representation of the Booter.
func (b Booter) String() string { return string(b) }

// Booter returns the booter leaf, or "" when it is unset.
func (t *Tree) Booter() Booter {
	return Booter(t.String(BooterKey))
}

// ServletContextListener returns the context listener class for the booter:
// rack and merb map to their adapters, everything else to Rails.
func (t *Tree) ServletContextListener() string {
	switch t.Booter() {
	case BooterRack:
		return rackListener
	case BooterMerb:
		return merbListener
	default:
		return railsListener
	}
}

// JNDI returns the configured JNDI data source names. A single string may
// list several names separated by commas.
func (t *Tree) JNDI() []string {
	n, err := t.Get(JNDIKey)
	if err != nil || !n.scalar || n.value == nil {
		return nil
	}
	return splitList(n.value)
}
