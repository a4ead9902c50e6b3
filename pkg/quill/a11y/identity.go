package a11y

// Identity addresses one accessible object within a session.
//
// Sender is the bus connection identity of the application exposing the
// object; Path is the object path within that application. The pair is
// globally unique for the lifetime of the session.
type Identity struct {
	Sender string
	Path   string
}

// NewIdentity creates an Identity from a sender and object path.
func NewIdentity(sender, path string) Identity {
	return Identity{Sender: sender, Path: path}
}

// IsZero reports whether the identity is unset.
func (id Identity) IsZero() bool {
	return id.Sender == "" && id.Path == ""
}

// String returns the identity in "sender:path" form.
func (id Identity) String() string {
	return id.Sender + ":" + id.Path
}

// Less imposes a total order on identities. Cache operations that lock
// two items at once acquire the locks in this order to prevent deadlock.
func (id Identity) Less(other Identity) bool {
	if id.Sender != other.Sender {
		return id.Sender < other.Sender
	}
	return id.Path < other.Path
}

// App returns the identity of the application root object for this
// identity's connection.
func (id Identity) App() Identity {
	return Identity{Sender: id.Sender, Path: RootPath}
}

// RootPath is the conventional object path of an application's root
// accessible.
const RootPath = "/org/a11y/atspi/accessible/root"
