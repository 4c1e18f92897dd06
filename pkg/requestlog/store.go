package requestlog

// Logger records entries. The host accepts this interface so it can log into
// any sink.
type Logger interface {
	Log(entry *Entry)
}

// Store is a queryable request history.
type Store interface {
	Logger

	// Get retrieves an entry by ID, or nil.
	Get(id string) *Entry

	// List returns entries newest first, optionally filtered.
	List(filter *Filter) []*Entry

	// Clear removes all entries.
	Clear()

	// Count returns the number of stored entries.
	Count() int
}

// Filter defines criteria for listing entries. Zero fields match anything.
type Filter struct {
	Method string

	// Path filters by path prefix.
	Path string

	StatusCode int

	// HasError filters by error presence.
	HasError *bool

	// Limit is the maximum number of entries to return.
	Limit int

	// Offset is the number of entries to skip.
	Offset int
}

// Subscriber is a channel that receives new entries.
type Subscriber chan *Entry

// SubscribableStore extends Store with subscription support.
type SubscribableStore interface {
	Store

	// Subscribe registers a subscriber. The returned function unsubscribes
	// and closes the channel.
	Subscribe() (Subscriber, func())
}
