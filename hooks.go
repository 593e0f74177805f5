package tiercache

// Hooks are callbacks for pool events worth counting or alerting on.
// Implementations must be cheap and must not block; the pool calls them
// inline. Wrap a slow implementation with hooks/async.
type Hooks interface {
	// GetItem found a record with a value.
	ItemHit(key string)

	// GetItem found nothing, an expired entry, or a record without a value.
	ItemMiss(key string)

	// A stored record failed envelope validation and was deleted.
	CorruptRecord(key string, err error)

	// The codec could not encode or decode a value. op is "encode" or "decode".
	SerializationFailed(key, op string, err error)

	// The store reported false for a Save.
	SaveRejected(key string)

	// Commit finished with pending items still queued.
	CommitIncomplete(pending int)
}

// NopHooks is the default no-op.
type NopHooks struct{}

func (NopHooks) ItemHit(string)                            {}
func (NopHooks) ItemMiss(string)                           {}
func (NopHooks) CorruptRecord(string, error)               {}
func (NopHooks) SerializationFailed(string, string, error) {}
func (NopHooks) SaveRejected(string)                       {}
func (NopHooks) CommitIncomplete(int)                      {}
