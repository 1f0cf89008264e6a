package hdfs

// Readdir is a finite, materialized sequence of [Metadata] returned by
// [Client.ReadDir]. The native layer returns the whole listing at once, so
// there is nothing lazy here; the sequence can be walked with Next and
// rewound with Reset.
type Readdir struct {
	entries []Metadata
	next    int
}

func newReaddir(entries []Metadata) *Readdir {
	return &Readdir{entries: entries}
}

// Next returns the next entry. ok is false once the sequence is exhausted.
func (r *Readdir) Next() (m Metadata, ok bool) {
	if r.next >= len(r.entries) {
		return Metadata{}, false
	}
	m = r.entries[r.next]
	r.next++
	return m, true
}

// Len returns the total number of entries in the listing.
func (r *Readdir) Len() int {
	return len(r.entries)
}

// Remaining returns the number of entries Next has not yet returned.
func (r *Readdir) Remaining() int {
	return len(r.entries) - r.next
}

// Reset rewinds the sequence to the first entry.
func (r *Readdir) Reset() {
	r.next = 0
}
