// Package reconcile diffs a stream of remote events against the local
// calendar containers of one account.
//
// A pass builds one Registry. The registry owns a Partition per category;
// each partition loads the remote ID → local ID index of its container split
// at the pass start time into past and future records, buffers accepted
// events, flushes them in batches as creates or updates, and on Finalize
// removes the records the feed no longer lists. Past records are kept, except
// in the recurring category where every record is nominally in the past and
// absence from the feed is the removal signal.
//
// Processing is serial. A Registry and its partitions belong to one pass and
// must not be shared between goroutines.
package reconcile
