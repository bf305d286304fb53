package core

// MetricsRecorder collects ledger level counters
type MetricsRecorder interface {
	// RecordVote counts a committed vote mutation ("create", "flip", "delete" or "none")
	RecordVote(targetType, action string)
	// RecordVoteFailure counts a vote request that did not commit
	RecordVoteFailure(targetType, reason string)
	// RecordWalletTransaction counts a committed ledger entry and its amount
	RecordWalletTransaction(paymentType string, amount float64)
	// RecordWalletRejection counts a ledger entry that was not written
	RecordWalletRejection(paymentType, reason string)
	// RecordCacheInvalidation counts tag invalidations by result
	RecordCacheInvalidation(result string)
	// RecordNotification counts notification attempts by kind and result
	RecordNotification(kind, result string)
}
