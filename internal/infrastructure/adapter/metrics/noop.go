package metrics

// NoopRecorder discards all measurements
type NoopRecorder struct{}

func (NoopRecorder) RecordVote(string, string) {}
func (NoopRecorder) RecordVoteFailure(string, string) {}
func (NoopRecorder) RecordWalletTransaction(string, float64) {}
func (NoopRecorder) RecordWalletRejection(string, string) {}
func (NoopRecorder) RecordCacheInvalidation(string) {}
func (NoopRecorder) RecordNotification(string, string) {}
