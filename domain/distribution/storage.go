package distribution

// QuotaUnknown is returned for a quota field the backend did not report.
// It is distinct from a reported value of 0.
const QuotaUnknown int64 = -1

// QuotaInfo represents Google Drive storage quota information
type QuotaInfo struct {
	UsedBytes  int64
	TotalBytes int64
}

// UsedKnown reports whether the backend returned a usage value
func (q QuotaInfo) UsedKnown() bool {
	return q.UsedBytes != QuotaUnknown
}

// TotalKnown reports whether the backend returned a limit value
func (q QuotaInfo) TotalKnown() bool {
	return q.TotalBytes != QuotaUnknown
}

// AvailableBytes returns the remaining space, or QuotaUnknown if either
// side of the calculation was not reported
func (q QuotaInfo) AvailableBytes() int64 {
	if !q.UsedKnown() || !q.TotalKnown() {
		return QuotaUnknown
	}
	if q.UsedBytes > q.TotalBytes {
		return 0
	}
	return q.TotalBytes - q.UsedBytes
}

// HasSpaceFor returns true if there's enough space for the given bytes.
// An unknown quota is treated as having space.
func (q QuotaInfo) HasSpaceFor(bytes int64) bool {
	available := q.AvailableBytes()
	if available == QuotaUnknown {
		return true
	}
	return available >= bytes
}
