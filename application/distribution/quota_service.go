package distribution

import (
	"context"
	"fmt"

	"gdrive-share/domain/distribution"

	"github.com/dustin/go-humanize"
)

// QuotaService reports on Google Drive storage
type QuotaService struct {
	driveClient distribution.DriveClient
}

// NewQuotaService creates a new quota service
func NewQuotaService(client distribution.DriveClient) *QuotaService {
	return &QuotaService{driveClient: client}
}

// Report reads both quota fields
func (s *QuotaService) Report(ctx context.Context) (distribution.QuotaInfo, error) {
	used, err := s.driveClient.GetQuotaUsed(ctx)
	if err != nil {
		return distribution.QuotaInfo{UsedBytes: distribution.QuotaUnknown, TotalBytes: distribution.QuotaUnknown},
			fmt.Errorf("failed to check storage: %w", err)
	}

	total, err := s.driveClient.GetQuotaTotal(ctx)
	if err != nil {
		return distribution.QuotaInfo{UsedBytes: used, TotalBytes: distribution.QuotaUnknown},
			fmt.Errorf("failed to check storage: %w", err)
	}

	return distribution.QuotaInfo{UsedBytes: used, TotalBytes: total}, nil
}

// CheckSpaceFor returns ErrInsufficientSpace when the known quota cannot hold
// bytes more. An unreported limit passes.
func (s *QuotaService) CheckSpaceFor(ctx context.Context, bytes int64) error {
	info, err := s.Report(ctx)
	if err != nil {
		return err
	}
	if !info.HasSpaceFor(bytes) {
		return fmt.Errorf("%w: need %s but only %s available",
			distribution.ErrInsufficientSpace, humanize.IBytes(uint64(bytes)), humanize.IBytes(uint64(info.AvailableBytes())))
	}
	return nil
}
