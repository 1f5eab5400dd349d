package alertadapter

import (
	"revaer/internal/domain"
	"revaer/internal/domain/ports"
)

// MapState is the authoritative native-status -> domain.State mapping from
// spec §4.1: checking_* -> Queued, downloading_metadata -> FetchingMetadata,
// downloading -> Downloading, finished -> Completed, seeding -> Seeding,
// else -> Stopped.
func MapState(status ports.NativeStatus) domain.State {
	switch status {
	case ports.NativeCheckingResumeData, ports.NativeCheckingFiles:
		return domain.Queued
	case ports.NativeDownloadingMetadata:
		return domain.FetchingMetadata
	case ports.NativeDownloading:
		return domain.Downloading
	case ports.NativeFinished:
		return domain.Completed
	case ports.NativeSeeding:
		return domain.Seeding
	default:
		return domain.Stopped
	}
}
