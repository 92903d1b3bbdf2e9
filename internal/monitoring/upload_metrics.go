package monitoring

import (
	"time"
)

// RecordMediaUpload tracks one image-upload attempt against the media store.
func (s *Service) RecordMediaUpload(bytes int64, duration time.Duration, success bool) {
	s.uploadsTotal.Add(1)
	if !success {
		s.uploadsFailed.Add(1)
	}
	if bytes > 0 {
		s.uploadBytesTotal.Add(bytes)
	}
	if duration > 0 {
		s.uploadDurationMicros.Add(uint64(duration / time.Microsecond))
	}
}

func (s *Service) uploadAvgLatencyMS() float64 {
	total := s.uploadsTotal.Load()
	if total == 0 {
		return 0
	}
	return float64(s.uploadDurationMicros.Load()) / float64(total) / 1000.0
}
