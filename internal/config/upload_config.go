package config

import (
	"os"
	"time"
)

type UploadConfig interface {
	GetTempDir() string
	GetMaxUploadBytes() int64
	GetFetchTimeout() time.Duration
	GetUploadTimeout() time.Duration
	GetUploadChunkSize() int64
	GetDriveAPIURL() string
	GetDriveUploadURL() string
}

var _ UploadConfig = mainConfig{}

func (s *settings) GetTempDir() string {
	if s.TempDir == "" {
		return os.TempDir()
	}
	return s.TempDir
}

func (s *settings) GetMaxUploadBytes() int64 {
	return s.MaxUploadBytes
}

func (s *settings) GetFetchTimeout() time.Duration {
	return s.FetchTimeout
}

func (s *settings) GetUploadTimeout() time.Duration {
	return s.UploadTimeout
}

func (s *settings) GetUploadChunkSize() int64 {
	return s.UploadChunkSize
}

func (s *settings) GetDriveAPIURL() string {
	return s.DriveAPIURL
}

func (s *settings) GetDriveUploadURL() string {
	return s.DriveUploadURL
}
