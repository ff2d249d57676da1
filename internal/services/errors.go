package services

import "errors"

var (
	ErrSlugConflict     = errors.New("slug already taken")
	ErrInvalidSlug      = errors.New("invalid slug")
	ErrInvalidURL       = errors.New("target url must be an absolute http(s) url")
	ErrInvalidLimit     = errors.New("click limit must be positive")
	ErrLinkNotFound     = errors.New("link not found")
	ErrInvalidWindow    = errors.New("window must be at least one day")
	ErrRecordingFailure = errors.New("click recording failed")
)
