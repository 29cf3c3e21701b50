package domain

import "errors"

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrFileNotFound    = errors.New("file not found")
	ErrEmptyName       = errors.New("name cannot be empty")
	ErrDuplicateName   = errors.New("a sibling project already uses this name")
	ErrInvalidPayload  = errors.New("invalid drawing payload")
	ErrNoActiveFile    = errors.New("no active file")
	ErrNotActive       = errors.New("file is not the active file")
	ErrCycle           = errors.New("project cannot be moved under itself")
)
