package util

import "errors"

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidFileType  = errors.New("only PDF files are accepted")
	ErrFileTooLarge     = errors.New("file exceeds the upload limit")
	ErrInvalidStatus    = errors.New("invalid document status")
	ErrSessionNotFound  = errors.New("quiz session not found")
	ErrSessionNotReady  = errors.New("quiz session is still being prepared")
	ErrTooManyQuestions = errors.New("question count exceeds the limit")
	ErrServiceShutdown  = errors.New("service is shutting down")
)
