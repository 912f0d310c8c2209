package status

import "errors"

var (
	ErrUnauthorized      = errors.New("auth: participant is not authenticated")
	ErrForbidden         = errors.New("auth: participant may not act on this resource")
	ErrAlreadyRegistered = errors.New("registration: participant is already registered")
	ErrFull              = errors.New("registration: resource is full")
	ErrNotFound          = errors.New("lookup: provider or resource not found")
	ErrInvalidTransition = errors.New("booking: invalid status transition")
	ErrSlotTaken         = errors.New("booking: mentor already has a session in this slot")
	ErrValidation        = errors.New("request: validation failed")
	ErrStore             = errors.New("store: backend failure")
	ErrGeneration        = errors.New("genai: text generation failed")
)
