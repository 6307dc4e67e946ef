package memo

import "errors"

var (
	// ErrFetch marks network or HTTP failures for the listing or a document.
	ErrFetch = errors.New("fetch failed")

	// ErrDocument marks a document body that could not be turned into text.
	ErrDocument = errors.New("unreadable document")

	ErrDateParse = errors.New("unparseable date")

	// ErrStateIO marks an unreadable or unwritable watermark file.
	ErrStateIO = errors.New("state io failed")

	ErrNotification = errors.New("notification failed")
)
