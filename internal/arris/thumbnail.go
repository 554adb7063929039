package arris

// ThumbnailJob asks for the thumbnail of the file at Index.
type ThumbnailJob struct {
	Index int
	Path  string
}

// Thumbnail is a decoded preview of a selected file. Err is set when the
// file has no usable preview.
type Thumbnail struct {
	Index  int
	Path   string
	Data   []byte // encoded JPEG
	Width  int
	Height int
	Err    error
}

// ThumbnailLoader decodes thumbnails off the calling goroutine.
type ThumbnailLoader interface {
	// Start stops any running batch, waits for it to finish, then decodes
	// jobs in order and passes each result to deliver.
	Start(jobs []ThumbnailJob, deliver func(Thumbnail))

	// Stop cancels the running batch and waits for it to finish. Results
	// of a stopped batch are never delivered after Stop returns.
	Stop()
}
