package pipeline

// ProgressEvent reports a finished stage.
type ProgressEvent struct {
	Stage   Stage  `json:"stage"`
	ID      string `json:"id"`
	Message string `json:"message"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called after each stage of a run.
type ProgressCallback func(event ProgressEvent)

func (a *Assembler) emitProgress(stage Stage, id, message string, content any) {
	if a.onProgress != nil {
		a.onProgress(ProgressEvent{
			Stage:   stage,
			ID:      id,
			Message: message,
			Content: content,
		})
	}
}
