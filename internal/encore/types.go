// SPDX-License-Identifier: MIT

// Package encore talks to the external Encore transcoding system: job
// submission, job detail retrieval and the progress callback contract.
package encore

// Input media types accepted by the transcoder.
const (
	InputTypeAudio      = "Audio"
	InputTypeVideo      = "Video"
	InputTypeAudioVideo = "AudioVideo"
)

// Transcode job status values reported by the transcoder.
const (
	JobStatusNew        = "NEW"
	JobStatusQueued     = "QUEUED"
	JobStatusInProgress = "IN_PROGRESS"
	JobStatusSuccessful = "SUCCESSFUL"
	JobStatusFailed     = "FAILED"
	JobStatusCancelled  = "CANCELLED"
)

// Job is the transcode job representation shared by submission and detail
// retrieval. ExternalId always carries the creative identity so progress
// callbacks can be correlated back to a cache key.
type Job struct {
	ID                  string   `json:"id,omitempty"`
	ExternalID          string   `json:"externalId"`
	Profile             string   `json:"profile"`
	OutputFolder        string   `json:"outputFolder"`
	BaseName            string   `json:"baseName"`
	ProgressCallbackURI string   `json:"progressCallbackUri"`
	Status              string   `json:"status,omitempty"`
	Inputs              []Input  `json:"inputs"`
	Outputs             []Output `json:"output,omitempty"`
}

// Input is one source media reference of a transcode job.
type Input struct {
	URI    string `json:"uri"`
	SeekTo int    `json:"seekTo"`
	CopyTs bool   `json:"copyTs"`
	Type   string `json:"type"`
}

// Output is one produced media file of a completed transcode job.
type Output struct {
	Type           string        `json:"type,omitempty"`
	Format         string        `json:"format,omitempty"`
	File           string        `json:"file,omitempty"`
	FileSize       int64         `json:"fileSize,omitempty"`
	OverallBitrate int64         `json:"overallBitrate,omitempty"`
	VideoStreams   []VideoStream `json:"videoStreams,omitempty"`
	AudioStreams   []AudioStream `json:"audioStreams,omitempty"`
}

// VideoStream describes one encoded video stream of an output.
type VideoStream struct {
	Codec     string `json:"codec,omitempty"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	FrameRate string `json:"frameRate"`
}

// AudioStream describes one encoded audio stream of an output.
type AudioStream struct {
	Codec        string `json:"codec,omitempty"`
	Channels     int    `json:"channels,omitempty"`
	SamplingRate int    `json:"samplingRate,omitempty"`
	Profile      string `json:"profile,omitempty"`
}

// JobProgress is the asynchronous progress notification the transcoder
// POSTs to this service.
type JobProgress struct {
	JobID      string `json:"jobId"`
	ExternalID string `json:"externalId"`
	Progress   int    `json:"progress"`
	Status     string `json:"status"`
}
