package dub

import "errors"

var (
	// ErrEmptyWordList is returned when the fragmenter receives no words,
	// or when the time/speaker filters leave nothing behind.
	ErrEmptyWordList = errors.New("dub: no words to fragment")

	// ErrNonMonotoneWords is returned when word start times are not
	// non-decreasing; the fragmenter requires sorted input.
	ErrNonMonotoneWords = errors.New("dub: word start times are not monotone")

	// ErrFragmentStraddlesSentence is returned when a fragment's interval
	// is not fully contained by exactly one full sentence. This indicates
	// an upstream bug in how fragments and sentences were derived from the
	// same word list.
	ErrFragmentStraddlesSentence = errors.New("dub: fragment straddles a sentence boundary")

	// ErrUnparseableTime is returned by the time-string parser for input
	// matching none of the accepted forms.
	ErrUnparseableTime = errors.New("dub: unrecognized time format")

	// ErrSpeakerIndexOutOfRange is returned (locally recovered — the
	// fragment is skipped, not the pipeline) when a fragment's
	// speaker_index has no corresponding configured voice.
	ErrSpeakerIndexOutOfRange = errors.New("dub: speaker index out of voice range")

	// ErrStyleRewriteRejected is the terminal outcome of the style-rewrite
	// retry loop once retries are exhausted; callers fall back to the
	// original fragment text.
	ErrStyleRewriteRejected = errors.New("dub: style rewrite did not satisfy the length contract")

	// ErrSynthesisExhausted means every hallucination-free attempt failed
	// verification and no fallback candidate could be selected.
	ErrSynthesisExhausted = errors.New("dub: synthesis attempts exhausted with no usable candidate")

	// ErrWholeMediaStep wraps a failure in fetch/separate/transcribe/
	// diarize — these abort the whole pipeline, unlike per-fragment
	// failures.
	ErrWholeMediaStep = errors.New("dub: whole-media step failed")

	// ErrInvalidRenderScript is returned when a checkpoint file cannot be
	// parsed into a well-formed RenderScript.
	ErrInvalidRenderScript = errors.New("dub: invalid render script")

	// ErrMissingExternalTool is returned when a required external binary
	// (rubberband, ffmpeg, ...) cannot be located on PATH.
	ErrMissingExternalTool = errors.New("dub: missing external tool")
)
