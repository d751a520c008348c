package tracker

import (
	"errors"
	"fmt"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/voltlane/voltlane/routing"
)

var (
	ErrTrackNotFound              = errors.New("track not found")
	ErrInvalidAudioTrack          = errors.New("track is not an audio track")
	ErrClipNotFound               = errors.New("clip not found")
	ErrSendNotFound               = errors.New("send not found")
	ErrUnsupportedClipPayload     = errors.New("clip does not support note editing")
	ErrUnsupportedAudioClip       = errors.New("clip is not an audio clip")
	ErrUnsupportedAutomationClip  = errors.New("clip is not an automation clip")
	ErrUnsupportedPatternClip     = errors.New("clip is not a pattern clip")
	ErrInvalidQuantizeGrid        = errors.New("invalid quantize grid")
	ErrInvalidNoteIndex           = errors.New("invalid note index")
	ErrInvalidReorder             = errors.New("invalid track reorder")
	ErrInvalidAudioTrimRange      = errors.New("invalid audio trim range")
	ErrInvalidAudioStretchRatio   = errors.New("invalid audio stretch ratio")
	ErrInvalidAudioBucketSize     = errors.New("invalid audio analysis bucket size")
	ErrInvalidTrackerLinesPerBeat = errors.New("invalid tracker lines per beat")
	ErrNonFiniteValue             = errors.New("value is not a finite number")

	ErrInvalidBusTarget  = routing.ErrInvalidBusTarget
	ErrInvalidSendTarget = routing.ErrInvalidSendTarget
	ErrRoutingCycle      = routing.ErrRoutingCycle
)

func notFound(err error, format string, args ...any) error {
	return fault.Wrap(err, fmsg.With(fmt.Sprintf(format, args...)), ftag.With(ftag.NotFound))
}

func invalid(err error, format string, args ...any) error {
	return fault.Wrap(err, fmsg.With(fmt.Sprintf(format, args...)), ftag.With(ftag.InvalidArgument))
}

// Kind classifies an error returned by the Model, e.g. to choose a status
// code or exit code.
func Kind(err error) ftag.Kind {
	return ftag.Get(err)
}
