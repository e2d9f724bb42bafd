package ev3dev

import (
	"os/exec"
	"strconv"
	"time"

	"github.com/kilianp07/ev3remote/core/robot"
)

// Runner starts an external command without waiting for it.
type Runner interface {
	Start(name string, args ...string) (robot.Playback, error)
}

type execRunner struct{}

func (execRunner) Start(name string, args ...string) (robot.Playback, error) {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return cmd, nil
}

// speaker plays sounds through the beep utility shipped with ev3dev.
type speaker struct {
	run     Runner
	command string
	beep    toneSpec
}

type toneSpec struct {
	freq     float64
	duration time.Duration
}

func (s *speaker) Beep() (robot.Playback, error) {
	return s.Tone(s.beep.freq, s.beep.duration)
}

func (s *speaker) Tone(frequency float64, duration time.Duration) (robot.Playback, error) {
	return s.run.Start(s.command,
		"-f", strconv.FormatFloat(frequency, 'f', -1, 64),
		"-l", strconv.FormatInt(duration.Milliseconds(), 10))
}
