package delegate

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/multierr"

	"github.com/kilianp07/ev3remote/core/drive"
	"github.com/kilianp07/ev3remote/core/remote"
)

// Robot forwards remote calls to a DriveSystem.
type Robot struct {
	drive   *drive.DriveSystem
	out     io.Writer
	printer *Printer
}

// NewRobot creates a robot delegate printing to out, or stdout when out is
// nil.
func NewRobot(d *drive.DriveSystem, out io.Writer) *Robot {
	if out == nil {
		out = os.Stdout
	}
	return &Robot{drive: d, out: out, printer: NewPrinter(out)}
}

func (r *Robot) Methods() map[string]remote.Handler {
	return map[string]remote.Handler{
		"move":     r.move,
		"end":      r.end,
		"forward":  r.wheels(1, 1),
		"backward": r.wheels(-1, -1),
		"left":     r.wheels(-1, 1),
		"right":    r.wheels(1, -1),
		"stop":     r.stop,
		"say_it":   r.printer.sayIt,
		"beep":     r.beep,
		"tone":     r.tone,
		"arm_up":   r.arm(1),
		"arm_down": r.arm(-1),
		"arm_stop": r.armStop,

		drive.RoutineSeconds:       r.distance(r.drive.GoStraightForSeconds),
		drive.RoutineInchesTime:    r.distance(r.drive.GoStraightForInchesUsingTime),
		drive.RoutineInchesSensor:  r.distance(r.drive.GoStraightForInchesUsingSensor),
		drive.RoutineUntilBlack:    r.untilBlack,
		drive.RoutineUntilDistance: r.distance(r.drive.GoForwardUntilDistanceIsLessThan),
		drive.RoutineTones:         r.tones,
	}
}

// Interrupts reports whether method cancels a running routine: any known
// call that stops the robot or sets it moving again.
func (r *Robot) Interrupts(method string) bool {
	switch method {
	case "say_it", "beep", "tone", "arm_up", "arm_down", "arm_stop":
		return false
	}
	_, ok := r.Methods()[method]
	return ok
}

func speeds(args remote.Args) (int, int, error) {
	if err := args.Expect(2); err != nil {
		return 0, 0, err
	}
	left, err := args.Int(0)
	if err != nil {
		return 0, 0, err
	}
	right, err := args.Int(1)
	if err != nil {
		return 0, 0, err
	}
	return left, right, nil
}

func (r *Robot) move(_ context.Context, args remote.Args) error {
	left, right, err := speeds(args)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, left, right)
	return r.drive.Go(left, right)
}

// end accepts an optional message, which is ignored. The arm stops too.
func (r *Robot) end(context.Context, remote.Args) error {
	fmt.Fprintln(r.out, "STOP!")
	return multierr.Append(r.drive.Stop(), r.drive.StopArm())
}

func (r *Robot) stop(_ context.Context, args remote.Args) error {
	if err := args.Expect(0); err != nil {
		return err
	}
	return r.drive.Stop()
}

// wheels returns a handler driving each wheel at its argument times the
// given sign, the way the sender's arrow buttons do.
func (r *Robot) wheels(leftSign, rightSign int) remote.Handler {
	return func(_ context.Context, args remote.Args) error {
		left, right, err := speeds(args)
		if err != nil {
			return err
		}
		return r.drive.Go(leftSign*left, rightSign*right)
	}
}

func (r *Robot) beep(_ context.Context, args remote.Args) error {
	if err := args.Expect(0); err != nil {
		return err
	}
	return r.drive.Beep()
}

func (r *Robot) tone(_ context.Context, args remote.Args) error {
	if err := args.Expect(2); err != nil {
		return err
	}
	freq, err := args.Float(0)
	if err != nil {
		return err
	}
	ms, err := args.Int(1)
	if err != nil {
		return err
	}
	return r.drive.Tone(freq, time.Duration(ms)*time.Millisecond)
}

// arm returns a handler running the arm motor at its speed argument times
// sign, like the sender's Up and Down buttons.
func (r *Robot) arm(sign int) remote.Handler {
	return func(_ context.Context, args remote.Args) error {
		if err := args.Expect(1); err != nil {
			return err
		}
		speed, err := args.Int(0)
		if err != nil {
			return err
		}
		return r.drive.MoveArm(sign * speed)
	}
}

func (r *Robot) armStop(_ context.Context, args remote.Args) error {
	if err := args.Expect(0); err != nil {
		return err
	}
	return r.drive.StopArm()
}

// distance adapts routines taking an amount and a speed.
func (r *Robot) distance(fn func(context.Context, float64, int) error) remote.Handler {
	return func(ctx context.Context, args remote.Args) error {
		if err := args.Expect(2); err != nil {
			return err
		}
		amount, err := args.Float(0)
		if err != nil {
			return err
		}
		speed, err := args.Int(1)
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(ctx, amount, speed)
	}
}

func (r *Robot) untilBlack(ctx context.Context, args remote.Args) error {
	if err := args.Expect(1); err != nil {
		return err
	}
	speed, err := args.Int(0)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.drive.GoStraightUntilBlack(ctx, speed)
}

func (r *Robot) tones(ctx context.Context, args remote.Args) error {
	if err := args.Expect(0); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.drive.TonesUntilTouchSensorIsPressed(ctx)
}
