package ev3dev

import (
	"fmt"
	"time"

	"github.com/spf13/afero"

	"github.com/kilianp07/ev3remote/core/factory"
	"github.com/kilianp07/ev3remote/core/logger"
	"github.com/kilianp07/ev3remote/core/robot"
)

// Config locates the device tree and the sound utility.
type Config struct {
	SysfsRoot      string  `json:"sysfs_root"`
	BeepCommand    string  `json:"beep_command"`
	BeepFrequency  float64 `json:"beep_frequency"`
	BeepDurationMS int     `json:"beep_duration_ms"`
}

func (c *Config) SetDefaults() {
	if c.SysfsRoot == "" {
		c.SysfsRoot = "/sys/class"
	}
	if c.BeepCommand == "" {
		c.BeepCommand = "beep"
	}
	if c.BeepFrequency <= 0 {
		c.BeepFrequency = 440
	}
	if c.BeepDurationMS <= 0 {
		c.BeepDurationMS = 200
	}
}

// Platform opens ev3dev devices by port.
type Platform struct {
	sys sysfs
	cfg Config
	run Runner
	log logger.Logger
}

// Option customises a Platform.
type Option func(*Platform)

// WithFs replaces the OS filesystem.
func WithFs(fs afero.Fs) Option { return func(p *Platform) { p.sys.fs = fs } }

// WithRunner replaces the command runner used for sound.
func WithRunner(r Runner) Option { return func(p *Platform) { p.run = r } }

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Platform) {
		if l != nil {
			p.log = l
		}
	}
}

func New(cfg Config, opts ...Option) *Platform {
	cfg.SetDefaults()
	p := &Platform{
		sys: sysfs{fs: afero.NewOsFs(), root: cfg.SysfsRoot},
		cfg: cfg,
		run: execRunner{},
		log: logger.Nop{},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Factory adapts New to the platform registry.
func Factory(log logger.Logger) factory.Factory[robot.Platform] {
	return func(conf map[string]any) (robot.Platform, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, fmt.Errorf("ev3dev config: %w", err)
		}
		return New(c, WithLogger(log)), nil
	}
}

func (p *Platform) Motor(port string, kind robot.MotorKind) (robot.Motor, error) {
	if err := robot.ValidateMotorPort(port); err != nil {
		return nil, err
	}
	dir, err := p.sys.find(classMotor, motorAddress(port), motorDrivers[kind])
	if err != nil {
		return nil, err
	}
	p.log.Debugf("%s motor on %s at %s", kind, port, dir)
	return &motor{sys: p.sys, dir: dir}, nil
}

func (p *Platform) TouchSensor(port int) (robot.TouchSensor, error) {
	s, err := p.sensor(port, driverTouch, "TOUCH")
	if err != nil {
		return nil, err
	}
	return touchSensor{s}, nil
}

func (p *Platform) ColorSensor(port int) (robot.ColorSensor, error) {
	s, err := p.sensor(port, driverColor, "COL-REFLECT")
	if err != nil {
		return nil, err
	}
	return colorSensor{s}, nil
}

func (p *Platform) ProximitySensor(port int) (robot.ProximitySensor, error) {
	s, err := p.sensor(port, driverIR, "IR-PROX")
	if err != nil {
		return nil, err
	}
	return proximitySensor{s}, nil
}

func (p *Platform) sensor(port int, driver, mode string) (*sensor, error) {
	if err := robot.ValidateSensorPort(port); err != nil {
		return nil, err
	}
	s, err := openSensor(p.sys, sensorAddress(port), driver, mode)
	if err != nil {
		return nil, err
	}
	p.log.Debugf("%s on %d at %s", driver, port, s.dir)
	return s, nil
}

func (p *Platform) Beeper() (robot.Beeper, error) { return p.speaker(), nil }

func (p *Platform) ToneMaker() (robot.ToneMaker, error) { return p.speaker(), nil }

func (p *Platform) speaker() *speaker {
	return &speaker{
		run:     p.run,
		command: p.cfg.BeepCommand,
		beep: toneSpec{
			freq:     p.cfg.BeepFrequency,
			duration: time.Duration(p.cfg.BeepDurationMS) * time.Millisecond,
		},
	}
}
