package settings

import "math"

// Defaults
const (
	DefaultMaxStep        int32   = 80000
	DefaultPosition       int32   = 5000
	DefaultDelayAfterMove uint8   = 25
	DefaultStepSize       float64 = 50.0
	DefaultDeviceName             = "OrionED80"
	DefaultMDNSName               = "myfp28266"
	DefaultPageOption             = "111111"
	DefaultPowerdownTime  int32   = 60
	DefaultSpeedDelay     uint32  = 4000

	MinMaxStep     int32   = 1024
	MaxMaxStep     int32   = 500000
	MinStepSize    float64 = 0.001
	MaxStepSize    float64 = 100.0
	MinSpeedDelay  uint32  = 500
	MaxSpeedDelay  uint32  = 14000
	MaxCoefficient int32   = 256
	MaxNameLen             = 11

	SpeedSlow   uint8 = 0
	SpeedMedium uint8 = 1
	SpeedFast   uint8 = 2
)

// Persistent holds controller settings
type Persistent struct {
	MaxStep           int32   `json:"maxstep"`
	AlpacaEnable      bool    `json:"alpaca_en"`
	BacklashIn        uint8   `json:"blin_steps"`
	BacklashOut       uint8   `json:"blout_steps"`
	CoilPower         bool    `json:"cp_en"`
	DelayAfterMove    uint8   `json:"dam_time"` // milliseconds
	DeviceName        string  `json:"devname"`
	DisplayEnable     bool    `json:"d_en"`
	DisplayUpdMove    bool    `json:"d_updmove"`
	DisplayPageOption string  `json:"d_pgopt"`
	DuckDNSEnable     bool    `json:"ddns_en"`
	DuckDNSDomain     string  `json:"ddns_d"`
	DuckDNSToken      string  `json:"ddns_t"`
	ManagementEnable  bool    `json:"mngt_en"`
	MDNSName          string  `json:"mdnsn"`
	MotorSpeed        uint8   `json:"mspeed"`
	PowerdownEnable   bool    `json:"pwrdn"`
	PowerdownTime     int32   `json:"pwrdt"`
	ReverseEnable     bool    `json:"rdir_en"`
	StepSize          float64 `json:"ss_val"`
	TCPIPEnable       bool    `json:"tcp_en"`
	TempProbeEnable   bool    `json:"t_en"`
	TempCoefficient   int32   `json:"t_coe"`
	TempModeCelsius   bool    `json:"t_mod"`
	TCDirectionOut    bool    `json:"t_tcdir"`
	TempCompOnLoad    bool    `json:"tc_load"`
	WebEnable         bool    `json:"ws_en"`
}

// DefaultPersistent returns factory settings
func DefaultPersistent() Persistent {
	return Persistent{
		MaxStep:           DefaultMaxStep,
		DelayAfterMove:    DefaultDelayAfterMove,
		DeviceName:        DefaultDeviceName,
		DisplayUpdMove:    true,
		DisplayPageOption: DefaultPageOption,
		ManagementEnable:  true,
		MDNSName:          DefaultMDNSName,
		MotorSpeed:        SpeedFast,
		PowerdownTime:     DefaultPowerdownTime,
		StepSize:          DefaultStepSize,
		TempModeCelsius:   true,
	}
}

func (p *Persistent) sanitize() {
	p.MaxStep = clamp32(p.MaxStep, MinMaxStep, MaxMaxStep)
	if p.MotorSpeed > SpeedFast {
		p.MotorSpeed = SpeedFast
	}
	p.StepSize = clampStepSize(p.StepSize)
	p.TempCoefficient = clamp32(p.TempCoefficient, 0, MaxCoefficient)
	p.DeviceName = truncate(p.DeviceName, MaxNameLen)
	p.MDNSName = truncate(p.MDNSName, MaxNameLen)
	for len(p.DisplayPageOption) < len(DefaultPageOption) {
		p.DisplayPageOption += "0"
	}
}

// Variable holds the last focuser position and move direction
type Variable struct {
	Position int32 `json:"fpos"`
	Outward  bool  `json:"fdir"`
}

// DefaultVariable returns the power-on position and direction
func DefaultVariable() Variable {
	return Variable{Position: DefaultPosition}
}

// Board holds the driver board wiring and motor characteristics
type Board struct {
	Name          string   `json:"board"`
	MaxStepMode   int      `json:"maxstepmode"`
	StepMode      int      `json:"stepmode"`
	EnablePin     int32    `json:"enpin"`
	StepPin       int32    `json:"steppin"`
	DirPin        int32    `json:"dirpin"`
	TempPin       int32    `json:"temppin"`
	Number        int      `json:"brdnum"`
	StepsPerRev   int      `json:"stepsrev"`
	FixedStepMode int      `json:"fixedsmode"`
	Pins          [4]int32 `json:"brdpins"`
	SpeedDelay    uint32   `json:"msdelay"` // microseconds
}

// UnknownBoard returns the placeholder written when no board data exists
func UnknownBoard(number int) Board {
	return Board{
		Name:          "Unknown",
		MaxStepMode:   -1,
		StepMode:      1,
		EnablePin:     -1,
		StepPin:       -1,
		DirPin:        -1,
		TempPin:       -1,
		Number:        number,
		FixedStepMode: 1,
		Pins:          [4]int32{-1, -1, -1, -1},
		SpeedDelay:    DefaultSpeedDelay,
	}
}

func (b *Board) sanitize() {
	if b.SpeedDelay < MinSpeedDelay {
		b.SpeedDelay = MinSpeedDelay
	} else if b.SpeedDelay > MaxSpeedDelay {
		b.SpeedDelay = MaxSpeedDelay
	}
	if b.StepMode <= 0 {
		b.StepMode = 1
	}
}

// clampStepSize bounds v to [MinStepSize, MaxStepSize]; NaN cannot be
// encoded as JSON and becomes the default
func clampStepSize(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return DefaultStepSize
	case v < MinStepSize:
		return MinStepSize
	case v > MaxStepSize:
		return MaxStepSize
	}
	return v
}

func clamp32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
