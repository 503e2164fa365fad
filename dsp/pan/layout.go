package pan

import (
	"fmt"
	"math"
	"strings"
)

// Channel names a physical output channel.
type Channel int

const (
	FrontLeft Channel = iota
	FrontRight
	FrontCenter
	LFE
	BackLeft
	BackRight
	BackCenter
	SideLeft
	SideRight
	Aux0
	Aux1
	Aux2
	Aux3
)

var channelNames = [...]string{
	FrontLeft:   "FL",
	FrontRight:  "FR",
	FrontCenter: "FC",
	LFE:         "LFE",
	BackLeft:    "BL",
	BackRight:   "BR",
	BackCenter:  "BC",
	SideLeft:    "SL",
	SideRight:   "SR",
	Aux0:        "W",
	Aux1:        "Y",
	Aux2:        "Z",
	Aux3:        "X",
}

func (c Channel) String() string {
	if c >= 0 && int(c) < len(channelNames) {
		return channelNames[c]
	}
	return fmt.Sprintf("Channel(%d)", int(c))
}

// Layout is a device channel layout together with the way panned signals
// are decoded onto it.
type Layout struct {
	Name     string
	Channels []Channel

	// matrix holds one first-order decoder row per channel. It is nil for
	// ambisonic layouts, which carry the B-Format channels directly.
	matrix []ChannelConfig
}

// NumChannels returns the channel count.
func (l *Layout) NumChannels() int {
	return len(l.Channels)
}

// Index returns the position of ch in the layout, or -1 if absent.
func (l *Layout) Index(ch Channel) int {
	for i, c := range l.Channels {
		if c == ch {
			return i
		}
	}
	return -1
}

// Ambisonic reports whether the layout outputs raw B-Format.
func (l *Layout) Ambisonic() bool {
	return l.matrix == nil
}

// MixParams returns the parameters for panning directly onto the layout.
func (l *Layout) MixParams() MixParams {
	if l.Ambisonic() {
		return bformatParams(len(l.Channels))
	}

	return MixParams{
		Coeffs:      l.matrix,
		CoeffCount:  MaxFirstOrderCoeffs,
		NumChannels: len(l.Channels),
	}
}

// FirstOrderParams returns the parameters for mixing a first-order
// B-Format intermediate buffer: four channel-mapped channels.
func FirstOrderParams() MixParams {
	return bformatParams(MaxFirstOrderCoeffs)
}

func bformatParams(n int) MixParams {
	m := make([]BFChannelConfig, n)
	for i := range m {
		m[i] = BFChannelConfig{Scale: 1, Index: i}
	}
	return MixParams{Map: m, NumChannels: n}
}

// speakerRow builds a first-order decoder row for a horizontal speaker at
// azimuth azDeg. Rows built with weight 1/N for a regular N-speaker ring
// sum to unity for any source direction.
func speakerRow(azDeg, weight float64) ChannelConfig {
	az := azDeg * math.Pi / 180
	const k = 1 / 1.732050808

	var row ChannelConfig
	row[0] = weight
	row[1] = weight * k * -math.Sin(az)
	row[3] = weight * k * math.Cos(az)
	return row
}

type speaker struct {
	ch Channel
	az float64
	// lfe marks a channel that receives no panned signal.
	lfe bool
}

func newLayout(name string, speakers ...speaker) *Layout {
	full := 0
	for _, s := range speakers {
		if !s.lfe {
			full++
		}
	}

	l := &Layout{Name: name, matrix: make([]ChannelConfig, len(speakers))}
	for i, s := range speakers {
		l.Channels = append(l.Channels, s.ch)
		if !s.lfe {
			l.matrix[i] = speakerRow(s.az, 1/float64(full))
		}
	}
	return l
}

// Predefined layouts.
var (
	Mono = &Layout{
		Name:     "mono",
		Channels: []Channel{FrontCenter},
		matrix:   []ChannelConfig{{1}},
	}
	Stereo = newLayout("stereo",
		speaker{ch: FrontLeft, az: -90},
		speaker{ch: FrontRight, az: 90},
	)
	Quad = newLayout("quad",
		speaker{ch: FrontLeft, az: -45},
		speaker{ch: FrontRight, az: 45},
		speaker{ch: BackLeft, az: -135},
		speaker{ch: BackRight, az: 135},
	)
	Surround51 = newLayout("5.1",
		speaker{ch: FrontLeft, az: -30},
		speaker{ch: FrontRight, az: 30},
		speaker{ch: FrontCenter},
		speaker{ch: LFE, lfe: true},
		speaker{ch: SideLeft, az: -110},
		speaker{ch: SideRight, az: 110},
	)
	Surround51Rear = newLayout("5.1-rear",
		speaker{ch: FrontLeft, az: -30},
		speaker{ch: FrontRight, az: 30},
		speaker{ch: FrontCenter},
		speaker{ch: LFE, lfe: true},
		speaker{ch: BackLeft, az: -110},
		speaker{ch: BackRight, az: 110},
	)
	Surround61 = newLayout("6.1",
		speaker{ch: FrontLeft, az: -30},
		speaker{ch: FrontRight, az: 30},
		speaker{ch: FrontCenter},
		speaker{ch: LFE, lfe: true},
		speaker{ch: BackCenter, az: 180},
		speaker{ch: SideLeft, az: -90},
		speaker{ch: SideRight, az: 90},
	)
	Surround71 = newLayout("7.1",
		speaker{ch: FrontLeft, az: -30},
		speaker{ch: FrontRight, az: 30},
		speaker{ch: FrontCenter},
		speaker{ch: LFE, lfe: true},
		speaker{ch: BackLeft, az: -150},
		speaker{ch: BackRight, az: 150},
		speaker{ch: SideLeft, az: -90},
		speaker{ch: SideRight, az: 90},
	)
	BFormat = &Layout{
		Name:     "bformat",
		Channels: []Channel{Aux0, Aux1, Aux2, Aux3},
	}
)

var layouts = []*Layout{Mono, Stereo, Quad, Surround51, Surround51Rear, Surround61, Surround71, BFormat}

// LayoutByName returns the predefined layout with the given name.
func LayoutByName(name string) (*Layout, error) {
	for _, l := range layouts {
		if strings.EqualFold(l.Name, name) {
			return l, nil
		}
	}
	return nil, fmt.Errorf("pan: unknown layout %q", name)
}

// LayoutNames lists the predefined layout names.
func LayoutNames() []string {
	names := make([]string, len(layouts))
	for i, l := range layouts {
		names[i] = l.Name
	}
	return names
}
