package game

// Color is an RGBA render color.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// Palette used by the events.
var (
	Yellow = Color{R: 255, G: 255, B: 0, A: 255}
	Lime   = Color{R: 0, G: 255, B: 0, A: 255}
	Cyan   = Color{R: 0, G: 255, B: 255, A: 255}
	White  = Color{R: 255, G: 255, B: 255, A: 255}
)

// DrawKind selects a primitive.
type DrawKind string

const (
	DrawString2D   DrawKind = "string_2d"
	DrawPolyline3D DrawKind = "polyline_3d"
)

// DrawCommand is one primitive inside a render group.
type DrawCommand struct {
	Kind   DrawKind  `json:"kind"`
	X      int       `json:"x,omitempty"`
	Y      int       `json:"y,omitempty"`
	ScaleX int       `json:"scale_x,omitempty"`
	ScaleY int       `json:"scale_y,omitempty"`
	Text   string    `json:"text,omitempty"`
	Points []Vector3 `json:"points,omitempty"`
	Color  Color     `json:"color"`
}

// String2D builds a screen-space text command.
func String2D(x, y, scale int, text string, c Color) DrawCommand {
	return DrawCommand{Kind: DrawString2D, X: x, Y: y, ScaleX: scale, ScaleY: scale, Text: text, Color: c}
}

// Polyline3D builds a world-space polyline command.
func Polyline3D(points []Vector3, c Color) DrawCommand {
	return DrawCommand{Kind: DrawPolyline3D, Points: points, Color: c}
}
