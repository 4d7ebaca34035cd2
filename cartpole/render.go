package cartpole

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/logrusorgru/aurora"

	"github.com/CodeStranger-Fred/cartpole/mdp"
)

// Renderer draws one text frame per step: the track with the cart on it
// and the pole angle.
type Renderer struct {
	W     io.Writer
	Width int // track cells, default 41
}

func (r Renderer) Render(o mdp.Observation, step int) {
	width := r.Width
	if width <= 0 {
		width = 41
	}
	pos := int((o[0] + XThreshold) / (2 * XThreshold) * float64(width-1))
	if pos < 0 {
		pos = 0
	}
	if pos > width-1 {
		pos = width - 1
	}

	var track strings.Builder
	for i := 0; i < width; i++ {
		if i == pos {
			track.WriteString(aurora.Green("#").String())
		} else {
			track.WriteString(aurora.Blue("-").String())
		}
	}

	angle := o[2] * 180 / math.Pi
	pole := aurora.Green(fmt.Sprintf("%+6.2f°", angle))
	if o[2] < -ThetaThreshold/2 || o[2] > ThetaThreshold/2 {
		pole = aurora.Yellow(fmt.Sprintf("%+6.2f°", angle))
	}
	fmt.Fprintf(r.W, "%4d |%s| pole %s\n", step, track.String(), pole)
}
